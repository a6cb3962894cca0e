package cluster_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/cluster"
)

func workerPod(name, runID string, phase corev1.PodPhase) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "default",
			Labels: map[string]string{
				cluster.LabelApp:       "mlbench",
				cluster.LabelComponent: "worker",
				cluster.LabelRunID:     runID,
			},
		},
		Status: corev1.PodStatus{Phase: phase, PodIP: "10.0.0.1"},
	}
}

func TestSource_ListPods(t *testing.T) {
	t.Run("filters by selector", func(t *testing.T) {
		clientset := fake.NewSimpleClientset(
			workerPod("run-a-worker-0", "a", corev1.PodRunning),
			workerPod("run-a-worker-1", "a", corev1.PodSucceeded),
			workerPod("run-b-worker-0", "b", corev1.PodRunning),
		)
		source := cluster.New(clientset, "default")

		pods, err := source.ListPods(context.Background(), cluster.WorkerSelector("a"))
		require.NoError(t, err)
		require.Len(t, pods, 2)

		names := []string{pods[0].Name, pods[1].Name}
		assert.ElementsMatch(t, []string{"run-a-worker-0", "run-a-worker-1"}, names)
		assert.Equal(t, "10.0.0.1", pods[0].IP)
		assert.Equal(t, "a", pods[0].Labels[cluster.LabelRunID])
	})

	t.Run("api error is unavailable", func(t *testing.T) {
		clientset := fake.NewSimpleClientset()
		clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, stderrors.New("apiserver down")
		})
		source := cluster.New(clientset, "default")

		_, err := source.ListPods(context.Background(), cluster.MasterSelector())
		assert.True(t, errors.Is(err, errors.KindExternalUnavailable))
	})
}

func TestSelectors(t *testing.T) {
	assert.Equal(t, "app=mlbench,component=worker,run-id=42", cluster.WorkerSelector("42"))
	assert.Equal(t, "app=mlbench,component=master", cluster.MasterSelector())
}

func TestPhases(t *testing.T) {
	assert.True(t, cluster.IsTerminalPhase("Succeeded"))
	assert.True(t, cluster.IsTerminalPhase("Failed"))
	assert.False(t, cluster.IsTerminalPhase("Running"))
	assert.True(t, cluster.IsFailedPhase("Failed"))
	assert.False(t, cluster.IsFailedPhase("Succeeded"))
}

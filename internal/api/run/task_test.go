package run_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"mlbench-api-server/internal/api/pod"
	"mlbench-api-server/internal/api/run"
	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/models"
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

func TestBenchmarkTask(t *testing.T) {
	cases := []struct {
		name    string
		pods    []*corev1.Pod
		wantErr string
	}{
		{
			name: "all workers succeeded",
			pods: []*corev1.Pod{
				workerPod("worker-0", "r1", corev1.PodSucceeded),
				workerPod("worker-1", "r1", corev1.PodSucceeded),
				workerPod("worker-9", "r0", corev1.PodFailed),
			},
		},
		{
			name: "worker failed",
			pods: []*corev1.Pod{
				workerPod("worker-0", "r1", corev1.PodSucceeded),
				workerPod("worker-1", "r1", corev1.PodFailed),
			},
			wantErr: "worker pod worker-1 failed",
		},
		{
			name: "workers missing",
			pods: []*corev1.Pod{
				workerPod("worker-0", "r1", corev1.PodSucceeded),
			},
			wantErr: "did not finish in time",
		},
		{
			name: "worker still running",
			pods: []*corev1.Pod{
				workerPod("worker-0", "r1", corev1.PodSucceeded),
				workerPod("worker-1", "r1", corev1.PodRunning),
			},
			wantErr: "did not finish in time",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.db.Create(&models.Run{ID: "r1", Name: "r1", State: models.RunStarted, NumWorkers: 2}).Error)

			objects := make([]runtime.Object, 0, len(tc.pods))
			for _, p := range tc.pods {
				objects = append(objects, p)
			}
			source := cluster.New(fake.NewSimpleClientset(objects...), "default")
			ps := pod.NewPodService(pod.NewPodRepository(f.db), zap.NewNop())
			task := run.NewBenchmarkTask(f.repo, source, ps, 10*time.Millisecond, 200*time.Millisecond, zap.NewNop())

			result, err := task.Run("r1")
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "2 workers succeeded", result)
			}

			pods, err := ps.GetAllPod(context.Background())
			require.NoError(t, err)
			for _, p := range pods {
				assert.Equal(t, "r1", *p.RunID)
			}
		})
	}
}

func TestBenchmarkTask_NoCluster(t *testing.T) {
	f := newFixture(t)
	task := run.NewBenchmarkTask(f.repo, nil, nil, time.Millisecond, time.Second, zap.NewNop())

	_, err := task.Run("r1")
	assert.Error(t, err)
}

func TestBenchmarkTask_UnknownRun(t *testing.T) {
	f := newFixture(t)
	source := cluster.New(fake.NewSimpleClientset(), "default")
	task := run.NewBenchmarkTask(f.repo, source, nil, time.Millisecond, time.Second, zap.NewNop())

	_, err := task.Run("missing")
	assert.Error(t, err)
}

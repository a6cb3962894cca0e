// Package cluster reads worker pod metadata from kubernetes.
package cluster

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"mlbench-api-server/internal/api/common/errors"
)

const (
	LabelApp       = "app"
	LabelComponent = "component"
	LabelRunID     = "run-id"

	appName         = "mlbench"
	componentWorker = "worker"
	componentMaster = "master"
)

type WorkerPod struct {
	Name   string
	IP     string
	Phase  string
	Labels map[string]string
}

// Source lists pods matching a label selector.
type Source interface {
	ListPods(ctx context.Context, selector string) ([]WorkerPod, error)
}

type k8sSource struct {
	clientset kubernetes.Interface
	namespace string
}

var _ Source = (*k8sSource)(nil)

func New(clientset kubernetes.Interface, namespace string) Source {
	return &k8sSource{
		clientset: clientset,
		namespace: namespace,
	}
}

// NewClientset builds a clientset from the in-cluster service account, or
// from kubeconfig when not running inside the cluster.
func NewClientset(kubeconfig string, inCluster bool) (kubernetes.Interface, error) {
	var (
		config *rest.Config
		err    error
	)
	if inCluster {
		config, err = rest.InClusterConfig()
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}
	return clientset, nil
}

func (s *k8sSource) ListPods(ctx context.Context, selector string) ([]WorkerPod, error) {
	podList, err := s.clientset.CoreV1().Pods(s.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err != nil {
		return nil, errors.UnavailableErr("cluster", fmt.Errorf("list pods: %w", err))
	}

	pods := make([]WorkerPod, 0, len(podList.Items))
	for i := range podList.Items {
		pods = append(pods, toWorkerPod(&podList.Items[i]))
	}
	return pods, nil
}

func toWorkerPod(pod *corev1.Pod) WorkerPod {
	return WorkerPod{
		Name:   pod.Name,
		IP:     pod.Status.PodIP,
		Phase:  string(pod.Status.Phase),
		Labels: pod.Labels,
	}
}

// WorkerSelector selects the worker pods of one run.
func WorkerSelector(runID string) string {
	return labels.Set{
		LabelApp:       appName,
		LabelComponent: componentWorker,
		LabelRunID:     runID,
	}.AsSelector().String()
}

// MasterSelector selects the master pod workers report metrics to.
func MasterSelector() string {
	return labels.Set{
		LabelApp:       appName,
		LabelComponent: componentMaster,
	}.AsSelector().String()
}

func IsTerminalPhase(phase string) bool {
	return phase == string(corev1.PodSucceeded) || phase == string(corev1.PodFailed)
}

func IsFailedPhase(phase string) bool {
	return phase == string(corev1.PodFailed)
}

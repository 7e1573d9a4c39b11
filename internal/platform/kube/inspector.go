package kube

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Inspector reads the cluster state the orchestrator waits on.
type Inspector interface {
	// ClaimPhase returns the claim phase, or "" when the claim does not exist yet.
	ClaimPhase(ctx context.Context, namespace, name string) (corev1.PersistentVolumeClaimPhase, error)
	// PodReady reports the pod Ready condition plus a short description of its state.
	PodReady(ctx context.Context, namespace, name string) (bool, string, error)
	// ServiceAddress returns the first load balancer ingress IP or hostname, or "".
	ServiceAddress(ctx context.Context, namespace, name string) (string, error)
}

// ClientInspector implements Inspector with a typed clientset.
type ClientInspector struct {
	clientset kubernetes.Interface
}

// NewInspector creates an inspector.
func NewInspector(clientset kubernetes.Interface) *ClientInspector {
	return &ClientInspector{clientset: clientset}
}

// ClaimPhase implements Inspector.
func (i *ClientInspector) ClaimPhase(ctx context.Context, namespace, name string) (corev1.PersistentVolumeClaimPhase, error) {
	pvc, err := i.clientset.CoreV1().PersistentVolumeClaims(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get claim %s/%s: %w", namespace, name, err)
	}
	return pvc.Status.Phase, nil
}

// PodReady implements Inspector.
func (i *ClientInspector) PodReady(ctx context.Context, namespace, name string) (bool, string, error) {
	pod, err := i.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, "pod not created", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to get pod %s/%s: %w", namespace, name, err)
	}
	return isPodReady(pod), describePod(pod), nil
}

// ServiceAddress implements Inspector.
func (i *ClientInspector) ServiceAddress(ctx context.Context, namespace, name string) (string, error) {
	svc, err := i.clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get service %s/%s: %w", namespace, name, err)
	}
	for _, ing := range svc.Status.LoadBalancer.Ingress {
		if ing.IP != "" {
			return ing.IP, nil
		}
		if ing.Hostname != "" {
			return ing.Hostname, nil
		}
	}
	return "", nil
}

// isPodReady checks if a pod is ready.
func isPodReady(pod *corev1.Pod) bool {
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}

// describePod summarizes phase and the first waiting or terminated reason.
func describePod(pod *corev1.Pod) string {
	parts := []string{string(pod.Status.Phase)}
	for _, cs := range pod.Status.ContainerStatuses {
		switch {
		case cs.State.Waiting != nil && cs.State.Waiting.Reason != "":
			parts = append(parts, cs.State.Waiting.Reason)
		case cs.State.Terminated != nil && cs.State.Terminated.Reason != "":
			parts = append(parts, cs.State.Terminated.Reason)
		}
	}
	if isPodReady(pod) {
		parts = append(parts, "Ready")
	}
	return strings.Join(parts, "/")
}

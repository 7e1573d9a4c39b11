package provisioning_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/imamik/k8zdb/internal/artifact"
	"github.com/imamik/k8zdb/internal/config"
	"github.com/imamik/k8zdb/internal/platform/kube"
	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/store"
	"github.com/imamik/k8zdb/internal/tasks"
	testutil "github.com/imamik/k8zdb/internal/testing"
	"github.com/imamik/k8zdb/internal/workload"
)

const testToken = "abcd1234"

// fakeArtifacts serves data files from memory.
type fakeArtifacts map[string]string

func (f fakeArtifacts) Open(_ context.Context, ref string) (*artifact.Source, error) {
	body, ok := f[ref]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", ref, os.ErrNotExist)
	}
	return &artifact.Source{
		Name: path.Base(ref),
		Body: io.NopCloser(strings.NewReader(body)),
		Size: int64(len(body)),
	}, nil
}

type harness struct {
	Remote    *testutil.FakeRemote
	Connector *testutil.FakeConnector
	Store     *store.Memory
	Tracker   *tasks.Tracker
	Clientset *fake.Clientset
	Artifacts fakeArtifacts
	Deps      *provisioning.Dependencies
}

func fastTimeouts() *config.Timeouts {
	return &config.Timeouts{
		Command:          time.Second,
		Apply:            time.Second,
		VolumeBound:      200 * time.Millisecond,
		PodReady:         200 * time.Millisecond,
		Import:           time.Second,
		PollInterval:     10 * time.Millisecond,
		EndpointAttempts: 3,
		EndpointInterval: 10 * time.Millisecond,
		DialTimeout:      time.Second,
	}
}

func newHarness(tempDir string) *harness {
	remote := testutil.NewFakeRemote()
	remote.On("cat ", testutil.Reply{Output: testutil.Kubeconfig("127.0.0.1")})

	h := &harness{
		Remote:    remote,
		Connector: &testutil.FakeConnector{Remote: remote},
		Store:     store.NewMemory(),
		Tracker:   tasks.NewTracker(),
		Clientset: fake.NewSimpleClientset(),
		Artifacts: fakeArtifacts{},
	}

	resolver := kube.NewResolver("/etc/rancher/k3s/k3s.yaml", "203.0.113.1")
	resolver.TempDir = tempDir

	h.Deps = &provisioning.Dependencies{
		Store:       h.Store,
		Tracker:     h.Tracker,
		Connector:   h.Connector,
		Credentials: resolver,
		NewInspector: func(*kube.Credentials) (kube.Inspector, error) {
			return kube.NewInspector(h.Clientset), nil
		},
		Artifacts:        h.Artifacts,
		Timeouts:         fastTimeouts(),
		Limits:           config.LimitsConfig{MaxReplicas: 3, MaxCapacityGi: 10},
		RemoteDir:        "/var/lib/k8zdb",
		DefaultNamespace: "default",
		Observer:         provisioning.NewConsoleObserver(logr.Discard()),
	}
	return h
}

func (h *harness) orchestrator() *provisioning.Orchestrator {
	gen := workload.NewIdentityGenerator(h.Store, workload.WithTokenSource(func() string { return testToken }))
	o, err := provisioning.NewOrchestrator(h.Deps, gen)
	if err != nil {
		panic(err)
	}
	return o
}

func names(kind workload.Kind) workload.Names {
	return workload.Identity(testToken).Names(workload.MustLookup(kind))
}

// withClaim adds the workload claim in the given phase.
func (h *harness) withClaim(ns string, kind workload.Kind, phase corev1.PersistentVolumeClaimPhase) *harness {
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: names(kind).Claim, Namespace: ns},
		Status:     corev1.PersistentVolumeClaimStatus{Phase: phase},
	}
	_ = h.Clientset.Tracker().Add(pvc)
	return h
}

// withPod adds the workload pod with the given Ready condition.
func (h *harness) withPod(ns string, kind workload.Kind, ready bool) *harness {
	status := corev1.ConditionFalse
	if ready {
		status = corev1.ConditionTrue
	}
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: names(kind).Pod, Namespace: ns},
		Status: corev1.PodStatus{
			Phase:      corev1.PodRunning,
			Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: status}},
		},
	}
	_ = h.Clientset.Tracker().Add(pod)
	return h
}

// withService adds the workload service, with an ingress IP when ip is set.
func (h *harness) withService(ns string, kind workload.Kind, ip string) *harness {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: names(kind).Service, Namespace: ns},
	}
	if ip != "" {
		svc.Status.LoadBalancer.Ingress = []corev1.LoadBalancerIngress{{IP: ip}}
	}
	_ = h.Clientset.Tracker().Add(svc)
	return h
}

// healthy makes every poll succeed on the first attempt.
func (h *harness) healthy(ns string, kind workload.Kind) *harness {
	return h.withClaim(ns, kind, corev1.ClaimBound).withPod(ns, kind, true).withService(ns, kind, "203.0.113.7")
}

// logs returns the joined task log.
func (h *harness) logs(id tasks.ID) string {
	snap, ok := h.Tracker.Snapshot(id)
	if !ok {
		return ""
	}
	return strings.Join(snap.Logs, "\n")
}

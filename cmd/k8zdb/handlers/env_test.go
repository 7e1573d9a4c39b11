package handlers

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
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

const (
	testToken = "abcd1234"
	testNS    = "tenant-a"
)

// testEnv is an App backed by a scripted host and a fake cluster.
type testEnv struct {
	remote    *testutil.FakeRemote
	connector *testutil.FakeConnector
	store     *store.Memory
	tracker   *tasks.Tracker
	clientset *fake.Clientset
	app       *App
	out       *bytes.Buffer
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Host: config.HostConfig{Name: "db-host", Address: "203.0.113.1", PrivateKeyPath: "/dev/null"},
	}
	cfg.ApplyDefaults()
	cfg.Limits = config.LimitsConfig{MaxReplicas: 3, MaxCapacityGi: 10}
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	remote := testutil.NewFakeRemote()
	remote.On("cat ", testutil.Reply{Output: testutil.Kubeconfig("127.0.0.1")})

	e := &testEnv{
		remote:    remote,
		connector: &testutil.FakeConnector{Remote: remote},
		store:     store.NewMemory(),
		tracker:   tasks.NewTracker(),
		clientset: fake.NewSimpleClientset(),
		out:       &bytes.Buffer{},
	}

	resolver := kube.NewResolver("/etc/rancher/k3s/k3s.yaml", "203.0.113.1")
	resolver.TempDir = t.TempDir()

	cfg := testConfig()
	deps := &provisioning.Dependencies{
		Store:       e.store,
		Tracker:     e.tracker,
		Connector:   e.connector,
		Credentials: resolver,
		NewInspector: func(*kube.Credentials) (kube.Inspector, error) {
			return kube.NewInspector(e.clientset), nil
		},
		Artifacts: &artifact.Fetcher{},
		Timeouts: &config.Timeouts{
			Command:          time.Second,
			Apply:            time.Second,
			VolumeBound:      200 * time.Millisecond,
			PodReady:         200 * time.Millisecond,
			Import:           time.Second,
			PollInterval:     10 * time.Millisecond,
			EndpointAttempts: 3,
			EndpointInterval: 10 * time.Millisecond,
			DialTimeout:      time.Second,
		},
		Limits:           cfg.Limits,
		RemoteDir:        cfg.RemoteDir,
		DefaultNamespace: cfg.DefaultNamespace,
		Observer:         provisioning.NewConsoleObserver(logr.Discard()),
	}

	app, err := NewApp(cfg, deps)
	require.NoError(t, err)
	gen := workload.NewIdentityGenerator(e.store, workload.WithTokenSource(func() string { return testToken }))
	app.Orchestrator, err = provisioning.NewOrchestrator(deps, gen)
	require.NoError(t, err)
	e.app = app
	return e
}

// install routes the package factories to the env until the test ends.
func (e *testEnv) install(t *testing.T) *testEnv {
	t.Helper()
	origApp, origOut, origTTY := newApp, stdout, isInteractive
	t.Cleanup(func() {
		newApp, stdout, isInteractive = origApp, origOut, origTTY
	})
	newApp = func(context.Context, string) (*App, error) { return e.app, nil }
	stdout = e.out
	isInteractive = func() bool { return false }
	return e
}

// healthy makes the cluster report the workload bound, ready and exposed.
func (e *testEnv) healthy(kind workload.Kind) *testEnv {
	names := workload.Identity(testToken).Names(workload.MustLookup(kind))
	_ = e.clientset.Tracker().Add(&corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: names.Claim, Namespace: testNS},
		Status:     corev1.PersistentVolumeClaimStatus{Phase: corev1.ClaimBound},
	})
	_ = e.clientset.Tracker().Add(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: names.Pod, Namespace: testNS},
		Status: corev1.PodStatus{
			Phase:      corev1.PodRunning,
			Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: corev1.ConditionTrue}},
		},
	})
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Name: names.Service, Namespace: testNS}}
	svc.Status.LoadBalancer.Ingress = []corev1.LoadBalancerIngress{{IP: "203.0.113.7"}}
	_ = e.clientset.Tracker().Add(svc)
	return e
}

// seed stores a record for the test identity.
func (e *testEnv) seed(t *testing.T, status workload.Status, replicas int32) *workload.Record {
	t.Helper()
	rec := testutil.NewRecordBuilder(testToken, testutil.NewSpecBuilder().Build()).
		WithStatus(status).
		WithReplicas(replicas).
		Build()
	require.NoError(t, e.store.Create(context.Background(), rec))
	return rec
}

// waitTask blocks until the task finishes.
func (e *testEnv) waitTask(t *testing.T, id tasks.ID) tasks.Snapshot {
	t.Helper()
	var snap tasks.Snapshot
	require.Eventually(t, func() bool {
		var ok bool
		snap, ok = e.tracker.Snapshot(id)
		return ok && snap.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

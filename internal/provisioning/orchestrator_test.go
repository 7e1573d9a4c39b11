package provisioning_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	"github.com/imamik/k8zdb/internal/artifact"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/tasks"
	testutil "github.com/imamik/k8zdb/internal/testing"
	"github.com/imamik/k8zdb/internal/util/retry"
	"github.com/imamik/k8zdb/internal/workload"
)

const ns = "tenant-a"

func TestRun_NoDataFileReachesRunning(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)

	res, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.NoError(t, err)

	assert.Equal(t, workload.Identity(testToken), res.Identity)
	assert.Equal(t, workload.StatusRunning, res.Record.Status)
	assert.Equal(t, "203.0.113.7", res.Record.Endpoint)
	assert.Equal(t, int32(5432), res.Record.Port)
	assert.Nil(t, res.Warning)

	assert.Zero(t, h.Remote.Calls("'cp'"))
	assert.Zero(t, h.Remote.Calls("psql"))
	assert.Equal(t, 1, h.Remote.Calls("'apply'"))
	assert.Equal(t, 1, h.Remote.Closed())
	assert.Equal(t, 1, h.Connector.Calls())

	stored, err := h.Store.Get(testutil.TestContext(t), res.Identity)
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, stored.Status)
	assert.Empty(t, stored.Spec.Password)
	assert.Equal(t, "/var/lib/k8zdb/pg-abcd1234/manifest.yaml", stored.ManifestPath)

	snap, ok := h.Tracker.Snapshot(res.TaskID)
	require.True(t, ok)
	assert.Equal(t, tasks.StatusCompleted, snap.Status)
	assert.Equal(t, tasks.InstallSteps, snap.Step)
	assert.Equal(t, 100, snap.Progress)
}

func TestRun_ManifestUploadedWithoutPasswordInCommands(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	spec := testutil.NewSpecBuilder().WithCredentials("app", "app", "s3cr'et").Build()

	_, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.NoError(t, err)

	data, ok := h.Remote.Uploaded("/var/lib/k8zdb/pg-abcd1234/manifest.yaml")
	require.True(t, ok)
	assert.Contains(t, string(data), "kind: StatefulSet")
	for _, cmd := range h.Remote.Commands() {
		assert.NotContains(t, cmd, "s3cr")
	}
}

func TestRun_ValidationErrorHasNoRemoteEffect(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir())
	spec := testutil.NewSpecBuilder().WithNamespace("").Build()

	_, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.Error(t, err)
	assert.True(t, workload.IsValidation(err))

	assert.Zero(t, h.Connector.Calls())
	assert.Empty(t, h.Remote.Commands())
	assert.Empty(t, h.Tracker.List())
	list, err := h.Store.List(testutil.TestContext(t))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRun_ExistingNamespaceIsNotCreated(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)

	_, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Remote.Calls("'get' 'namespace'"))
	assert.Zero(t, h.Remote.Calls("'create' 'namespace'"))
}

func TestRun_MissingNamespaceIsCreated(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	h.Remote.On("'get' 'namespace'", testutil.Reply{ExitCode: 1, Output: "NotFound"})

	_, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Remote.Calls("'create' 'namespace'"))
}

func TestRun_NamespaceCreateRaceIsSuccess(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	h.Remote.On("'get' 'namespace'", testutil.Reply{ExitCode: 1})
	h.Remote.On("'create' 'namespace'", testutil.Reply{ExitCode: 1, Output: `Error from server (AlreadyExists): namespaces "tenant-a" already exists`})

	res, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, res.Record.Status)
}

func TestRun_ApplyTimeoutFailsAtApplyStep(t *testing.T) {
	t.Parallel()
	credDir := t.TempDir()
	h := newHarness(credDir)
	h.Remote.On("'apply'", testutil.Reply{Err: &ssh.TimeoutError{Host: "fake", Command: "kubectl apply", Timeout: time.Second}})

	res, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.Error(t, err)
	assert.True(t, ssh.IsTimeout(err))
	assert.Equal(t, 3, provisioning.FailedStep(err))

	assert.Equal(t, workload.StatusError, res.Record.Status)
	stored, err := h.Store.Get(testutil.TestContext(t), res.Identity)
	require.NoError(t, err)
	assert.Equal(t, workload.StatusError, stored.Status)
	assert.Contains(t, stored.Error, "manifest-applied")

	snap, _ := h.Tracker.Snapshot(res.TaskID)
	assert.Equal(t, tasks.StatusFailed, snap.Status)
	assert.Equal(t, 3, snap.Step)

	assert.Equal(t, 1, h.Remote.Closed())
	entries, err := os.ReadDir(credDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "credentials file must be removed")
}

func TestRun_VolumeNeverBound(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).withClaim(ns, workload.KindPostgreSQL, corev1.ClaimPending)
	timeouts := h.Deps.Timeouts

	start := time.Now()
	res, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	elapsed := time.Since(start)
	require.Error(t, err)

	var deadline *retry.DeadlineExceededError
	require.ErrorAs(t, err, &deadline)
	assert.Contains(t, deadline.What, "data-pg-abcd1234-0")
	assert.Equal(t, "phase Pending", deadline.LastState)
	assert.Equal(t, 4, provisioning.FailedStep(err))
	assert.Equal(t, workload.StatusError, res.Record.Status)
	assert.Less(t, elapsed, timeouts.VolumeBound+timeouts.PollInterval+time.Second)
}

func TestRun_PodNeverReady(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).
		withClaim(ns, workload.KindPostgreSQL, corev1.ClaimBound).
		withPod(ns, workload.KindPostgreSQL, false)

	_, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.Error(t, err)
	assert.True(t, retry.IsDeadlineExceeded(err))
	assert.Equal(t, 5, provisioning.FailedStep(err))
}

func TestRun_EndpointFallsBackToClusterDNS(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).
		withClaim(ns, workload.KindPostgreSQL, corev1.ClaimBound).
		withPod(ns, workload.KindPostgreSQL, true).
		withService(ns, workload.KindPostgreSQL, "")

	res, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, res.Record.Status)
	assert.Equal(t, "pg-abcd1234-svc.tenant-a.svc.cluster.local", res.Record.Endpoint)
	assert.Contains(t, h.logs(res.TaskID), "no external address assigned")
}

func TestRun_ImportsPlainSQLFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	h.Artifacts["/data/dump.sql"] = "CREATE TABLE t (id int);"
	spec := testutil.NewSpecBuilder().WithDataFile("/data/dump.sql").Build()

	res, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.NoError(t, err)
	assert.Nil(t, res.Warning)

	uploaded, ok := h.Remote.Uploaded("/var/lib/k8zdb/pg-abcd1234/upload/dump.sql")
	require.True(t, ok)
	assert.Equal(t, "CREATE TABLE t (id int);", string(uploaded))

	assert.Equal(t, 1, h.Remote.Calls("'cp' '/var/lib/k8zdb/pg-abcd1234/upload/dump.sql'"))
	assert.Equal(t, 1, h.Remote.Calls("psql"))
	assert.Equal(t, 1, h.Remote.Calls("rm '-rf'"))
	assert.Equal(t, 2, h.Remote.Calls("'exec'"), "import and in-pod cleanup")

	stored, err := h.Store.Get(testutil.TestContext(t), res.Identity)
	require.NoError(t, err)
	assert.Empty(t, stored.ArtifactPaths)
}

func TestRun_ImportFailureIsWarning(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindMySQL)
	h.Artifacts["/data/dump.sql"] = "garbage"
	h.Remote.On("'exec'", testutil.Reply{ExitCode: 1, Output: "ERROR 1064 (42000): syntax error"})
	spec := testutil.NewSpecBuilder().WithKind(workload.KindMySQL).WithDataFile("/data/dump.sql").Build()

	res, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, res.Record.Status)
	require.NotNil(t, res.Warning)
	assert.True(t, ssh.IsCommandError(res.Warning))

	assert.Equal(t, 1, h.Remote.Calls("rm '-rf'"), "uploads are removed on failure too")
	assert.Equal(t, 2, h.Remote.Calls("'exec'"))
	assert.Contains(t, h.logs(res.TaskID), "WARNING")

	snap, _ := h.Tracker.Snapshot(res.TaskID)
	assert.Equal(t, tasks.StatusCompleted, snap.Status)
}

func TestRun_ArchiveWithoutImportFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	h.Artifacts["/data/dump.zip"] = "PK"
	h.Remote.On("find ", testutil.Reply{Output: "/var/lib/k8zdb/pg-abcd1234/extracted/__MACOSX/._dump.sql\n"})
	spec := testutil.NewSpecBuilder().WithDataFile("/data/dump.zip").Build()

	res, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, res.Record.Status)
	assert.Equal(t, []string{artifact.NoticeNoImportFile}, res.Notices)
	assert.Contains(t, h.logs(res.TaskID), artifact.NoticeNoImportFile)
	assert.Zero(t, h.Remote.Calls("psql"))
	assert.Equal(t, 1, h.Remote.Calls("unzip"))
	assert.Equal(t, 1, h.Remote.Calls("rm '-rf'"))
}

func TestRun_CorruptArchiveIsNotFatal(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	h.Artifacts["/data/dump.tar.gz"] = "not gzip"
	h.Remote.On("tar -xzf", testutil.Reply{ExitCode: 2, Output: "gzip: stdin: not in gzip format"})
	spec := testutil.NewSpecBuilder().WithDataFile("/data/dump.tar.gz").Build()

	res, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, res.Record.Status)
	assert.Equal(t, []string{artifact.NoticeNoImportFile}, res.Notices)
	assert.Zero(t, h.Remote.Calls("find "))
}

func TestRun_ArchiveImportsSingleFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	h.Artifacts["/data/dump.zip"] = "PK"
	h.Remote.On("find ", testutil.Reply{Output: "/var/lib/k8zdb/pg-abcd1234/extracted/__MACOSX/._dump.sql\n/var/lib/k8zdb/pg-abcd1234/extracted/dump.sql\n"})
	spec := testutil.NewSpecBuilder().WithDataFile("/data/dump.zip").Build()

	res, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.NoError(t, err)
	assert.Empty(t, res.Notices)
	assert.Equal(t, 1, h.Remote.Calls("'cp' '/var/lib/k8zdb/pg-abcd1234/extracted/dump.sql'"))
	assert.Equal(t, 1, h.Remote.Calls("psql"))
}

func TestRun_MissingDataFileFailsAtArtifactStep(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)
	spec := testutil.NewSpecBuilder().WithDataFile("/data/missing.sql").Build()

	res, err := h.orchestrator().Run(testutil.TestContext(t), spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 2, provisioning.FailedStep(err))
	assert.Equal(t, workload.StatusError, res.Record.Status)
}

func TestRun_ConnectFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir())
	h.Connector.Err = &ssh.ConnectError{Addr: "203.0.113.1:22", Attempts: 1, Err: errors.New("connection refused")}

	res, err := h.orchestrator().Run(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.Error(t, err)
	assert.True(t, ssh.IsConnectionError(err))
	assert.Equal(t, 0, provisioning.FailedStep(err))
	assert.Equal(t, workload.StatusError, res.Record.Status)

	snap, _ := h.Tracker.Snapshot(res.TaskID)
	assert.Equal(t, tasks.StatusFailed, snap.Status)
}

func TestStart_ReturnsBeforeWorkCompletes(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir()).healthy(ns, workload.KindPostgreSQL)

	handle, err := h.orchestrator().Start(testutil.TestContext(t), testutil.NewSpecBuilder().Build())
	require.NoError(t, err)
	assert.Equal(t, workload.Identity(testToken), handle.Identity)

	require.Eventually(t, func() bool {
		snap, ok := h.Tracker.Snapshot(handle.TaskID)
		return ok && snap.Done()
	}, 5*time.Second, 10*time.Millisecond)

	snap, _ := h.Tracker.Snapshot(handle.TaskID)
	assert.Equal(t, tasks.StatusCompleted, snap.Status)

	rec, err := h.Store.Get(testutil.TestContext(t), handle.Identity)
	require.NoError(t, err)
	assert.Equal(t, workload.StatusRunning, rec.Status)
}

func TestStart_ValidationErrorIsSynchronous(t *testing.T) {
	t.Parallel()
	h := newHarness(t.TempDir())
	spec := testutil.NewSpecBuilder().WithKind("cassandra").Build()

	_, err := h.orchestrator().Start(testutil.TestContext(t), spec)
	require.Error(t, err)
	assert.True(t, workload.IsValidation(err))
	assert.Empty(t, h.Tracker.List())
}

func TestNewOrchestrator_RequiresDependencies(t *testing.T) {
	t.Parallel()
	_, err := provisioning.NewOrchestrator(&provisioning.Dependencies{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store is required")
}

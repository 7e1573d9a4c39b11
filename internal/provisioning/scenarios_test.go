package provisioning_test

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"

	"github.com/imamik/k8zdb/internal/artifact"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/provisioning"
	"github.com/imamik/k8zdb/internal/tasks"
	testutil "github.com/imamik/k8zdb/internal/testing"
	"github.com/imamik/k8zdb/internal/util/retry"
	"github.com/imamik/k8zdb/internal/workload"
)

var _ = Describe("Provisioning a workload", func() {
	var (
		ctx     context.Context
		credDir string
		h       *harness
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		credDir, err = os.MkdirTemp("", "k8zdb-creds-")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, credDir)
		h = newHarness(credDir)
	})

	Context("relational workload without a data file", func() {
		It("reaches RUNNING with an endpoint and never imports", func() {
			h.healthy(ns, workload.KindPostgreSQL)
			spec := testutil.NewSpecBuilder().WithCapacity(1).Build()

			res, err := h.orchestrator().Run(ctx, spec)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Record.Status).To(Equal(workload.StatusRunning))
			Expect(res.Record.Endpoint).NotTo(BeEmpty())
			Expect(h.Remote.Calls("'cp'")).To(BeZero())
			Expect(h.Remote.Calls("psql")).To(BeZero())
		})
	})

	Context("archive without an import file", func() {
		It("still reaches RUNNING and logs a notice", func() {
			h.healthy(ns, workload.KindMySQL)
			h.Artifacts["/data/export.tgz"] = "tar"
			h.Remote.On("find ", testutil.Reply{Output: ""})
			spec := testutil.NewSpecBuilder().WithKind(workload.KindMySQL).WithDataFile("/data/export.tgz").Build()

			res, err := h.orchestrator().Run(ctx, spec)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Record.Status).To(Equal(workload.StatusRunning))
			Expect(h.logs(res.TaskID)).To(ContainSubstring("NOTICE: " + artifact.NoticeNoImportFile))
			Expect(h.logs(res.TaskID)).NotTo(ContainSubstring("WARNING"))
		})
	})

	Context("namespace already exists", func() {
		It("does not create it again", func() {
			h.healthy(ns, workload.KindPostgreSQL)

			_, err := h.orchestrator().Run(ctx, testutil.NewSpecBuilder().Build())
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Remote.Calls("'create' 'namespace'")).To(BeZero())
		})
	})

	Context("command channel times out during manifest apply", func() {
		It("ends in ERROR with the task failed at the apply step", func() {
			h.Remote.On("'apply'", testutil.Reply{Err: &ssh.TimeoutError{Host: "fake", Command: "kubectl apply", Timeout: time.Second}})

			res, err := h.orchestrator().Run(ctx, testutil.NewSpecBuilder().Build())
			Expect(err).To(HaveOccurred())

			rec, getErr := h.Store.Get(ctx, res.Identity)
			Expect(getErr).NotTo(HaveOccurred())
			Expect(rec.Status).To(Equal(workload.StatusError))

			snap, ok := h.Tracker.Snapshot(res.TaskID)
			Expect(ok).To(BeTrue())
			Expect(snap.Status).To(Equal(tasks.StatusFailed))
			Expect(snap.Step).To(Equal(3))
			Expect(provisioning.Phases()[snap.Step-1].Name()).To(Equal(provisioning.StepManifest))
		})
	})

	Context("claim is never bound", func() {
		It("fails within deadline plus one poll interval", func() {
			h.withClaim(ns, workload.KindPostgreSQL, corev1.ClaimPending)
			bound := h.Deps.Timeouts.VolumeBound + h.Deps.Timeouts.PollInterval + 500*time.Millisecond

			start := time.Now()
			_, err := h.orchestrator().Run(ctx, testutil.NewSpecBuilder().Build())
			Expect(err).To(HaveOccurred())
			Expect(retry.IsDeadlineExceeded(err)).To(BeTrue())
			Expect(time.Since(start)).To(BeNumerically("<", bound))
		})
	})

	Context("service never receives an external address", func() {
		It("falls back to the cluster DNS name", func() {
			h.withClaim(ns, workload.KindMySQL, corev1.ClaimBound).
				withPod(ns, workload.KindMySQL, true).
				withService(ns, workload.KindMySQL, "")
			spec := testutil.NewSpecBuilder().WithKind(workload.KindMySQL).Build()

			res, err := h.orchestrator().Run(ctx, spec)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Record.Endpoint).To(HaveSuffix(".tenant-a.svc.cluster.local"))
			Expect(res.Record.Port).To(BeEquivalentTo(3306))
		})
	})
})

package provisioning

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/imamik/k8zdb/internal/artifact"
	"github.com/imamik/k8zdb/internal/manifest"
	"github.com/imamik/k8zdb/internal/platform/ssh"
	"github.com/imamik/k8zdb/internal/util/naming"
	"github.com/imamik/k8zdb/internal/util/retry"
	"github.com/imamik/k8zdb/internal/util/shell"
	"github.com/imamik/k8zdb/internal/workload"
)

// Step names, in execution order.
const (
	StepNamespace = "namespace-ensured"
	StepArtifact  = "artifact-uploaded"
	StepManifest  = "manifest-applied"
	StepVolume    = "volume-bound"
	StepReady     = "workload-ready"
	StepEndpoint  = "endpoint-resolved"
	StepImport    = "data-imported"
	StepFinalize  = "finalized"
)

// Phases returns the install procedure.
func Phases() []Phase {
	return []Phase{
		namespacePhase{},
		artifactPhase{},
		manifestPhase{},
		volumePhase{},
		readyPhase{},
		endpointPhase{},
		importPhase{},
		finalizePhase{},
	}
}

func commandOutput(err error) string {
	var cmdErr *ssh.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Output
	}
	return ""
}

type namespacePhase struct{}

func (namespacePhase) Name() string { return StepNamespace }

func (namespacePhase) Provision(ctx *Context) error {
	ns := ctx.Spec.Namespace
	res, err := ctx.Remote.Run(ctx, ctx.Kubectl.GetNamespace(ns), ssh.IgnoreExitCode())
	if err != nil {
		return fmt.Errorf("failed to check namespace %s: %w", ns, err)
	}
	if res.ExitCode == 0 {
		LogResourceExists(ctx.Observer, StepNamespace, "namespace", ns)
		return nil
	}

	if _, err := ctx.Remote.Run(ctx, ctx.Kubectl.CreateNamespace(ns)); err != nil {
		// Lost a race with another creator.
		if strings.Contains(commandOutput(err), "AlreadyExists") {
			LogResourceExists(ctx.Observer, StepNamespace, "namespace", ns)
			return nil
		}
		return fmt.Errorf("failed to create namespace %s: %w", ns, err)
	}
	LogResourceCreated(ctx.Observer, StepNamespace, "namespace", ns)
	return nil
}

type artifactPhase struct{}

func (artifactPhase) Name() string { return StepArtifact }

func (artifactPhase) Provision(ctx *Context) error {
	ref := ctx.Spec.DataFile
	if ref == "" {
		ctx.Observer.Printf("No data file supplied, skipping upload")
		return nil
	}
	if ctx.Artifacts == nil {
		return errors.New("a data file was supplied but no artifact source is configured")
	}

	src, err := ctx.Artifacts.Open(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() { _ = src.Body.Close() }()

	uploadPath := path.Join(ctx.Dir, "upload", src.Name)
	if err := ctx.Remote.Upload(ctx, uploadPath, src.Body, 0o600); err != nil {
		return fmt.Errorf("failed to upload data file: %w", err)
	}
	ctx.State.UploadedPaths = append(ctx.State.UploadedPaths, uploadPath)
	ctx.Observer.Printf("Uploaded %s (%d bytes)", src.Name, src.Size)

	file, notice, err := locateImportFile(ctx, src.Name, uploadPath)
	if err != nil {
		return err
	}
	if notice != "" {
		ctx.State.Notices = append(ctx.State.Notices, notice)
		LogNotice(ctx.Observer, StepArtifact, notice)
	} else {
		ctx.Observer.Printf("Located import file %s", file)
	}
	ctx.State.ImportFile = file

	ctx.Record.ArtifactPaths = append([]string(nil), ctx.State.UploadedPaths...)
	return ctx.Save()
}

// locateImportFile returns the import file for an upload, or a notice
// explaining why there is none. Only connection failures are fatal.
func locateImportFile(ctx *Context, name, uploadPath string) (string, string, error) {
	format := artifact.DetectFormat(name)
	if format == artifact.FormatPlain {
		if artifact.IsImportFile(name) {
			return uploadPath, "", nil
		}
		return "", artifact.NoticeNoImportFile, nil
	}

	extractDir := path.Join(ctx.Dir, "extracted")
	ctx.State.UploadedPaths = append(ctx.State.UploadedPaths, extractDir)

	expand, err := artifact.ExpandCommand(format, uploadPath, extractDir)
	if err != nil {
		return "", "", err
	}
	if _, err := ctx.Remote.Run(ctx, expand); err != nil {
		if ssh.IsConnectionError(err) {
			return "", "", fmt.Errorf("failed to expand %s: %w", name, err)
		}
		LogWarning(ctx.Observer, StepArtifact, fmt.Errorf("failed to expand %s: %w", name, err))
		return "", artifact.NoticeNoImportFile, nil
	}

	res, err := ctx.Remote.Run(ctx, artifact.LocateCommand(extractDir), ssh.IgnoreExitCode())
	if err != nil {
		return "", "", fmt.Errorf("failed to list %s: %w", extractDir, err)
	}
	file, notice := artifact.SelectImportFile(artifact.ParseLocate(res.Output))
	return file, notice, nil
}

type manifestPhase struct{}

func (manifestPhase) Name() string { return StepManifest }

func (manifestPhase) Provision(ctx *Context) error {
	data, err := manifest.RenderYAML(ctx.Record.Identity, ctx.Spec)
	if err != nil {
		return fmt.Errorf("failed to render manifest: %w", err)
	}

	manifestPath := path.Join(ctx.Dir, naming.ManifestFile)
	if err := ctx.Remote.Upload(ctx, manifestPath, bytes.NewReader(data), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	ctx.Record.ManifestPath = manifestPath

	_, err = ctx.Remote.Run(ctx, ctx.Kubectl.Apply(manifestPath),
		ssh.WithTimeout(ctx.Timeouts.Apply),
		ssh.WithLineHandler(func(line string) { ctx.Observer.Printf("%s", line) }),
	)
	if err != nil {
		return fmt.Errorf("failed to apply manifest: %w", err)
	}
	return ctx.Save()
}

type volumePhase struct{}

func (volumePhase) Name() string { return StepVolume }

func (volumePhase) Provision(ctx *Context) error {
	ns, claim := ctx.Spec.Namespace, ctx.Names.Claim
	cfg := retry.PollConfig{
		What:     fmt.Sprintf("claim %s/%s to be bound", ns, claim),
		Interval: ctx.Timeouts.PollInterval,
		Timeout:  ctx.Timeouts.VolumeBound,
	}
	err := retry.Poll(ctx, cfg, func(c context.Context) (bool, string, error) {
		phase, err := ctx.Inspector.ClaimPhase(c, ns, claim)
		if err != nil {
			return false, "", err
		}
		if phase == "" {
			return false, "claim not created", nil
		}
		return phase == corev1.ClaimBound, "phase " + string(phase), nil
	})
	if err != nil {
		return err
	}
	ctx.Observer.Printf("Claim %s is bound", claim)
	return nil
}

type readyPhase struct{}

func (readyPhase) Name() string { return StepReady }

func (readyPhase) Provision(ctx *Context) error {
	ns, pod := ctx.Spec.Namespace, ctx.Names.Pod
	cfg := retry.PollConfig{
		What:     fmt.Sprintf("pod %s/%s to be ready", ns, pod),
		Interval: ctx.Timeouts.PollInterval,
		Timeout:  ctx.Timeouts.PodReady,
	}
	err := retry.Poll(ctx, cfg, func(c context.Context) (bool, string, error) {
		return ctx.Inspector.PodReady(c, ns, pod)
	})
	if err != nil {
		return err
	}
	ctx.Observer.Printf("Pod %s is ready", pod)
	return nil
}

type endpointPhase struct{}

func (endpointPhase) Name() string { return StepEndpoint }

func (endpointPhase) Provision(ctx *Context) error {
	ns, svc := ctx.Spec.Namespace, ctx.Names.Service
	cfg := retry.PollConfig{
		What:     fmt.Sprintf("external address of service %s/%s", ns, svc),
		Interval: ctx.Timeouts.EndpointInterval,
		Attempts: ctx.Timeouts.EndpointAttempts,
	}

	var address string
	err := retry.Poll(ctx, cfg, func(c context.Context) (bool, string, error) {
		addr, err := ctx.Inspector.ServiceAddress(c, ns, svc)
		if err != nil {
			return false, "", err
		}
		if addr == "" {
			return false, "no load balancer ingress", nil
		}
		address = addr
		return true, addr, nil
	})

	switch {
	case err == nil:
		ctx.Observer.Printf("External address %s assigned", address)
	case retry.IsDeadlineExceeded(err):
		address = naming.ServiceDNS(ctx.Info.Prefix, string(ctx.Record.Identity), ns)
		LogNotice(ctx.Observer, StepEndpoint, fmt.Sprintf("no external address assigned, using %s", address))
	default:
		return err
	}

	ctx.Record.Endpoint = address
	ctx.Record.Port = ctx.Info.Port
	return ctx.Save()
}

type importPhase struct{}

func (importPhase) Name() string { return StepImport }

func (importPhase) Provision(ctx *Context) error {
	defer removeUploads(ctx)

	file := ctx.State.ImportFile
	if file == "" || !ctx.Info.SupportsImport() {
		ctx.Observer.Printf("Nothing to import")
		return nil
	}

	if warning := importData(ctx, file); warning != nil {
		ctx.State.Warning = warning
		LogWarning(ctx.Observer, StepImport, warning)
		return nil
	}
	ctx.Observer.Printf("Imported %s", path.Base(file))
	return nil
}

// importData copies file into the workload pod and runs the kind's import
// client on it. The in-pod copy is always removed.
func importData(ctx *Context, file string) *ImportWarning {
	ns, pod := ctx.Spec.Namespace, ctx.Names.Pod
	container := string(ctx.Info.Kind)
	podPath := fmt.Sprintf("/tmp/k8zdb-import-%s%s", ctx.Record.Identity, artifact.ImportExtension)
	warn := func(err error) *ImportWarning {
		return &ImportWarning{Identity: ctx.Record.Identity, File: path.Base(file), Err: err}
	}

	defer func() {
		rm := ctx.Kubectl.Exec(ns, pod, container, shell.Command("rm", "-f", podPath))
		if _, err := ctx.Remote.Run(ctx, rm, ssh.IgnoreExitCode()); err != nil {
			ctx.Observer.Printf("Failed to remove %s from pod %s: %v", podPath, pod, err)
		}
	}()

	copyCmd := ctx.Kubectl.Copy(file, ns, pod, container, podPath)
	if _, err := ctx.Remote.Run(ctx, copyCmd, ssh.WithTimeout(ctx.Timeouts.Import)); err != nil {
		return warn(fmt.Errorf("copy into pod: %w", err))
	}

	script, err := ImportScript(ctx.Info.Kind, podPath)
	if err != nil {
		return warn(err)
	}
	_, err = ctx.Remote.Run(ctx, ctx.Kubectl.Exec(ns, pod, container, script),
		ssh.WithTimeout(ctx.Timeouts.Import),
		ssh.WithLineHandler(func(line string) { ctx.Observer.Printf("%s", line) }),
	)
	if err != nil {
		return warn(err)
	}
	return nil
}

// removeUploads deletes uploaded and extracted files on the host.
func removeUploads(ctx *Context) {
	if len(ctx.State.UploadedPaths) == 0 {
		return
	}
	args := append([]string{"-rf", "--"}, ctx.State.UploadedPaths...)
	if _, err := ctx.Remote.Run(ctx, shell.Command("rm", args...), ssh.IgnoreExitCode()); err != nil {
		ctx.Observer.Printf("Failed to remove uploaded files: %v", err)
		return
	}
	ctx.State.UploadedPaths = nil
	ctx.Record.ArtifactPaths = nil
}

type finalizePhase struct{}

func (finalizePhase) Name() string { return StepFinalize }

func (finalizePhase) Provision(ctx *Context) error {
	if err := ctx.Record.Transition(workload.StatusRunning, ctx.Now()); err != nil {
		return err
	}
	if err := ctx.Save(); err != nil {
		return err
	}
	ctx.Observer.Printf("Workload %s running at %s:%d", ctx.Record.Identity, ctx.Record.Endpoint, ctx.Record.Port)
	return nil
}

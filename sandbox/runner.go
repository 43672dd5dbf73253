package sandbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edukit/execbox/config"
	"github.com/edukit/execbox/language"
	"github.com/edukit/execbox/workspace"
)

// containerWorkdir is where the workspace is bind-mounted inside the
// container; it is the only writable language-specific mount.
const containerWorkdir = "/workdir"

// healthProbeTimeout bounds the runtime availability check.
const healthProbeTimeout = 5 * time.Second

// Config holds the container invocation limits.
type Config struct {
	Runtime     string
	MemoryMB    int
	CPUs        float64
	TmpfsSizeMB int
}

// Runner builds and launches the sandboxed container invocation for the
// compile and run phases.
type Runner struct {
	logger *zap.Logger
	cfg    Config
	proc   ProcessRunner
}

// RunnerOption defines a functional option for Runner
type RunnerOption func(*Runner)

// WithProcessRunner sets the ProcessRunner for the Runner
func WithProcessRunner(proc ProcessRunner) RunnerOption {
	return func(r *Runner) {
		r.proc = proc
	}
}

// NewRunner creates a Runner with the given limits.
func NewRunner(logger *zap.Logger, cfg Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: logger,
		cfg:    cfg,
		proc:   ExecRunner{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromConfig builds the runner out of the loaded configuration.
func FromConfig(logger *zap.Logger, cfg *config.Config) *Runner {
	return NewRunner(logger, Config{
		Runtime:     cfg.Sandbox.Runtime,
		MemoryMB:    cfg.Sandbox.MemoryMB,
		CPUs:        cfg.Sandbox.CPUs,
		TmpfsSizeMB: cfg.Sandbox.TmpfsSizeMB,
	})
}

// Compile runs the profile's compile command inside the sandbox. Only
// invoked for profiles that define a compile step.
func (r *Runner) Compile(ctx context.Context, ws *workspace.Workspace, profile language.Profile, timeout time.Duration) Outcome {
	return r.invoke(ctx, ws, profile, profile.CompileCmd, "", timeout)
}

// Run executes the profile's run command inside the sandbox, feeding the
// supplied stdin to the process.
func (r *Runner) Run(ctx context.Context, ws *workspace.Workspace, profile language.Profile, stdin string, timeout time.Duration) Outcome {
	return r.invoke(ctx, ws, profile, profile.RunCmd, stdin, timeout)
}

// Healthy reports whether the container runtime is reachable, used to
// short-circuit before attempting any launch.
func (r *Runner) Healthy(ctx context.Context) bool {
	outcome := r.proc.Run(ctx, ProcessSpec{
		Args:    []string{r.cfg.Runtime, "info"},
		Timeout: healthProbeTimeout,
	})
	return outcome.Err == nil && !outcome.TimedOut && outcome.ExitCode == 0
}

func (r *Runner) invoke(ctx context.Context, ws *workspace.Workspace, profile language.Profile, cmd []string, stdin string, timeout time.Duration) Outcome {
	containerName := fmt.Sprintf("execbox-%s", ws.ID)
	args := r.invocationArgs(containerName, ws, profile, cmd, stdin != "")

	r.logger.Debug("launching sandbox",
		zap.String("container", containerName),
		zap.String("language", profile.Language),
		zap.String("image", profile.Image),
		zap.Duration("timeout", timeout))

	outcome := r.proc.Run(ctx, ProcessSpec{Args: args, Stdin: stdin, Timeout: timeout})

	if outcome.TimedOut {
		// The CLI process was killed; make sure the container itself is
		// gone too before reporting the phase as terminated.
		r.removeContainer(containerName)
	}

	return outcome
}

// invocationArgs assembles the container invocation. The flag set is the
// sandbox boundary: ephemeral, no network, capped memory and CPU, non-root
// user, read-only root filesystem, scratch /tmp, and the workspace as the
// sole writable bind mount and working directory.
func (r *Runner) invocationArgs(containerName string, ws *workspace.Workspace, profile language.Profile, cmd []string, interactive bool) []string {
	args := []string{
		r.cfg.Runtime, "run",
		"--name", containerName,
		"--rm",
		"--network", "none",
		"--memory", fmt.Sprintf("%dm", r.cfg.MemoryMB),
		"--memory-swap", fmt.Sprintf("%dm", r.cfg.MemoryMB),
		"--cpus", fmt.Sprintf("%g", r.cfg.CPUs),
		"--user", "nobody",
		"--read-only",
		"--tmpfs", fmt.Sprintf("/tmp:rw,size=%dm", r.cfg.TmpfsSizeMB),
		"--security-opt", "no-new-privileges:true",
		"--cap-drop", "ALL",
		"-v", fmt.Sprintf("%s:%s", ws.Dir, containerWorkdir),
		"--workdir", containerWorkdir,
	}
	if interactive {
		args = append(args, "-i")
	}
	args = append(args, profile.Image)
	args = append(args, cmd...)
	return args
}

// removeContainer force-removes a container left behind by a timed-out
// phase. Best effort; a failure is logged and the result stands.
func (r *Runner) removeContainer(containerName string) {
	outcome := r.proc.Run(context.Background(), ProcessSpec{
		Args:    []string{r.cfg.Runtime, "rm", "-f", containerName},
		Timeout: healthProbeTimeout,
	})
	if outcome.Err != nil {
		r.logger.Warn("failed to remove container after timeout",
			zap.String("container", containerName),
			zap.Error(outcome.Err))
	}
}

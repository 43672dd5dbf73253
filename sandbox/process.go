package sandbox

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// drainJoinTimeout bounds how long the parent waits for the stream drain
// goroutines after the process has exited. It guards the main path against
// a misbehaving drain; it is not the execution timeout.
const drainJoinTimeout = time.Second

// ProcessSpec describes one sandboxed process invocation.
type ProcessSpec struct {
	Args    []string
	Stdin   string
	Timeout time.Duration
}

// Outcome captures the raw result of one compile or run phase.
type Outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration

	// Err is set only for infrastructure failures (process could not be
	// started, runtime unavailable), never for non-zero exits or timeouts.
	Err error
}

// ProcessRunner abstracts process invocation so tests can substitute fakes.
type ProcessRunner interface {
	Run(ctx context.Context, spec ProcessSpec) Outcome
}

// ExecRunner implements ProcessRunner using real processes.
type ExecRunner struct{}

// Run starts the process, drains stdout and stderr on independent
// goroutines from the moment it starts, writes and closes stdin, then
// blocks on exit up to the timeout. On expiry the whole process group is
// killed with no grace period.
func (ExecRunner) Run(ctx context.Context, spec ProcessSpec) Outcome {
	if len(spec.Args) == 0 {
		return Outcome{Err: fmt.Errorf("no command provided")}
	}

	cmd := exec.Command(spec.Args[0], spec.Args[1:]...) //nolint:gosec // Args are built from the static profile table

	// Own process group, so the timeout kill reaches descendants that
	// would otherwise survive the direct child and hold the pipes open.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// os.Pipe rather than StdoutPipe: the parent owns the read ends, so
	// waiting for process exit never races the drain goroutines.
	outR, outW, err := os.Pipe()
	if err != nil {
		return Outcome{Err: fmt.Errorf("create stdout pipe: %w", err)}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return Outcome{Err: fmt.Errorf("create stderr pipe: %w", err)}
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	var stdinPipe io.WriteCloser
	if spec.Stdin != "" {
		stdinPipe, err = cmd.StdinPipe()
		if err != nil {
			closeAll(outR, outW, errR, errW)
			return Outcome{Err: fmt.Errorf("create stdin pipe: %w", err)}
		}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		closeAll(outR, outW, errR, errW)
		return Outcome{Err: fmt.Errorf("start process: %w", err)}
	}

	// The child holds its own copies of the write ends now.
	outW.Close()
	errW.Close()

	// Drain both streams concurrently; a child that fills either pipe
	// while nothing reads it would deadlock against its own parent.
	stdoutDrain := drainLines(outR)
	stderrDrain := drainLines(errR)

	// Write stdin then close. The contract is write-then-close; no
	// guarantee the child consumed it before the close.
	if stdinPipe != nil {
		go func() {
			_, _ = io.WriteString(stdinPipe, spec.Stdin)
			_ = stdinPipe.Close()
		}()
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(spec.Timeout)
	defer timer.Stop()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		killProcessGroup(cmd)
		waitErr = <-done
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		closeAll(outR, errR)
		return Outcome{Duration: time.Since(start), Err: ctx.Err()}
	}
	duration := time.Since(start)

	stdout := stdoutDrain.join(drainJoinTimeout)
	stderr := stderrDrain.join(drainJoinTimeout)
	outR.Close()
	errR.Close()

	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else if !timedOut {
			return Outcome{
				Stdout:   stdout,
				Stderr:   stderr,
				Duration: duration,
				Err:      fmt.Errorf("wait for process: %w", waitErr),
			}
		} else {
			exitCode = -1
		}
	}

	return Outcome{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		TimedOut: timedOut,
		Duration: duration,
	}
}

// killProcessGroup terminates the child and everything it spawned. The
// negative pid targets the whole group; the plain kill is the fallback for
// a child that died before the group signal landed.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

// streamDrain accumulates one stream's line-delimited text on its own
// goroutine. The text read so far is available at any moment, so a drain
// that never reaches EOF still yields everything captured before the join
// deadline.
type streamDrain struct {
	mu   sync.Mutex
	sb   strings.Builder
	done chan struct{}
}

func drainLines(r io.Reader) *streamDrain {
	d := &streamDrain{done: make(chan struct{})}
	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			d.mu.Lock()
			d.sb.WriteString(scanner.Text())
			d.sb.WriteByte('\n')
			d.mu.Unlock()
		}
		close(d.done)
	}()
	return d
}

// join waits for EOF up to the given bound and returns the accumulated
// text either way. The bound keeps the main path from hanging; it never
// discards what was already drained.
func (d *streamDrain) join(timeout time.Duration) string {
	select {
	case <-d.done:
	case <-time.After(timeout):
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sb.String()
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

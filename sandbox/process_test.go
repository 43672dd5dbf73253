package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCapturesStreams(t *testing.T) {
	runner := ExecRunner{}

	t.Run("Stdout", func(t *testing.T) {
		outcome := runner.Run(context.Background(), ProcessSpec{
			Args:    []string{"sh", "-c", "echo hello"},
			Timeout: 5 * time.Second,
		})
		require.NoError(t, outcome.Err)
		assert.Equal(t, "hello\n", outcome.Stdout)
		assert.Empty(t, outcome.Stderr)
		assert.Equal(t, 0, outcome.ExitCode)
		assert.False(t, outcome.TimedOut)
	})

	t.Run("StdoutAndStderrSeparated", func(t *testing.T) {
		outcome := runner.Run(context.Background(), ProcessSpec{
			Args:    []string{"sh", "-c", "echo out; echo err >&2"},
			Timeout: 5 * time.Second,
		})
		require.NoError(t, outcome.Err)
		assert.Equal(t, "out\n", outcome.Stdout)
		assert.Equal(t, "err\n", outcome.Stderr)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		outcome := runner.Run(context.Background(), ProcessSpec{
			Args:    []string{"sh", "-c", "echo boom >&2; exit 3"},
			Timeout: 5 * time.Second,
		})
		require.NoError(t, outcome.Err)
		assert.Equal(t, 3, outcome.ExitCode)
		assert.Equal(t, "boom\n", outcome.Stderr)
	})
}

func TestExecRunnerStdin(t *testing.T) {
	runner := ExecRunner{}
	outcome := runner.Run(context.Background(), ProcessSpec{
		Args:    []string{"cat"},
		Stdin:   "line one\nline two\n",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, outcome.Err)
	assert.Equal(t, "line one\nline two\n", outcome.Stdout)
	assert.Equal(t, 0, outcome.ExitCode)
}

func TestExecRunnerStdinClosedAfterWrite(t *testing.T) {
	// A child that reads stdin to EOF must not block forever waiting for
	// more input once the supplied text has been written.
	runner := ExecRunner{}
	outcome := runner.Run(context.Background(), ProcessSpec{
		Args:    []string{"sh", "-c", "wc -l"},
		Stdin:   "a\nb\n",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, outcome.Err)
	assert.False(t, outcome.TimedOut)
	assert.Contains(t, outcome.Stdout, "2")
}

func TestExecRunnerTimeout(t *testing.T) {
	runner := ExecRunner{}
	start := time.Now()
	outcome := runner.Run(context.Background(), ProcessSpec{
		Args:    []string{"sh", "-c", "sleep 30"},
		Timeout: 500 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.TimedOut)
	assert.Less(t, elapsed, 5*time.Second, "kill must happen at the deadline, not at process completion")
	assert.GreaterOrEqual(t, outcome.Duration, 500*time.Millisecond)
}

func TestExecRunnerTimeoutKeepsPartialOutput(t *testing.T) {
	runner := ExecRunner{}
	outcome := runner.Run(context.Background(), ProcessSpec{
		Args:    []string{"sh", "-c", "echo before; sleep 30"},
		Timeout: 500 * time.Millisecond,
	})
	require.NoError(t, outcome.Err)
	assert.True(t, outcome.TimedOut)
	assert.Equal(t, "before\n", outcome.Stdout)
}

func TestExecRunnerTimeoutKillsDescendants(t *testing.T) {
	// A trailing command after the sleep forces the shell to stay alive
	// and fork the sleep as a separate process; the kill must take down
	// the whole group, and the output drained before it must survive.
	runner := ExecRunner{}
	start := time.Now()
	outcome := runner.Run(context.Background(), ProcessSpec{
		Args:    []string{"sh", "-c", "echo before; sleep 30; echo after"},
		Timeout: 500 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.TimedOut)
	assert.Equal(t, "before\n", outcome.Stdout)
	assert.NotContains(t, outcome.Stdout, "after")
	assert.Less(t, elapsed, 5*time.Second, "surviving descendants must not stall the collector")
}

func TestExecRunnerTimeoutRetainsBulkOutput(t *testing.T) {
	// Everything written before the deadline stays in the outcome even
	// though the streams never reach EOF inside the join bound.
	runner := ExecRunner{}
	outcome := runner.Run(context.Background(), ProcessSpec{
		Args:    []string{"sh", "-c", "i=0; while [ $i -lt 5000 ]; do echo out$i; echo err$i >&2; i=$((i+1)); done; echo ready; sleep 60; echo late"},
		Timeout: 2 * time.Second,
	})

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.TimedOut)
	assert.Contains(t, outcome.Stdout, "out4999")
	assert.Contains(t, outcome.Stdout, "ready")
	assert.Contains(t, outcome.Stderr, "err4999")
	assert.NotContains(t, outcome.Stdout, "late")
}

func TestExecRunnerLargeOutputNoDeadlock(t *testing.T) {
	// A child that writes more than a pipe buffer on both streams must not
	// deadlock against a parent that waits before reading.
	runner := ExecRunner{}
	outcome := runner.Run(context.Background(), ProcessSpec{
		Args:    []string{"sh", "-c", "i=0; while [ $i -lt 20000 ]; do echo line$i; echo err$i >&2; i=$((i+1)); done"},
		Timeout: 30 * time.Second,
	})
	require.NoError(t, outcome.Err)
	assert.False(t, outcome.TimedOut)
	assert.Contains(t, outcome.Stdout, "line19999")
	assert.Contains(t, outcome.Stderr, "err19999")
}

func TestExecRunnerFailures(t *testing.T) {
	runner := ExecRunner{}

	t.Run("EmptyCommand", func(t *testing.T) {
		outcome := runner.Run(context.Background(), ProcessSpec{Timeout: time.Second})
		require.Error(t, outcome.Err)
	})

	t.Run("MissingBinary", func(t *testing.T) {
		outcome := runner.Run(context.Background(), ProcessSpec{
			Args:    []string{"/nonexistent/binary"},
			Timeout: time.Second,
		})
		require.Error(t, outcome.Err)
		assert.Contains(t, outcome.Err.Error(), "start process")
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		outcome := runner.Run(ctx, ProcessSpec{
			Args:    []string{"sh", "-c", "sleep 30"},
			Timeout: 10 * time.Second,
		})
		require.Error(t, outcome.Err)
	})
}

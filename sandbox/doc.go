// Package sandbox launches submitted code inside resource-capped containers.
//
// The Runner builds one ephemeral container invocation per compile or run
// phase: no network, a hard memory ceiling, a fractional CPU ceiling, a
// non-root user, a read-only root filesystem with a scratch /tmp, and the
// request's workspace bind-mounted as the working directory. The process
// layer drains stdout and stderr concurrently under a single deadline and
// kills the process outright when the deadline expires.
package sandbox

// Package audit records one entry per completed execution request.
//
// A Sink receives the language, final status, exit code, elapsed time and
// a truncated error message for every request the engine finishes. The
// default sink writes structured log lines; a Kafka-backed sink publishes
// the same entries to a broker for downstream consumers. Sink failures are
// logged and swallowed so they can never alter an execution result.
package audit

package engine

import "time"

// Status is the closed classification taxonomy surfaced to callers.
type Status string

const (
	StatusSuccess           Status = "SUCCESS"
	StatusCompilationError  Status = "COMPILATION_ERROR"
	StatusRuntimeError      Status = "RUNTIME_ERROR"
	StatusTimeout           Status = "TIMEOUT"
	StatusSecurityViolation Status = "SECURITY_VIOLATION"
	StatusSystemError       Status = "SYSTEM_ERROR"
)

// Request is one code submission. SourceCode is caller-owned and never
// mutated. A non-positive TimeoutSec selects the configured default.
type Request struct {
	Language   string `json:"language"`
	SourceCode string `json:"sourceCode"`
	Stdin      string `json:"stdin,omitempty"`
	TimeoutSec int    `json:"timeoutSeconds,omitempty"`
}

// Result is the transient response object handed back to the caller. It is
// created once per request, fully populated on every path, and never
// persisted.
type Result struct {
	Status           Status    `json:"status"`
	Output           string    `json:"output"`
	Error            string    `json:"error,omitempty"`
	CompilationError string    `json:"compilationError,omitempty"`
	ExitCode         int       `json:"exitCode"`
	ExecutionTimeMs  int64     `json:"executionTimeMs"`
	ExecutedAt       time.Time `json:"executedAt"`
}

package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edukit/execbox/audit"
	"github.com/edukit/execbox/config"
	"github.com/edukit/execbox/language"
	"github.com/edukit/execbox/sandbox"
	"github.com/edukit/execbox/security"
	"github.com/edukit/execbox/workspace"
)

// Sandbox is the container invocation surface the service depends on.
type Sandbox interface {
	Compile(ctx context.Context, ws *workspace.Workspace, profile language.Profile, timeout time.Duration) sandbox.Outcome
	Run(ctx context.Context, ws *workspace.Workspace, profile language.Profile, stdin string, timeout time.Duration) sandbox.Outcome
	Healthy(ctx context.Context) bool
}

// Service handles one synchronous execution request at a time per caller,
// bounded globally by a fixed slot pool.
type Service struct {
	logger     *zap.Logger
	registry   *language.Registry
	validator  *security.Validator
	workspaces *workspace.Manager
	sandbox    Sandbox
	sink       audit.Sink

	defaultTimeout time.Duration
	maxTimeout     time.Duration

	// slots bounds concurrent sandbox launches; a burst of submissions
	// waits here instead of growing host load without limit.
	slots chan struct{}
}

// NewService wires the execution engine together.
func NewService(
	logger *zap.Logger,
	cfg *config.Config,
	registry *language.Registry,
	validator *security.Validator,
	workspaces *workspace.Manager,
	sb Sandbox,
	sink audit.Sink,
) *Service {
	return &Service{
		logger:         logger,
		registry:       registry,
		validator:      validator,
		workspaces:     workspaces,
		sandbox:        sb,
		sink:           sink,
		defaultTimeout: cfg.DefaultTimeout(),
		maxTimeout:     cfg.MaxTimeout(),
		slots:          make(chan struct{}, cfg.Sandbox.MaxConcurrent),
	}
}

// Languages returns the supported language identifiers.
func (s *Service) Languages() []string {
	return s.registry.Languages()
}

// Ready reports whether the container runtime is reachable.
func (s *Service) Ready(ctx context.Context) bool {
	return s.sandbox.Healthy(ctx)
}

// Execute runs one submission through the full pipeline. It never returns
// an error: every failure mode, including infrastructure faults, comes
// back as a classified result with elapsed time and timestamp set.
func (s *Service) Execute(ctx context.Context, req Request) Result {
	start := time.Now()

	result := s.execute(ctx, req)

	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	result.ExecutedAt = start.UTC()

	s.record(ctx, req, result)
	return result
}

func (s *Service) execute(ctx context.Context, req Request) Result {
	// Screen before any workspace or process exists; rejected text must
	// never reach a real process.
	if violation := s.validator.Validate(req.SourceCode); violation != nil {
		s.logger.Info("submission rejected",
			zap.String("language", req.Language),
			zap.String("reason", violation.Reason))
		return Result{Status: StatusSecurityViolation, Error: violation.Reason}
	}

	profile, err := s.registry.Resolve(req.Language)
	if err != nil {
		return Result{Status: StatusSystemError, Error: err.Error()}
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		return Result{Status: StatusSystemError, Error: "execution slots exhausted: " + ctx.Err().Error()}
	}

	if !s.sandbox.Healthy(ctx) {
		return Result{Status: StatusSystemError, Error: "container runtime is not available"}
	}

	ws, err := s.workspaces.Create()
	if err != nil {
		return Result{Status: StatusSystemError, Error: fmt.Sprintf("workspace setup failed: %v", err)}
	}
	// Teardown is bound to the workspace itself, never to anything
	// computed later in this function.
	defer s.workspaces.Destroy(ws)

	if _, err := s.workspaces.WriteSource(ws, req.SourceCode, profile); err != nil {
		return Result{Status: StatusSystemError, Error: fmt.Sprintf("workspace setup failed: %v", err)}
	}

	timeout := s.effectiveTimeout(req.TimeoutSec)

	if profile.NeedsCompile() {
		outcome := s.sandbox.Compile(ctx, ws, profile, timeout)
		if status, msg := classify(phaseCompile, outcome); status != StatusSuccess {
			result := Result{Status: status, ExitCode: outcome.ExitCode, Error: msg}
			if status == StatusCompilationError {
				result.CompilationError = msg
			}
			return result
		}
	}

	outcome := s.sandbox.Run(ctx, ws, profile, req.Stdin, timeout)
	status, msg := classify(phaseRun, outcome)

	result := Result{
		Status:   status,
		Output:   outcome.Stdout,
		ExitCode: outcome.ExitCode,
		Error:    msg,
	}
	if status == StatusRuntimeError && outcome.Stderr != "" {
		result.Error = outcome.Stderr
	}
	return result
}

// effectiveTimeout applies the default to absent values and the configured
// ceiling to oversized ones.
func (s *Service) effectiveTimeout(timeoutSec int) time.Duration {
	if timeoutSec <= 0 {
		return s.defaultTimeout
	}
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout > s.maxTimeout {
		return s.maxTimeout
	}
	return timeout
}

// record emits the audit entry for a completed request. Sink failures are
// the sink's to log; they never alter the result.
func (s *Service) record(ctx context.Context, req Request, result Result) {
	s.sink.Record(ctx, audit.Entry{
		Language:   req.Language,
		Status:     string(result.Status),
		Success:    result.Status == StatusSuccess,
		ExitCode:   result.ExitCode,
		DurationMs: result.ExecutionTimeMs,
		Error:      audit.Truncate(result.Error, audit.MaxErrorLen),
		At:         result.ExecutedAt,
	})
}

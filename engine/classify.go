package engine

import "github.com/edukit/execbox/sandbox"

// phase identifies which sandbox step produced an outcome.
type phase int

const (
	phaseCompile phase = iota
	phaseRun
)

// classify maps a raw sandbox outcome onto the closed status taxonomy.
// Pure; all request-level bookkeeping happens in the service.
func classify(p phase, o sandbox.Outcome) (Status, string) {
	if o.Err != nil {
		return StatusSystemError, o.Err.Error()
	}
	if o.TimedOut {
		return StatusTimeout, "execution timed out"
	}
	if o.ExitCode != 0 {
		msg := o.Stderr
		if msg == "" {
			msg = o.Stdout
		}
		if p == phaseCompile {
			return StatusCompilationError, msg
		}
		return StatusRuntimeError, msg
	}
	return StatusSuccess, ""
}

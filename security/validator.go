package security

import (
	"regexp"
	"unicode/utf8"

	"github.com/edukit/execbox/config"
)

// Violation describes the first screening rule a submission broke.
type Violation struct {
	Reason string
}

// denyRule pairs a compiled pattern with the reason reported to the caller.
type denyRule struct {
	pattern *regexp.Regexp
	reason  string
}

// denyRules is compiled once at startup. Matching is case-insensitive and
// intentionally over-blocks: a false positive costs the student a resubmit,
// a false negative hands attacker-controlled text to a process.
var denyRules = []denyRule{
	// Process spawning
	{regexp.MustCompile(`(?i)runtime\s*\.\s*getruntime`), "process execution via Runtime.getRuntime is not allowed"},
	{regexp.MustCompile(`(?i)\bprocessbuilder\b`), "process execution via ProcessBuilder is not allowed"},
	{regexp.MustCompile(`(?i)\bsubprocess\b`), "process execution via subprocess is not allowed"},
	{regexp.MustCompile(`(?i)\bos\s*\.\s*system\b`), "shell escape via os.system is not allowed"},
	{regexp.MustCompile(`(?i)\bpopen\s*\(`), "process execution via popen is not allowed"},
	{regexp.MustCompile(`(?i)\bchild_process\b`), "process execution via child_process is not allowed"},
	{regexp.MustCompile(`(?i)\bsystem\s*\(`), "shell escape via system() is not allowed"},
	{regexp.MustCompile(`(?i)\bfork\s*\(`), "process forking is not allowed"},

	// Process exit
	{regexp.MustCompile(`(?i)system\s*\.\s*exit`), "terminating the runtime via System.exit is not allowed"},
	{regexp.MustCompile(`(?i)\bprocess\s*\.\s*exit\b`), "terminating the runtime via process.exit is not allowed"},

	// Dynamic evaluation
	{regexp.MustCompile(`(?i)\beval\s*\(`), "dynamic evaluation via eval is not allowed"},
	{regexp.MustCompile(`(?i)\bexec\s*\(`), "dynamic evaluation via exec is not allowed"},
	{regexp.MustCompile(`(?i)__import__`), "dynamic imports are not allowed"},
	{regexp.MustCompile(`(?i)\bimportlib\b`), "dynamic imports are not allowed"},

	// Reflection
	{regexp.MustCompile(`(?i)java\s*\.\s*lang\s*\.\s*reflect`), "reflection is not allowed"},

	// Raw filesystem access
	{regexp.MustCompile(`(?i)java\s*\.\s*io\s*\.\s*file\b`), "direct file access is not allowed"},
	{regexp.MustCompile(`(?i)\bfilewriter\b`), "direct file access is not allowed"},
	{regexp.MustCompile(`(?i)\bfopen\s*\(`), "direct file access is not allowed"},
	{regexp.MustCompile(`(?i)require\s*\(\s*['"]fs['"]\s*\)`), "direct file access is not allowed"},
	{regexp.MustCompile(`(?i)\bshutil\b`), "direct file access is not allowed"},

	// Network access
	{regexp.MustCompile(`(?i)\bsocket\b`), "network access via sockets is not allowed"},
	{regexp.MustCompile(`(?i)java\s*\.\s*net\b`), "network access is not allowed"},
	{regexp.MustCompile(`(?i)\burllib\b`), "network access is not allowed"},
	{regexp.MustCompile(`(?i)\brequests\b`), "network access is not allowed"},
	{regexp.MustCompile(`(?i)\bhttp\s*\.\s*client\b`), "network access is not allowed"},
	{regexp.MustCompile(`(?i)\bfetch\s*\(`), "network access is not allowed"},
	{regexp.MustCompile(`(?i)\bxmlhttprequest\b`), "network access is not allowed"},

	// Shell escapes
	{regexp.MustCompile(`(?i)/bin/(?:ba)?sh\b`), "shell escape is not allowed"},
	{regexp.MustCompile("`[^`]*`"), "shell command substitution is not allowed"},
}

// Validator screens raw source text against the deny list and a maximum
// length rule. It is pure and stateless; no I/O happens here.
type Validator struct {
	maxSourceLen int
}

// New creates a validator with the given maximum source length.
func New(maxSourceLen int) *Validator {
	return &Validator{maxSourceLen: maxSourceLen}
}

// FromConfig builds a validator from the application configuration.
func FromConfig(cfg *config.Config) *Validator {
	return New(cfg.Security.MaxSourceLen)
}

// Validate returns the first violated rule, or nil for a clean submission.
func (v *Validator) Validate(source string) *Violation {
	for _, rule := range denyRules {
		if rule.pattern.MatchString(source) {
			return &Violation{Reason: rule.reason}
		}
	}
	// Counted in characters, not bytes, so multi-byte string literals and
	// comments are not penalized.
	if utf8.RuneCountInString(source) > v.maxSourceLen {
		return &Violation{Reason: "source code exceeds the maximum allowed length"}
	}
	return nil
}

// MaxSourceLen returns the configured length ceiling.
func (v *Validator) MaxSourceLen() int {
	return v.maxSourceLen
}

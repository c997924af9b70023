package core

import "fmt"

// Severity classifies a Diagnostic the way LSP does (errors, warnings, ...).
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Diagnostic is the structured message the spec requires every recoverable
// build/resolve failure to surface as (§3, §7). Diagnostics are accumulated
// per document, never returned as a Go error: they are findings, not
// control-flow.
type Diagnostic struct {
	Range    Range
	Severity Severity
	Message  string
}

// DiagnosticSink collects diagnostics for one document across a build or
// incremental pass. It is not safe for concurrent writers; callers that
// drain resolver queues in parallel must serialize through their own lock
// (see internal/resolve, which owns exactly one sink per drain).
type DiagnosticSink struct {
	diags []Diagnostic
}

// Add appends a diagnostic to the sink.
func (s *DiagnosticSink) Add(d Diagnostic) {
	s.diags = append(s.diags, d)
}

// Addf is a convenience that builds the Diagnostic inline.
func (s *DiagnosticSink) Addf(r Range, sev Severity, format string, args ...any) {
	s.Add(Diagnostic{Range: r, Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// All returns every diagnostic accumulated so far, in insertion order.
func (s *DiagnosticSink) All() []Diagnostic {
	return s.diags
}

// Reset clears the sink, used at the start of a full rebuild.
func (s *DiagnosticSink) Reset() {
	s.diags = s.diags[:0]
}

// Package logging routes diagnostics to a log sink and keeps the fatal ones
// for the final validation result.
package logging

import (
	"fmt"

	dslerrors "github.com/jacoelho/commsdsl/errors"
)

// Sink receives every diagnostic that passes the severity filter. The message
// already carries its "document:line:" prefix.
type Sink func(severity dslerrors.Severity, msg string)

// Discard is a sink that drops everything.
func Discard(dslerrors.Severity, string) {}

// Config configures a Reporter.
type Config struct {
	Sink        Sink
	MinSeverity dslerrors.Severity
	WarnAsError bool
}

// Reporter filters, tags and records diagnostics.
type Reporter struct {
	sink        Sink
	min         dslerrors.Severity
	warnAsError bool
	fatal       dslerrors.List
	counts      [dslerrors.Error + 1]int
}

// NewReporter returns a reporter for the given configuration.
func NewReporter(cfg Config) *Reporter {
	sink := cfg.Sink
	if sink == nil {
		sink = Discard
	}
	return &Reporter{
		sink:        sink,
		min:         cfg.MinSeverity,
		warnAsError: cfg.WarnAsError,
	}
}

// Report forwards d to the sink and records it when fatal. Warnings are
// promoted to errors when warn-as-error is enabled.
func (r *Reporter) Report(d dslerrors.Diagnostic) {
	if r == nil {
		return
	}
	if d.Severity == dslerrors.Warning && r.warnAsError {
		d.Severity = dslerrors.Error
	}
	if int(d.Severity) < len(r.counts) {
		r.counts[d.Severity]++
	}
	if d.Severity == dslerrors.Error {
		r.fatal = append(r.fatal, d)
	}
	if d.Severity < r.min {
		return
	}
	r.sink(d.Severity, format(&d))
}

// Debugf reports a debug message without provenance.
func (r *Reporter) Debugf(format string, args ...any) {
	r.Report(dslerrors.Diagnostic{Severity: dslerrors.Debug, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of diagnostics reported with the severity,
// including filtered ones.
func (r *Reporter) Count(s dslerrors.Severity) int {
	if r == nil || int(s) >= len(r.counts) {
		return 0
	}
	return r.counts[s]
}

// HasErrors reports whether any fatal diagnostic was recorded.
func (r *Reporter) HasErrors() bool {
	return r != nil && len(r.fatal) > 0
}

// Errors returns the recorded fatal diagnostics in report order.
func (r *Reporter) Errors() dslerrors.List {
	if r == nil || len(r.fatal) == 0 {
		return nil
	}
	out := make(dslerrors.List, len(r.fatal))
	copy(out, r.fatal)
	return out
}

func format(d *dslerrors.Diagnostic) string {
	pos := d.Position()
	if pos == "" {
		return d.Message
	}
	return pos + ": " + d.Message
}

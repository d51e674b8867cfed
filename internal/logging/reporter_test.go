package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	dslerrors "github.com/jacoelho/commsdsl/errors"
)

type record struct {
	severity dslerrors.Severity
	msg      string
}

func collect(out *[]record) Sink {
	return func(s dslerrors.Severity, msg string) {
		*out = append(*out, record{severity: s, msg: msg})
	}
}

func TestReporterFilterAndProvenance(t *testing.T) {
	var got []record
	r := NewReporter(Config{Sink: collect(&got), MinSeverity: dslerrors.Warning})

	info := dslerrors.New(dslerrors.WarnConsistency, "a.xml", 2, "hidden")
	info.Severity = dslerrors.Info
	r.Report(info)

	warn := dslerrors.New(dslerrors.WarnUnsupportedProperty, "a.xml", 3, "ignored")
	warn.Severity = dslerrors.Warning
	r.Report(warn)
	r.Report(dslerrors.New(dslerrors.ErrUnresolvedRef, "b.xml", 7, "missing"))

	if len(got) != 2 {
		t.Fatalf("sink received %d records, want 2", len(got))
	}
	if got[0].msg != "a.xml:3: ignored" || got[0].severity != dslerrors.Warning {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].msg != "b.xml:7: missing" || got[1].severity != dslerrors.Error {
		t.Errorf("second record = %+v", got[1])
	}
	if r.Count(dslerrors.Info) != 1 {
		t.Errorf("Count(Info) = %d, want 1", r.Count(dslerrors.Info))
	}
	if !r.HasErrors() || len(r.Errors()) != 1 {
		t.Errorf("Errors() = %v", r.Errors())
	}
}

func TestReporterWarnAsError(t *testing.T) {
	r := NewReporter(Config{WarnAsError: true})
	warn := dslerrors.New(dslerrors.WarnFirstWins, "a.xml", 1, "differs")
	warn.Severity = dslerrors.Warning
	r.Report(warn)
	if !r.HasErrors() {
		t.Fatalf("warning should be promoted")
	}
	if got := r.Errors()[0].Severity; got != dslerrors.Error {
		t.Fatalf("severity = %v, want error", got)
	}
}

func TestNilReporter(t *testing.T) {
	var r *Reporter
	r.Report(dslerrors.New(dslerrors.ErrSchema, "", 0, "x"))
	if r.HasErrors() || r.Errors() != nil || r.Count(dslerrors.Error) != 0 {
		t.Fatalf("nil reporter should be inert")
	}
}

func TestLogrusSink(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	r := NewReporter(Config{Sink: LogrusSink(log)})
	warn := dslerrors.New(dslerrors.WarnDeprecatedProperty, "s.xml", 9, "deprecated property")
	warn.Severity = dslerrors.Warning
	r.Report(warn)

	out := buf.String()
	if !strings.Contains(out, "level=warning") || !strings.Contains(out, "s.xml:9: deprecated property") {
		t.Fatalf("unexpected logrus output %q", out)
	}
}

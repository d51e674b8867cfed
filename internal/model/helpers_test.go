package model

import (
	"fmt"
	"strings"
	"testing"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/logging"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// schemaDoc wraps body in a <schema> element with the given attributes.
// Unset attributes default to a version 5 big endian DSL 7 schema.
func schemaDoc(attrs, body string) string {
	if !strings.Contains(attrs, "name=") {
		attrs += ` name="proto"`
	}
	if !strings.Contains(attrs, " version=") {
		attrs += ` version="5"`
	}
	if !strings.Contains(attrs, "dslVersion=") {
		attrs += ` dslVersion="7"`
	}
	if !strings.Contains(attrs, "endian=") {
		attrs += ` endian="big"`
	}
	return "<schema" + attrs + ">\n" + body + "\n</schema>"
}

type buildResult struct {
	proto    *Protocol
	err      error
	warnings []string
}

func buildWith(t *testing.T, cfg Config, docs ...string) buildResult {
	t.Helper()
	var res buildResult
	if cfg.Reporter == nil {
		cfg.Reporter = logging.NewReporter(logging.Config{
			MinSeverity: dslerrors.Warning,
			Sink: func(s dslerrors.Severity, msg string) {
				if s == dslerrors.Warning {
					res.warnings = append(res.warnings, msg)
				}
			},
		})
	}
	b := NewBuilder(cfg)
	for i, doc := range docs {
		root, err := xmlnode.ParseString(doc, fmt.Sprintf("doc%d.xml", i))
		if err != nil {
			t.Fatalf("parse document %d: %v", i, err)
		}
		_ = b.Parse(root)
	}
	res.proto, res.err = b.Build()
	return res
}

func mustBuild(t *testing.T, docs ...string) *Protocol {
	t.Helper()
	res := buildWith(t, Config{}, docs...)
	if res.err != nil {
		t.Fatalf("Build() error = %v", res.err)
	}
	return res.proto
}

func mustFail(t *testing.T, code dslerrors.Code, docs ...string) dslerrors.List {
	t.Helper()
	res := buildWith(t, Config{}, docs...)
	if res.err == nil {
		t.Fatalf("Build() succeeded, want %s", code)
	}
	diags, ok := dslerrors.AsDiagnostics(res.err)
	if !ok {
		t.Fatalf("Build() error %T is not a diagnostic list", res.err)
	}
	list := dslerrors.List(diags)
	if !list.Has(code) {
		t.Fatalf("Build() error = %v, want code %s", res.err, code)
	}
	return list
}

func fieldOf[T Field](t *testing.T, p *Protocol, ref string) T {
	t.Helper()
	f := p.FindField(ref)
	if f == nil {
		t.Fatalf("field %q not found", ref)
	}
	typed, ok := f.(T)
	if !ok {
		t.Fatalf("field %q is %T", ref, f)
	}
	return typed
}

func messageOf(t *testing.T, p *Protocol, ref string) *Message {
	t.Helper()
	m := p.FindMessage(ref)
	if m == nil {
		t.Fatalf("message %q not found", ref)
	}
	return m
}

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

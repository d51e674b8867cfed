package errors

import (
	"fmt"
	"testing"
)

func TestDiagnosticFormatting(t *testing.T) {
	tests := []struct {
		name string
		want string
		d    Diagnostic
	}{
		{
			name: "message only",
			d:    Diagnostic{Code: ErrStructure, Message: "unexpected element"},
			want: "[dsl-structure] unexpected element",
		},
		{
			name: "with document",
			d:    Diagnostic{Code: ErrStructure, Message: "unexpected element", Document: "a.xml"},
			want: "a.xml: [dsl-structure] unexpected element",
		},
		{
			name: "with line",
			d:    Diagnostic{Code: ErrUnresolvedRef, Message: "field not found", Document: "a.xml", Line: 12},
			want: "a.xml:12: [dsl-unresolved-ref] field not found",
		},
		{
			name: "line without document",
			d:    Diagnostic{Code: ErrVersion, Message: "bad", Line: 3},
			want: "<input>:3: [dsl-version] bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListError(t *testing.T) {
	if got := (List{}).Error(); got != "no diagnostics" {
		t.Fatalf("empty list Error() = %q", got)
	}
	list := List{
		New(ErrDuplicateName, "a.xml", 1, "dup"),
		New(ErrDuplicateID, "a.xml", 2, "dup id"),
	}
	if got, want := list.Error(), "a.xml:1: [dsl-duplicate-name] dup (and 1 more)"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !list.Has(ErrDuplicateID) || list.Has(ErrSchema) {
		t.Fatalf("Has() mismatch")
	}
}

func TestAsDiagnostics(t *testing.T) {
	list := List{Newf(ErrLength, "x.xml", 4, "length %d", 3)}
	wrapped := fmt.Errorf("build: %w", list)
	got, ok := AsDiagnostics(wrapped)
	if !ok || len(got) != 1 || got[0].Message != "length 3" {
		t.Fatalf("AsDiagnostics() = %v, %v", got, ok)
	}
	d := New(ErrSchema, "", 0, "single")
	if got, ok := AsDiagnostics(&d); !ok || len(got) != 1 {
		t.Fatalf("AsDiagnostics(single) = %v, %v", got, ok)
	}
	if _, ok := AsDiagnostics(fmt.Errorf("plain")); ok {
		t.Fatalf("AsDiagnostics(plain) should fail")
	}
}

func TestSeverity(t *testing.T) {
	for _, s := range []Severity{Debug, Info, Warning, Error} {
		got, err := ParseSeverity(s.String())
		if err != nil || got != s {
			t.Fatalf("ParseSeverity(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Fatalf("ParseSeverity(loud) expected error")
	}
}

func TestCodeClass(t *testing.T) {
	if ErrDuplicateProperty.Class() != ClassStructural {
		t.Errorf("duplicate property should be structural")
	}
	if ErrUnresolvedRef.Class() != ClassSemantic {
		t.Errorf("unresolved ref should be semantic")
	}
	if WarnUnsupportedProperty.Class() != ClassCompatibility {
		t.Errorf("unsupported property should be compatibility")
	}
}

package cond

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseExpr(t *testing.T) {
	tests := []struct {
		in   string
		want *Expr
	}{
		{
			in: "$F1 = 0",
			want: &Expr{
				Left:  Operand{Kind: OperandField, Path: "F1"},
				Op:    OpEq,
				Right: Operand{Kind: OperandValue, Value: "0"},
			},
		},
		{
			in: "$a.b!=$c",
			want: &Expr{
				Left:  Operand{Kind: OperandField, Path: "a.b"},
				Op:    OpNe,
				Right: Operand{Kind: OperandField, Path: "c"},
			},
		},
		{
			in:   "!$flags.b0",
			want: &Expr{Left: Operand{Kind: OperandField, Path: "flags.b0"}, Negated: true},
		},
		{
			in:   "?$opt",
			want: &Expr{Left: Operand{Kind: OperandField, Mode: RefExists, Path: "opt"}},
		},
		{
			in:   "!$?opt",
			want: &Expr{Left: Operand{Kind: OperandField, Mode: RefExists, Path: "opt"}, Negated: true},
		},
		{
			in: "$#list >= 2",
			want: &Expr{
				Left:  Operand{Kind: OperandField, Mode: RefSize, Path: "list"},
				Op:    OpGe,
				Right: Operand{Kind: OperandValue, Value: "2"},
			},
		},
		{
			in: "%version > 3",
			want: &Expr{
				Left:  Operand{Kind: OperandInterfaceField, Path: "version"},
				Op:    OpGt,
				Right: Operand{Kind: OperandValue, Value: "3"},
			},
		},
		{
			in: `$name == "a = b"`,
			want: &Expr{
				Left:  Operand{Kind: OperandField, Path: "name"},
				Op:    OpEq,
				Right: Operand{Kind: OperandValue, Value: "a = b", Quoted: true},
			},
		},
		{
			in: "$v <= ns.Enum.Val",
			want: &Expr{
				Left:  Operand{Kind: OperandField, Path: "v"},
				Op:    OpLe,
				Right: Operand{Kind: OperandValue, Value: "ns.Enum.Val"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpr(tt.in)
			if err != nil {
				t.Fatalf("ParseExpr(%q) error = %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ParseExpr(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseExprErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"5 = $a",
		"$ = 1",
		"$a =",
		"$1a = 2",
		"?$a = 1",
		"$#a",
		"#$a >= 2",
		"abc",
		`$a = "open`,
		"$a = ?$b",
	} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseExpr(in); err == nil {
				t.Fatalf("ParseExpr(%q) expected error", in)
			}
		})
	}
}

func TestExprString(t *testing.T) {
	for _, in := range []string{"$a = 1", "!$flags.b0", "?$opt", "$#list >= 2", "%v != $w", `$s = "x"`} {
		e, err := ParseExpr(in)
		if err != nil {
			t.Fatalf("ParseExpr(%q) error = %v", in, err)
		}
		if got := e.String(); got != in {
			t.Fatalf("String() = %q, want %q", got, in)
		}
	}
}

func mustExpr(t *testing.T, s string) *Expr {
	t.Helper()
	e, err := ParseExpr(s)
	if err != nil {
		t.Fatalf("ParseExpr(%q) error = %v", s, err)
	}
	return e
}

func TestIsConstructCompatible(t *testing.T) {
	tests := []struct {
		name string
		c    Cond
		want bool
	}{
		{name: "equality", c: mustExpr(t, "$a = 1"), want: true},
		{name: "bit check", c: mustExpr(t, "!$flags.b1"), want: true},
		{name: "inequality", c: mustExpr(t, "$a != 1"), want: false},
		{name: "field compare", c: mustExpr(t, "$a = $b"), want: false},
		{name: "interface ref", c: mustExpr(t, "%a = 1"), want: false},
		{name: "exists", c: mustExpr(t, "?$a"), want: false},
		{
			name: "and of leaves",
			c:    &List{Kind: And, Items: []Cond{mustExpr(t, "$a = 1"), mustExpr(t, "$flags.b0")}},
			want: true,
		},
		{
			name: "nested and",
			c: &List{Kind: And, Items: []Cond{
				mustExpr(t, "$a = 1"),
				&List{Kind: And, Items: []Cond{mustExpr(t, "$b = 2")}},
			}},
			want: true,
		},
		{
			name: "or",
			c:    &List{Kind: Or, Items: []Cond{mustExpr(t, "$a = 1"), mustExpr(t, "$b = 2")}},
			want: false,
		},
		{name: "empty and", c: &List{Kind: And}, want: false},
		{name: "nil", c: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConstructCompatible(tt.c); got != tt.want {
				t.Fatalf("IsConstructCompatible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	src := &List{Kind: Or, Items: []Cond{
		mustExpr(t, "$a = 1"),
		&List{Kind: And, Items: []Cond{mustExpr(t, "$b < 2"), mustExpr(t, "?$c")}},
	}}
	cp := Clone(src).(*List)
	if diff := cmp.Diff(src, cp); diff != "" {
		t.Fatalf("Clone mismatch (-src +clone):\n%s", diff)
	}
	cp.Items[0].(*Expr).Right.Value = "9"
	cp.Items[1].(*List).Items = nil
	if src.Items[0].(*Expr).Right.Value != "1" || len(src.Items[1].(*List).Items) != 2 {
		t.Fatalf("mutating the clone changed the source")
	}
}

func TestUsesAndFlatten(t *testing.T) {
	c := &List{Kind: And, Items: []Cond{mustExpr(t, "%a = 1"), mustExpr(t, "$#b > 0"), mustExpr(t, "?$c")}}
	u := Uses(c)
	if !u.InterfaceRefs || !u.SizeRefs || !u.ExistsRefs {
		t.Fatalf("Uses() = %+v", u)
	}
	if Uses(mustExpr(t, "$a = 1")) != (Usage{}) {
		t.Fatalf("plain expression should use nothing special")
	}
	single := mustExpr(t, "$a = 1")
	if Flatten(&List{Kind: And, Items: []Cond{single}}) != Cond(single) {
		t.Fatalf("Flatten single")
	}
	if Flatten(&List{Kind: Or}) != nil {
		t.Fatalf("Flatten empty")
	}
	if got := c.String(); got != "(%a = 1 && $#b > 0 && ?$c)" {
		t.Fatalf("String() = %q", got)
	}
}

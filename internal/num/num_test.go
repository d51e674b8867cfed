package num

import (
	"math"
	"testing"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		big     bool
		wantErr ParseErrKind
		ok      bool
	}{
		{in: "10", want: 10, ok: true},
		{in: "-128", want: -128, ok: true},
		{in: "+7", want: 7, ok: true},
		{in: "0x1F", want: 31, ok: true},
		{in: "0b101", want: 5, ok: true},
		{in: "017", want: 15, ok: true},
		{in: "0", want: 0, ok: true},
		{in: "18446744073709551615", want: -1, big: true, ok: true},
		{in: "-9223372036854775808", want: math.MinInt64, ok: true},
		{in: "", wantErr: ParseEmpty},
		{in: "-", wantErr: ParseNoDigits},
		{in: "0x", wantErr: ParseNoDigits},
		{in: "12a", wantErr: ParseBadChar},
		{in: "18446744073709551616", wantErr: ParseOverflow},
		{in: "-9223372036854775809", wantErr: ParseOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, big, err := ParseInt(tt.in)
			if !tt.ok {
				if err == nil || err.Kind != tt.wantErr {
					t.Fatalf("ParseInt(%q) err = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInt(%q) error = %v", tt.in, err)
			}
			if got != tt.want || big != tt.big {
				t.Fatalf("ParseInt(%q) = %d,%v, want %d,%v", tt.in, got, big, tt.want, tt.big)
			}
		})
	}
}

func TestCompareAndAdjacent(t *testing.T) {
	if Compare(-1, 1, false) != -1 || Compare(-1, 1, true) != 1 {
		t.Fatalf("Compare signedness mismatch")
	}
	if !Adjacent(20, 21, false) || Adjacent(20, 22, false) || !Adjacent(20, 15, false) {
		t.Fatalf("Adjacent mismatch")
	}
	if !Adjacent(math.MaxInt64, 0, false) || !Adjacent(-1, 5, true) {
		t.Fatalf("Adjacent must not overflow")
	}
	if Format(-1, true) != "18446744073709551615" || Format(-1, false) != "-1" {
		t.Fatalf("Format mismatch")
	}
}

func TestAdjacentUnsignedBoundary(t *testing.T) {
	tests := []struct {
		name     string
		hi, next int64
		unsigned bool
		want     bool
	}{
		{name: "half crosses sign bit", hi: math.MaxInt64, next: math.MinInt64, unsigned: true, want: true},
		{name: "gap above half", hi: math.MaxInt64, next: math.MinInt64 + 1, unsigned: true, want: false},
		{name: "above half", hi: math.MinInt64, next: math.MinInt64 + 1, unsigned: true, want: true},
		{name: "below max", hi: -2, next: -1, unsigned: true, want: true},
		{name: "gap below max", hi: -3, next: -1, unsigned: true, want: false},
		{name: "max absorbs", hi: -1, next: 0, unsigned: true, want: true},
		{name: "signed sign bit", hi: -1, next: 0, want: true},
		{name: "signed gap", hi: -1, next: 1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Adjacent(tt.hi, tt.next, tt.unsigned); got != tt.want {
				t.Fatalf("Adjacent(%d, %d, %v) = %v, want %v", tt.hi, tt.next, tt.unsigned, got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	for _, in := range []string{"nan", "NaN"} {
		if v, err := ParseFloat(in); err != nil || !math.IsNaN(v) {
			t.Fatalf("ParseFloat(%q) = %v, %v", in, v, err)
		}
	}
	if v, _ := ParseFloat("-inf"); !math.IsInf(v, -1) {
		t.Fatalf("ParseFloat(-inf) = %v", v)
	}
	if v, _ := ParseFloat("0x10"); v != 16 {
		t.Fatalf("ParseFloat(0x10) = %v", v)
	}
	if v, _ := ParseFloat("1.5e2"); v != 150 {
		t.Fatalf("ParseFloat(1.5e2) = %v", v)
	}
	if _, err := ParseFloat("abc"); err == nil {
		t.Fatalf("ParseFloat(abc) expected error")
	}
}

func TestSaturatingLengths(t *testing.T) {
	if AddLength(Unbounded, 1) != Unbounded || AddLength(Unbounded-1, 5) != Unbounded {
		t.Fatalf("AddLength must saturate")
	}
	if AddLength(2, 3) != 5 || SumLengths(1, 2, 3) != 6 {
		t.Fatalf("AddLength arithmetic")
	}
	if MulLength(Unbounded/2+1, 2) != Unbounded || MulLength(0, Unbounded) != 0 || MulLength(4, 5) != 20 {
		t.Fatalf("MulLength mismatch")
	}
	if LengthFromValue(math.MaxUint64) != Unbounded || LengthFromValue(255) != 255 {
		t.Fatalf("LengthFromValue mismatch")
	}
	if MaxUintForBytes(1) != 255 || MaxUintForBytes(8) != math.MaxUint64 || MaxUintForBits(4) != 15 {
		t.Fatalf("MaxUint helpers mismatch")
	}
}

func TestMulLengthMonotone(t *testing.T) {
	prev := 0
	for count := 0; count < 63; count++ {
		v := MulLength(1<<count, 1<<10)
		if v < prev {
			t.Fatalf("MulLength not monotone at %d: %d < %d", count, v, prev)
		}
		prev = v
	}
	if prev != Unbounded {
		t.Fatalf("expected saturation, got %d", prev)
	}
}

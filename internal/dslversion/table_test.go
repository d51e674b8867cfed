package dslversion

import "testing"

func TestPropertySupport(t *testing.T) {
	tests := []struct {
		name string
		prop string
		dsl  uint
		want bool
	}{
		{name: "base property", prop: "name", dsl: 1, want: true},
		{name: "too old", prop: "availableLengthLimit", dsl: 1, want: false},
		{name: "exact", prop: "availableLengthLimit", dsl: 2, want: true},
		{name: "latest by zero", prop: "construct", dsl: 0, want: true},
		{name: "construct on six", prop: "construct", dsl: 6, want: false},
		{name: "override on six", prop: "valueOverride", dsl: 6, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPropertySupported(tt.prop, tt.dsl); got != tt.want {
				t.Fatalf("IsPropertySupported(%q, %d) = %v, want %v", tt.prop, tt.dsl, got, tt.want)
			}
		})
	}
}

func TestFeatureTable(t *testing.T) {
	for f := Feature(0); f < featureCount; f++ {
		minVer := f.MinVersion()
		if minVer < 1 || minVer > Latest {
			t.Fatalf("%s min version %d out of range", f, minVer)
		}
		if minVer > 1 && Supported(f, minVer-1) {
			t.Fatalf("%s supported below its minimum", f)
		}
		if !Supported(f, minVer) || !Supported(f, 0) {
			t.Fatalf("%s should be supported at %d and latest", f, minVer)
		}
	}
	if Feature(200).String() != "unknown feature" {
		t.Fatalf("unexpected name for unknown feature")
	}
}

func TestDeprecation(t *testing.T) {
	if IsPropertyDeprecated("idReplacement", 6) {
		t.Fatalf("idReplacement deprecated too early")
	}
	if !IsPropertyDeprecated("idReplacement", 7) || !IsPropertyDeprecated("idReplacement", 0) {
		t.Fatalf("idReplacement should be deprecated on 7")
	}
	if IsPropertyDeprecated("name", 7) {
		t.Fatalf("name is not deprecated")
	}
}

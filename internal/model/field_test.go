package model

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/num"
)

func TestIntValidRangesNormalize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []ValidRange[int64]
	}{
		{
			name: "overlap",
			body: `<validRange value="[10, 20]"/><validRange value="[15, 25]"/>`,
			want: []ValidRange[int64]{{Min: 10, Max: 25, DeprecatedSince: NotYetDeprecated}},
		},
		{
			name: "adjacent",
			body: `<validRange value="[21, 30]"/><validRange value="[10, 20]"/>`,
			want: []ValidRange[int64]{{Min: 10, Max: 30, DeprecatedSince: NotYetDeprecated}},
		},
		{
			name: "contained",
			body: `<validRange value="[0, 100]"/><validRange value="[10, 20]"/>`,
			want: []ValidRange[int64]{{Min: 0, Max: 100, DeprecatedSince: NotYetDeprecated}},
		},
		{
			name: "disjoint",
			body: `<validRange value="[22, 30]"/><validRange value="[10, 20]"/>`,
			want: []ValidRange[int64]{
				{Min: 10, Max: 20, DeprecatedSince: NotYetDeprecated},
				{Min: 22, Max: 30, DeprecatedSince: NotYetDeprecated},
			},
		},
		{
			name: "value and min",
			body: `<validValue value="5"/><validMin value="250"/>`,
			want: []ValidRange[int64]{
				{Min: 5, Max: 5, DeprecatedSince: NotYetDeprecated},
				{Min: 250, Max: 255, DeprecatedSince: NotYetDeprecated},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustBuild(t, schemaDoc("", `<fields><int name="I" type="uint8">`+tt.body+`</int></fields>`))
			got := fieldOf[*IntField](t, p, "I").ValidRanges()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ValidRanges() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIntValidRangesKeepVersionWindows(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<int name="I" type="uint8" validCheckVersion="true">
			<validRange value="[10, 20]"/>
			<validRange value="[15, 25]" sinceVersion="2"/>
		</int>
	</fields>`))
	f := fieldOf[*IntField](t, p, "I")
	want := []ValidRange[int64]{
		{Min: 10, Max: 20, DeprecatedSince: NotYetDeprecated},
		{Min: 15, Max: 25, SinceVersion: 2, DeprecatedSince: NotYetDeprecated},
	}
	if diff := cmp.Diff(want, f.ValidRanges()); diff != "" {
		t.Fatalf("ValidRanges() mismatch (-want +got):\n%s", diff)
	}
	if f.IsValid(22, 1) {
		t.Fatalf("IsValid(22, 1) = true, want false")
	}
	if !f.IsValid(22, 2) {
		t.Fatalf("IsValid(22, 2) = false, want true")
	}
}

func TestIntOutOfTypeRangeIgnored(t *testing.T) {
	res := buildWith(t, Config{}, schemaDoc("", `<fields><int name="I" type="uint8" validValue="300"/></fields>`))
	if res.err != nil {
		t.Fatalf("Build() error = %v", res.err)
	}
	if !hasWarning(res.warnings, "outside the type range") {
		t.Fatalf("warnings = %q, want an out of range warning", res.warnings)
	}
	if got := fieldOf[*IntField](t, res.proto, "I").ValidRanges(); len(got) != 0 {
		t.Fatalf("ValidRanges() = %v, want none", got)
	}
}

func TestIntValidRangesAcrossSignBit(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []ValidRange[int64]
	}{
		{
			name: "halves merge",
			body: `<validRange value="[0x8000000000000000, 0xffffffffffffffff]"/><validRange value="[0, 0x7fffffffffffffff]"/>`,
			want: []ValidRange[int64]{{Min: 0, Max: -1, DeprecatedSince: NotYetDeprecated}},
		},
		{
			name: "gap at half",
			body: `<validRange value="[0, 0x7ffffffffffffffe]"/><validRange value="[0x8000000000000000, 0x8000000000000010]"/>`,
			want: []ValidRange[int64]{
				{Min: 0, Max: 1<<63 - 2, DeprecatedSince: NotYetDeprecated},
				{Min: -1 << 63, Max: -1<<63 + 16, DeprecatedSince: NotYetDeprecated},
			},
		},
		{
			name: "max value and min",
			body: `<validValue value="0xffffffffffffffff"/><validMin value="0xfffffffffffffff0"/>`,
			want: []ValidRange[int64]{{Min: -16, Max: -1, DeprecatedSince: NotYetDeprecated}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustBuild(t, schemaDoc("", `<fields><int name="I" type="uint64">`+tt.body+`</int></fields>`))
			got := fieldOf[*IntField](t, p, "I").ValidRanges()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ValidRanges() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIntLengths(t *testing.T) {
	tests := []struct {
		def      string
		min, max int
		hi       int64
	}{
		{def: `type="uint8"`, min: 1, max: 1, hi: 255},
		{def: `type="uint32" length="3"`, min: 3, max: 3, hi: 1<<24 - 1},
		{def: `type="int16"`, min: 2, max: 2, hi: 1<<15 - 1},
		{def: `type="uintvar" length="2"`, min: 1, max: 2, hi: 1<<14 - 1},
		{def: `type="uintvar"`, min: 1, max: 10, hi: -1},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			p := mustBuild(t, schemaDoc("", `<fields><int name="I" `+tt.def+`/></fields>`))
			f := fieldOf[*IntField](t, p, "I")
			if f.MinLength() != tt.min || f.MaxLength() != tt.max {
				t.Fatalf("lengths = (%d, %d), want (%d, %d)", f.MinLength(), f.MaxLength(), tt.min, tt.max)
			}
			if _, hi := f.Bounds(); hi != tt.hi {
				t.Fatalf("Bounds() max = %d, want %d", hi, tt.hi)
			}
		})
	}
}

func TestIntInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  string
		code dslerrors.Code
	}{
		{name: "missing type", def: `<int name="I"/>`, code: dslerrors.ErrMissingProperty},
		{name: "unknown type", def: `<int name="I" type="uint7"/>`, code: dslerrors.ErrInvalidValue},
		{name: "length too long", def: `<int name="I" type="uint16" length="3"/>`, code: dslerrors.ErrLength},
		{name: "bad name", def: `<int name="1I" type="uint8"/>`, code: dslerrors.ErrInvalidName},
		{name: "inverted range", def: `<int name="I" type="uint8" validRange="[20, 10]"/>`, code: dslerrors.ErrInvalidValue},
		{name: "since above schema", def: `<int name="I" type="uint8" sinceVersion="9"/>`, code: dslerrors.ErrVersion},
		{name: "removed without deprecated", def: `<int name="I" type="uint8" removed="true"/>`, code: dslerrors.ErrVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustFail(t, tt.code, schemaDoc("", "<fields>"+tt.def+"</fields>"))
		})
	}
}

func TestIntDefaultFromOtherField(t *testing.T) {
	sources := `<enum name="Kind" type="uint8"><validValue name="Small" val="5"/></enum>
		<int name="Neg" type="int8"><special name="M" val="-1"/></int>
		<int name="Huge" type="uint64" defaultValue="0xffffffffffffffff"/>`
	tests := []struct {
		name string
		def  string
		want int64
		fail bool
	}{
		{name: "unsigned enum into signed", def: `<int name="K" type="int16" defaultValue="Kind.Small"/>`, want: 5},
		{name: "unsigned enum into signed enum", def: `<enum name="K" type="int8" defaultValue="Kind.Small"><validValue name="A" val="5"/></enum>`, want: 5},
		{name: "negative into signed", def: `<int name="K" type="int32" defaultValue="Neg.M"/>`, want: -1},
		{name: "negative into unsigned", def: `<int name="K" type="uint64" defaultValue="Neg.M"/>`, fail: true},
		{name: "big unsigned into unsigned", def: `<int name="K" type="uint64" defaultValue="Huge"/>`, want: -1},
		{name: "big unsigned into signed", def: `<int name="K" type="int64" defaultValue="Huge"/>`, fail: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := schemaDoc("", "<fields>"+sources+tt.def+"</fields>")
			if tt.fail {
				mustFail(t, dslerrors.ErrInvalidValue, doc)
				return
			}
			p := mustBuild(t, doc)
			var got int64
			switch f := p.FindField("K").(type) {
			case *IntField:
				got = f.DefaultValue()
			case *EnumField:
				got = f.DefaultValue()
			default:
				t.Fatalf("field K is %T", f)
			}
			if got != tt.want {
				t.Fatalf("DefaultValue() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStrToNumericBigOnlyAboveMaxInt64(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<enum name="Color" type="uint8"><validValue name="Red" val="3"/></enum>
		<int name="Edge" type="uint64" defaultValue="0x7fffffffffffffff">
			<special name="Over" val="0x8000000000000000"/>
		</int>
	</fields>`))
	tests := []struct {
		ref  string
		want int64
		big  bool
	}{
		{ref: "Color.Red", want: 3},
		{ref: "Edge", want: 1<<63 - 1},
		{ref: "Edge.Over", want: -1 << 63, big: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			v, big, ok := p.StrToNumeric(tt.ref)
			if !ok || v != tt.want || big != tt.big {
				t.Fatalf("StrToNumeric(%q) = %d, %v, %v, want %d, %v, true", tt.ref, v, big, ok, tt.want, tt.big)
			}
		})
	}
}

func TestEnumValuesSortedAndUnique(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<enum name="E" type="uint8" defaultValue="B">
			<validValue name="B" val="5"/>
			<validValue name="A" val="1"/>
		</enum>
	</fields>`))
	e := fieldOf[*EnumField](t, p, "E")
	var names []string
	for _, v := range e.Values() {
		names = append(names, v.Name)
	}
	if diff := cmp.Diff([]string{"A", "B"}, names); diff != "" {
		t.Fatalf("Values() order mismatch (-want +got):\n%s", diff)
	}
	if e.DefaultValue() != 5 {
		t.Fatalf("DefaultValue() = %d, want 5", e.DefaultValue())
	}

	mustFail(t, dslerrors.ErrDuplicateID, schemaDoc("", `<fields>
		<enum name="E" type="uint8">
			<validValue name="A" val="1"/>
			<validValue name="B" val="1"/>
		</enum>
	</fields>`))
}

func TestFloatValidRanges(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []ValidRange[float64]
		nan  bool
	}{
		{
			name: "overlap",
			body: `<validRange value="[0.5, 2]"/><validRange value="[0, 1]"/>`,
			want: []ValidRange[float64]{{Min: 0, Max: 2, DeprecatedSince: NotYetDeprecated}},
		},
		{
			name: "touching",
			body: `<validRange value="[0, 1]"/><validRange value="[1, 2]"/>`,
			want: []ValidRange[float64]{{Min: 0, Max: 2, DeprecatedSince: NotYetDeprecated}},
		},
		{
			name: "gap",
			body: `<validRange value="[1.5, 2]"/><validRange value="[0, 1]"/>`,
			want: []ValidRange[float64]{
				{Min: 0, Max: 1, DeprecatedSince: NotYetDeprecated},
				{Min: 1.5, Max: 2, DeprecatedSince: NotYetDeprecated},
			},
		},
		{
			name: "open min",
			body: `<validMin value="1"/>`,
			want: []ValidRange[float64]{{Min: 1, Max: math.Inf(1), DeprecatedSince: NotYetDeprecated}},
		},
		{
			name: "nan is a flag",
			body: `<validValue value="nan"/><validValue value="5"/>`,
			want: []ValidRange[float64]{{Min: 5, Max: 5, DeprecatedSince: NotYetDeprecated}},
			nan:  true,
		},
		{
			name: "nan only",
			body: `<validValue value="NaN"/>`,
			nan:  true,
		},
		{
			name: "full range absorbs",
			body: `<validFullRange value="true"/><validRange value="[0, 1]"/>`,
			want: []ValidRange[float64]{{Min: -math.MaxFloat64, Max: math.MaxFloat64, DeprecatedSince: NotYetDeprecated}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustBuild(t, schemaDoc("", `<fields><float name="F" type="double">`+tt.body+`</float></fields>`))
			f := fieldOf[*FloatField](t, p, "F")
			if diff := cmp.Diff(tt.want, f.ValidRanges()); diff != "" {
				t.Fatalf("ValidRanges() mismatch (-want +got):\n%s", diff)
			}
			if f.HasValidNaN() != tt.nan {
				t.Fatalf("HasValidNaN() = %v, want %v", f.HasValidNaN(), tt.nan)
			}
		})
	}
}

func TestFloatInvalidRanges(t *testing.T) {
	tests := []struct {
		name string
		def  string
	}{
		{name: "nan bound", def: `<float name="F" type="float" validRange="[nan, 1]"/>`},
		{name: "inverted", def: `<float name="F" type="float" validRange="[2, 1]"/>`},
		{name: "unresolved", def: `<float name="F" type="float" validValue="Missing.Value"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustFail(t, dslerrors.ErrInvalidValue, schemaDoc("", "<fields>"+tt.def+"</fields>"))
		})
	}
}

func TestVariantMembers(t *testing.T) {
	members := `
		<bundle name="A"><int name="Id" type="uint8" defaultValue="1"/><int name="X" type="uint32"/></bundle>
		<bundle name="B"><int name="Id" type="uint8" defaultValue="2"/><string name="S" length="3"/></bundle>`
	tests := []struct {
		name     string
		attrs    string
		extra    string
		min, max int
		def      int
	}{
		{name: "no default", min: 4, max: 5, def: NoDefaultMember},
		{name: "default by name", attrs: ` defaultMember="B"`, min: 4, max: 5, def: 1},
		{name: "default by index", attrs: ` defaultMember="0"`, min: 4, max: 5, def: 0},
		{name: "explicit none", attrs: ` defaultMember="none"`, min: 4, max: 5, def: NoDefaultMember},
		{
			name:  "unbounded member",
			extra: `<bundle name="C"><int name="Id" type="uint8"/><string name="S"/></bundle>`,
			min:   1, max: num.Unbounded, def: NoDefaultMember,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustBuild(t, schemaDoc("", `<fields><variant name="V"`+tt.attrs+`>`+members+tt.extra+`</variant></fields>`))
			v := fieldOf[*VariantField](t, p, "V")
			if v.MinLength() != tt.min || v.MaxLength() != tt.max {
				t.Fatalf("lengths = (%d, %d), want (%d, %d)", v.MinLength(), v.MaxLength(), tt.min, tt.max)
			}
			if v.DefaultMember() != tt.def {
				t.Fatalf("DefaultMember() = %d, want %d", v.DefaultMember(), tt.def)
			}
			if got, _, ok := p.StrToNumeric("V.B.Id"); !ok || got != 2 {
				t.Fatalf("StrToNumeric(V.B.Id) = %d, %v", got, ok)
			}
		})
	}
}

func TestVariantInvalidDefinitions(t *testing.T) {
	members := `<bundle name="A"><int name="Id" type="uint8"/></bundle><bundle name="B"><int name="Id" type="uint8"/></bundle>`
	tests := []struct {
		name string
		def  string
		code dslerrors.Code
	}{
		{name: "index out of range", def: `<variant name="V" defaultMember="2">` + members + `</variant>`, code: dslerrors.ErrInvalidValue},
		{name: "unknown member", def: `<variant name="V" defaultMember="C">` + members + `</variant>`, code: dslerrors.ErrUnresolvedRef},
		{
			name: "duplicate member",
			def:  `<variant name="V"><bundle name="A"><int name="Id" type="uint8"/></bundle><bundle name="A"><int name="Id" type="uint8"/></bundle></variant>`,
			code: dslerrors.ErrDuplicateName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustFail(t, tt.code, schemaDoc("", "<fields>"+tt.def+"</fields>"))
		})
	}
}

func TestBitfieldLengths(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<bitfield name="B">
			<int name="Low" type="uint8" bitLength="3"/>
			<set name="Flags" length="1" bitLength="5">
				<bit name="F0" idx="0"/>
				<bit name="F4" idx="4"/>
			</set>
			<enum name="Mode" type="uint8">
				<validValue name="Off" val="0"/>
				<validValue name="On" val="1"/>
			</enum>
		</bitfield>
	</fields>`))
	b := fieldOf[*BitfieldField](t, p, "B")
	if b.MinLength() != 2 || b.MaxLength() != 2 {
		t.Fatalf("lengths = (%d, %d), want (2, 2)", b.MinLength(), b.MaxLength())
	}
	low := fieldOf[*IntField](t, p, "B.Low")
	if _, hi := low.Bounds(); hi != 7 {
		t.Fatalf("Low bounds max = %d, want 7", hi)
	}

	mustFail(t, dslerrors.ErrLength, schemaDoc("", `<fields>
		<bitfield name="B">
			<int name="Low" type="uint8" bitLength="3"/>
			<int name="High" type="uint8" bitLength="4"/>
		</bitfield>
	</fields>`))
}

func TestPrefixedMaxLength(t *testing.T) {
	tests := []struct {
		name string
		def  string
		max  int
	}{
		{
			name: "string with uint8 prefix",
			def:  `<string name="F"><lengthPrefix><int name="Len" type="uint8"/></lengthPrefix></string>`,
			max:  256,
		},
		{
			name: "string with uint16 prefix",
			def:  `<string name="F"><lengthPrefix><int name="Len" type="uint16"/></lengthPrefix></string>`,
			max:  2 + 65535,
		},
		{
			name: "list counted by uint8",
			def: `<list name="F">
				<int name="Elem" type="uint16"/>
				<countPrefix><int name="Count" type="uint8"/></countPrefix>
			</list>`,
			max: 1 + 255*2,
		},
		{
			name: "data with uint64 prefix saturates",
			def:  `<data name="F"><lengthPrefix><int name="Len" type="uint64"/></lengthPrefix></data>`,
			max:  num.Unbounded,
		},
		{
			name: "fixed count list",
			def:  `<list name="F" count="4"><int name="Elem" type="uint32"/></list>`,
			max:  16,
		},
		{
			name: "unbounded string",
			def:  `<string name="F"/>`,
			max:  num.Unbounded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustBuild(t, schemaDoc("", "<fields>"+tt.def+"</fields>"))
			if got := p.FindField("F").MaxLength(); got != tt.max {
				t.Fatalf("MaxLength() = %d, want %d", got, tt.max)
			}
		})
	}
}

func TestPrefixedMaxLengthMonotonic(t *testing.T) {
	prev := 0
	for _, typ := range []string{"uint8", "uint16", "uint32", "uint64"} {
		p := mustBuild(t, schemaDoc("", `<fields><data name="F"><lengthPrefix><int name="Len" type="`+typ+`"/></lengthPrefix></data></fields>`))
		got := p.FindField("F").MaxLength()
		if got < prev {
			t.Fatalf("MaxLength() with %s prefix = %d, smaller than %d", typ, got, prev)
		}
		prev = got
	}
	if prev != num.Unbounded {
		t.Fatalf("MaxLength() with uint64 prefix = %d, want saturation", prev)
	}
}

func TestReuseClonesIndependently(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<bundle name="Base">
			<int name="A" type="uint8" defaultValue="1"/>
			<int name="B" type="uint16"/>
		</bundle>
		<bundle name="Derived" reuse="Base">
			<int name="C" type="uint32"/>
		</bundle>
	</fields>`))
	base := fieldOf[*BundleField](t, p, "Base")
	derived := fieldOf[*BundleField](t, p, "Derived")
	if len(base.Members()) != 2 || len(derived.Members()) != 3 {
		t.Fatalf("members = %d/%d, want 2/3", len(base.Members()), len(derived.Members()))
	}
	if derived.ReusedFrom() != Field(base) {
		t.Fatalf("ReusedFrom() = %v, want Base", derived.ReusedFrom())
	}
	if base.Members()[0] == derived.Members()[0] {
		t.Fatalf("reuse shares member A instead of cloning it")
	}
	if got := derived.Members()[0].Parent(); got != Entity(derived) {
		t.Fatalf("cloned member parent = %v, want Derived", got)
	}
	if got := derived.Members()[0].ExternalRef(false); got != "Derived.A" {
		t.Fatalf("cloned member ExternalRef = %q, want Derived.A", got)
	}
	if derived.MaxLength() != 7 || base.MaxLength() != 3 {
		t.Fatalf("MaxLength() = %d/%d, want 3/7", base.MaxLength(), derived.MaxLength())
	}
}

func TestReuseKindMismatch(t *testing.T) {
	mustFail(t, dslerrors.ErrKindMismatch, schemaDoc("", `<fields>
		<int name="I" type="uint8"/>
		<enum name="E" reuse="I"/>
	</fields>`))
}

func TestSemanticTypeChecks(t *testing.T) {
	mustBuild(t, schemaDoc("", `<fields><int name="V" type="uint8" semanticType="version"/></fields>`))
	mustFail(t, dslerrors.ErrKindMismatch, schemaDoc("", `<fields><string name="V" semanticType="version"/></fields>`))

	res := buildWith(t, Config{}, schemaDoc(` dslVersion="1"`, `<fields><int name="L" type="uint8" semanticType="length"/></fields>`))
	if res.err != nil {
		t.Fatalf("Build() error = %v", res.err)
	}
	if got := res.proto.FindField("L").SemanticType(); got != SemanticNone {
		t.Fatalf("SemanticType() = %v, want none for DSL 1", got)
	}
}

func TestRefFieldForwards(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<int name="Len" type="uint16" semanticType="length"/>
		<ref name="R" field="Len"/>
	</fields>`))
	r := fieldOf[*RefField](t, p, "R")
	if r.MaxLength() != 2 {
		t.Fatalf("MaxLength() = %d, want 2", r.MaxLength())
	}
	if r.SemanticType() != SemanticLength {
		t.Fatalf("SemanticType() = %v, want length", r.SemanticType())
	}
	mustFail(t, dslerrors.ErrUnresolvedRef, schemaDoc("", `<fields><ref name="R" field="Missing"/></fields>`))
}

func TestOptionalCondition(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<messages>
		<message name="M" id="1">
			<int name="Flags" type="uint8"/>
			<optional name="Opt" cond="$Flags != 0" defaultMode="exists">
				<int name="Val" type="uint32"/>
			</optional>
		</message>
	</messages>`))
	m := messageOf(t, p, "M")
	opt, ok := m.Fields()[1].(*OptionalField)
	if !ok {
		t.Fatalf("field 1 is %T", m.Fields()[1])
	}
	if opt.MinLength() != 0 || opt.MaxLength() != 4 {
		t.Fatalf("lengths = (%d, %d), want (0, 4)", opt.MinLength(), opt.MaxLength())
	}

	mustFail(t, dslerrors.ErrCondition, schemaDoc("", `<messages>
		<message name="M" id="1">
			<optional name="Opt" cond="$Missing != 0">
				<int name="Val" type="uint32"/>
			</optional>
		</message>
	</messages>`))
}

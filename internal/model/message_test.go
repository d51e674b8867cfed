package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/cond"
)

func fieldNames(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name())
	}
	return out
}

func TestMessageIDUniqueness(t *testing.T) {
	mustFail(t, dslerrors.ErrDuplicateID, schemaDoc("", `<messages>
		<message name="A" id="1"/>
		<message name="B" id="1"/>
	</messages>`))

	p := mustBuild(t, schemaDoc(` nonUniqueMsgIdAllowed="true"`, `<messages>
		<message name="B" id="1" order="1"/>
		<message name="A" id="1" order="0"/>
		<message name="C" id="0"/>
	</messages>`))
	var names []string
	for _, m := range p.LastSchema().Messages() {
		names = append(names, m.Name())
	}
	if diff := cmp.Diff([]string{"C", "A", "B"}, names); diff != "" {
		t.Fatalf("Messages() order mismatch (-want +got):\n%s", diff)
	}

	mustFail(t, dslerrors.ErrDuplicateID, schemaDoc(` nonUniqueMsgIdAllowed="true"`, `<messages>
		<message name="A" id="1"/>
		<message name="B" id="1"/>
	</messages>`))
}

func TestMessageIDFromEnum(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<enum name="MsgId" type="uint8" semanticType="messageId">
			<validValue name="Ping" val="7"/>
		</enum>
	</fields>
	<message name="Ping" id="MsgId.Ping"/>`))
	if got := messageOf(t, p, "Ping").ID(); got != 7 {
		t.Fatalf("ID() = %d, want 7", got)
	}
	mustFail(t, dslerrors.ErrInvalidValue, schemaDoc("", `<message name="Ping" id="MsgId.Pong"/>`))
	mustFail(t, dslerrors.ErrMissingProperty, schemaDoc("", `<message name="Ping"/>`))
}

func TestMessageReuseRaisesSince(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<messages>
		<message name="A" id="1" sinceVersion="1">
			<int name="F1" type="uint8"/>
			<int name="F2" type="uint8" deprecated="2" removed="true"/>
			<int name="F3" type="uint16" sinceVersion="3"/>
		</message>
		<message name="B" id="2" sinceVersion="2" reuse="A">
			<int name="F4" type="uint8"/>
		</message>
	</messages>`))
	a := messageOf(t, p, "A")
	b := messageOf(t, p, "B")
	if diff := cmp.Diff([]string{"F1", "F3", "F4"}, fieldNames(b.Fields())); diff != "" {
		t.Fatalf("B fields mismatch (-want +got):\n%s", diff)
	}
	var since []uint
	for _, f := range b.Fields() {
		since = append(since, f.SinceVersion())
	}
	if diff := cmp.Diff([]uint{2, 3, 2}, since); diff != "" {
		t.Fatalf("B field versions mismatch (-want +got):\n%s", diff)
	}
	if a.Fields()[0].SinceVersion() != 1 {
		t.Fatalf("A.F1 since = %d, want 1 after reuse", a.Fields()[0].SinceVersion())
	}
	if b.ReusedFrom() != a {
		t.Fatalf("ReusedFrom() = %v, want A", b.ReusedFrom())
	}
	if b.MinLength() != 2 || b.MaxLength() != 4 {
		t.Fatalf("B lengths = (%d, %d), want (2, 4)", b.MinLength(), b.MaxLength())
	}
}

func TestMessageReuseNeedsDSLVersion(t *testing.T) {
	res := buildWith(t, Config{}, schemaDoc(` dslVersion="4"`, `<messages>
		<message name="A" id="1"><int name="F1" type="uint8"/></message>
		<message name="B" id="2" reuse="A"/>
	</messages>`))
	if res.err != nil {
		t.Fatalf("Build() error = %v", res.err)
	}
	if !hasWarning(res.warnings, "message reuse requires DSL version 7") {
		t.Fatalf("warnings = %q, want a reuse warning", res.warnings)
	}
	if got := messageOf(t, res.proto, "B").Fields(); len(got) != 0 {
		t.Fatalf("B fields = %v, want none", fieldNames(got))
	}
}

func TestCopyFieldsFrom(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<fields>
		<bundle name="Header">
			<int name="Ver" type="uint8"/>
			<int name="Flags" type="uint16"/>
		</bundle>
	</fields>
	<interface name="Common">
		<int name="Ver" type="uint8" semanticType="version"/>
	</interface>
	<messages>
		<message name="A" id="1" copyFieldsFrom="Header">
			<int name="Body" type="uint32"/>
		</message>
		<message name="B" id="2" copyFieldsFrom="Common"/>
	</messages>`))
	if diff := cmp.Diff([]string{"Ver", "Flags", "Body"}, fieldNames(messageOf(t, p, "A").Fields())); diff != "" {
		t.Fatalf("A fields mismatch (-want +got):\n%s", diff)
	}
	b := messageOf(t, p, "B")
	if diff := cmp.Diff([]string{"Ver"}, fieldNames(b.Fields())); diff != "" {
		t.Fatalf("B fields mismatch (-want +got):\n%s", diff)
	}
	if b.Fields()[0].Parent() != Entity(b) {
		t.Fatalf("copied field parent = %v, want B", b.Fields()[0].Parent())
	}

	mustFail(t, dslerrors.ErrDuplicateName, schemaDoc("", `<fields>
		<bundle name="Header"><int name="Ver" type="uint8"/></bundle>
	</fields>
	<message name="A" id="1" copyFieldsFrom="Header">
		<int name="Ver" type="uint8"/>
	</message>`))
	mustFail(t, dslerrors.ErrUnresolvedRef, schemaDoc("", `<message name="A" id="1" copyFieldsFrom="Nothing"/>`))
}

func TestMessageReplaceMember(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<messages>
		<message name="A" id="1">
			<int name="F1" type="uint8"/>
			<int name="F2" type="uint8"/>
		</message>
		<message name="B" id="2" reuse="A">
			<replace><int name="F1" type="uint32"/></replace>
		</message>
	</messages>`))
	b := messageOf(t, p, "B")
	if diff := cmp.Diff([]string{"F1", "F2"}, fieldNames(b.Fields())); diff != "" {
		t.Fatalf("B fields mismatch (-want +got):\n%s", diff)
	}
	if got := b.Fields()[0].MaxLength(); got != 4 {
		t.Fatalf("replaced F1 MaxLength() = %d, want 4", got)
	}
}

func TestMessageAliases(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<message name="M" id="1">
		<bundle name="Hdr"><int name="Len" type="uint8"/></bundle>
		<alias name="Length" field="$Hdr.Len"/>
	</message>`))
	m := messageOf(t, p, "M")
	if len(m.Aliases()) != 1 {
		t.Fatalf("Aliases() = %d, want 1", len(m.Aliases()))
	}
	if got := m.Aliases()[0].Target().Field.Name(); got != "Len" {
		t.Fatalf("alias target = %q, want Len", got)
	}
	mustFail(t, dslerrors.ErrUnresolvedRef, schemaDoc("", `<message name="M" id="1">
		<int name="F" type="uint8"/>
		<alias name="A" field="$G"/>
	</message>`))
	mustFail(t, dslerrors.ErrDuplicateName, schemaDoc("", `<message name="M" id="1">
		<int name="F" type="uint8"/>
		<alias name="F" field="$F"/>
	</message>`))
}

func TestMessageConditions(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<messages>
		<message name="A" id="1" construct="$Kind = 1" constructAsReadCond="true">
			<int name="Kind" type="uint8"/>
		</message>
		<message name="B" id="2" copyConstructFrom="A">
			<int name="Kind" type="uint8"/>
		</message>
	</messages>`))
	a := messageOf(t, p, "A")
	b := messageOf(t, p, "B")
	if a.ReadCond() == nil || a.ReadCond().String() != a.Construct().String() {
		t.Fatalf("A readCond = %v, want a copy of %v", a.ReadCond(), a.Construct())
	}
	if b.Construct() == nil || b.Construct().String() != a.Construct().String() {
		t.Fatalf("B construct = %v, want %v", b.Construct(), a.Construct())
	}
	if b.ReadCond() != nil {
		t.Fatalf("B readCond = %v, want nil", b.ReadCond())
	}

	mustFail(t, dslerrors.ErrCondition, schemaDoc("", `<message name="A" id="1" readCond="$Kind = 2" constructAsReadCond="true" construct="$Kind = 1">
		<int name="Kind" type="uint8"/>
	</message>`))
	mustFail(t, dslerrors.ErrCondition, schemaDoc("", `<message name="A" id="1" constructAsReadCond="true">
		<int name="Kind" type="uint8"/>
	</message>`))
	mustFail(t, dslerrors.ErrCondition, schemaDoc("", `<message name="A" id="1"/>
	<message name="B" id="2" copyValidCondFrom="A"/>`))
}

func TestMessageConstructMustBeAndOfEqualities(t *testing.T) {
	mustFail(t, dslerrors.ErrCondition, schemaDoc("", `<message name="A" id="1">
		<int name="Kind" type="uint8"/>
		<construct><or><cond value="$Kind = 1"/><cond value="$Kind = 2"/></or></construct>
	</message>`))
	mustFail(t, dslerrors.ErrCondition, schemaDoc("", `<message name="A" id="1" construct="$Kind &gt; 1">
		<int name="Kind" type="uint8"/>
	</message>`))
}

func TestMessageConditionsNeedDSLVersion(t *testing.T) {
	res := buildWith(t, Config{}, schemaDoc(` dslVersion="6"`, `<message name="A" id="1" construct="$Kind = 1">
		<int name="Kind" type="uint8"/>
	</message>`))
	if res.err != nil {
		t.Fatalf("Build() error = %v", res.err)
	}
	if !hasWarning(res.warnings, `property "construct" requires DSL version 7`) {
		t.Fatalf("warnings = %q, want a construct warning", res.warnings)
	}
	if c := messageOf(t, res.proto, "A").Construct(); c != nil {
		t.Fatalf("Construct() = %v, want nil", c)
	}
}

func TestMessagePlatforms(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<platforms>
		<platform name="Linux"/>
		<platform name="Bare"/>
		<platform name="Rtos"/>
	</platforms>
	<message name="A" id="1" platforms="Linux,Bare"/>
	<message name="B" id="2" platforms="!Linux"/>`))
	if diff := cmp.Diff([]string{"Bare", "Linux"}, messageOf(t, p, "A").Platforms()); diff != "" {
		t.Fatalf("A platforms mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Bare", "Rtos"}, messageOf(t, p, "B").Platforms()); diff != "" {
		t.Fatalf("B platforms mismatch (-want +got):\n%s", diff)
	}
	mustFail(t, dslerrors.ErrUnresolvedRef, schemaDoc("", `<message name="A" id="1" platforms="Windows"/>`))
}

func TestInterfaceReferencesInConditions(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<interface name="Common">
		<int name="Ver" type="uint8" semanticType="version"/>
	</interface>
	<message name="A" id="1">
		<optional name="Opt" cond="%Ver &gt;= 2">
			<int name="Val" type="uint8"/>
		</optional>
	</message>`))
	if p.FindInterface("Common") == nil {
		t.Fatalf("FindInterface(Common) = nil")
	}
	mustFail(t, dslerrors.ErrVersion, schemaDoc(` dslVersion="3"`, `<interface name="Common">
		<int name="Ver" type="uint8"/>
	</interface>
	<message name="A" id="1">
		<optional name="Opt" cond="%Ver = 2"><int name="Val" type="uint8"/></optional>
	</message>`))
}

func TestExternalRefRoundTrip(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<ns name="app">
		<ns name="core">
			<fields>
				<bundle name="Hdr"><int name="Len" type="uint8"/></bundle>
			</fields>
			<message name="Ping" id="1"/>
			<interface name="Base"><int name="Ver" type="uint8"/></interface>
		</ns>
	</ns>`))
	m := messageOf(t, p, "app.core.Ping")
	for _, schemaRef := range []bool{false, true} {
		ref := m.ExternalRef(schemaRef)
		if got := p.FindMessage(ref); got != m {
			t.Fatalf("FindMessage(%q) = %v, want Ping", ref, got)
		}
	}
	if got := m.ExternalRef(true); got != "@proto.app.core.Ping" {
		t.Fatalf("ExternalRef(true) = %q", got)
	}
	inner := fieldOf[*IntField](t, p, "app.core.Hdr.Len")
	if got := inner.ExternalRef(false); got != "app.core.Hdr.Len" {
		t.Fatalf("member ExternalRef = %q", got)
	}
	iface := p.FindInterface("app.core.Base")
	if iface == nil || p.FindInterface(iface.ExternalRef(true)) != iface {
		t.Fatalf("interface round trip failed for %v", iface)
	}
	if ns := p.FindNamespace("app.core"); ns == nil || ns.Message("Ping") != m {
		t.Fatalf("FindNamespace(app.core) = %v", ns)
	}
}

func TestConstructCloneIsIndependent(t *testing.T) {
	p := mustBuild(t, schemaDoc("", `<message name="A" id="1" construct="$Kind = 1" constructAsValidCond="true">
		<int name="Kind" type="uint8"/>
	</message>`))
	m := messageOf(t, p, "A")
	if m.Construct() == nil || m.ValidCond() == nil {
		t.Fatalf("conditions = %v / %v", m.Construct(), m.ValidCond())
	}
	if m.Construct() == m.ValidCond() {
		t.Fatalf("validCond shares the construct tree")
	}
	if diff := cmp.Diff(m.Construct().String(), m.ValidCond().String()); diff != "" {
		t.Fatalf("validCond differs from construct (-want +got):\n%s", diff)
	}
	if _, ok := m.Construct().(*cond.Expr); !ok {
		t.Fatalf("Construct() is %T, want *cond.Expr", m.Construct())
	}
}

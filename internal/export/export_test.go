package export

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/jacoelho/commsdsl/internal/model"
	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

const doc = `<schema name="demo" version="3" endian="big">
	<ns name="app">
		<fields>
			<enum name="MsgId" type="uint8" semanticType="messageId">
				<validValue name="Ping" val="1"/>
			</enum>
		</fields>
		<message name="Ping" id="app.MsgId.Ping" construct="$Kind = 1">
			<int name="Kind" type="uint8" validRange="[1, 4]"/>
			<string name="Note"/>
		</message>
		<frame name="Frame">
			<id name="Id" field="app.MsgId"/>
			<payload name="Data"/>
		</frame>
	</ns>
</schema>`

func build(t *testing.T) *model.Protocol {
	t.Helper()
	root, err := xmlnode.ParseString(doc, "demo.xml")
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	b := model.NewBuilder(model.Config{})
	if err := b.Parse(root); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return p
}

func intPtr(n int) *int { return &n }

func TestView(t *testing.T) {
	v := View(build(t))
	if len(v.Schemas) != 1 {
		t.Fatalf("schemas = %d, want 1", len(v.Schemas))
	}
	s := v.Schemas[0]
	if s.Name != "demo" || s.Version != 3 || s.DSLVersion != 7 || s.Endian != "big" {
		t.Fatalf("schema view = %+v", s)
	}
	if len(s.Namespaces) != 2 || s.Namespaces[1].Ref != "app" {
		t.Fatalf("namespaces = %+v", s.Namespaces)
	}
	app := s.Namespaces[1]

	want := Message{
		Name:      "Ping",
		Ref:       "app.Ping",
		ID:        1,
		MinLength: 1,
		Fields: []Field{
			{
				Name: "Kind", Kind: "int", Ref: "app.Ping.Kind", Type: "uint8",
				MinLength: 1, MaxLength: intPtr(1),
				Ranges: []Range{{Min: 1, Max: 4}},
			},
			{Name: "Note", Kind: "string", Ref: "app.Ping.Note"},
		},
		Construct: "$Kind = 1",
	}
	if diff := cmp.Diff([]Message{want}, app.Messages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}

	wantFrame := Frame{
		Name:      "Frame",
		Ref:       "app.Frame",
		MinLength: 1,
		Layers: []Layer{
			{Name: "Id", Kind: "id", FieldRef: "app.MsgId"},
			{Name: "Data", Kind: "payload"},
		},
	}
	if diff := cmp.Diff([]Frame{wantFrame}, app.Frames); diff != "" {
		t.Fatalf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal(t *testing.T) {
	p := build(t)
	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Protocol
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if diff := cmp.Diff(View(p), back); diff != "" {
		t.Fatalf("decoded view mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"maxLength": null`)) {
		t.Fatalf("unbounded string length not rendered as null:\n%s", buf.String())
	}
}

func TestViewNil(t *testing.T) {
	if v := View(nil); v.Schemas != nil {
		t.Fatalf("View(nil) = %+v", v)
	}
}

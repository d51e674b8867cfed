package commsdsl_test

import (
	"fmt"
	"strings"

	"github.com/jacoelho/commsdsl"
	dslerrors "github.com/jacoelho/commsdsl/errors"
)

func quiet() commsdsl.Options {
	return commsdsl.NewOptions().WithLogFunc(func(dslerrors.Severity, string) {})
}

func ExampleCompile() {
	schemaXML := `<schema name="demo" endian="big">
	<fields>
		<enum name="MsgId" type="uint8" semanticType="messageId">
			<validValue name="Ping" val="1"/>
			<validValue name="Pong" val="2"/>
		</enum>
	</fields>
	<message name="Pong" id="MsgId.Pong"><int name="Seq" type="uint16"/></message>
	<message name="Ping" id="MsgId.Ping"><int name="Seq" type="uint16"/></message>
</schema>`

	p, err := commsdsl.Compile(quiet(), commsdsl.Source{Name: "demo.xml", Reader: strings.NewReader(schemaXML)})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for _, m := range p.LastSchema().Messages() {
		fmt.Println(m.ID(), m.Name(), m.MinLength())
	}
	// Output:
	// 1 Ping 2
	// 2 Pong 2
}

func ExampleBuilder_Build() {
	schemaXML := `<schema name="demo">
	<message name="A" id="1"/>
	<message name="B" id="1"/>
</schema>`

	b := commsdsl.NewBuilder(quiet())
	if err := b.Parse(strings.NewReader(schemaXML), "demo.xml"); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	_, err := b.Build()
	diags, _ := dslerrors.AsDiagnostics(err)
	for _, d := range diags {
		fmt.Println(d.Error())
	}
	// Output: demo.xml:3: [dsl-duplicate-id] message "B" reuses id 1 of message "A"
}

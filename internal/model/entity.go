package model

import (
	"math"
	"strings"

	"github.com/jacoelho/commsdsl/pkg/xmlnode"
)

// NotYetDeprecated is the deprecated version of entities that were never
// deprecated.
const NotYetDeprecated uint = math.MaxUint32

// Entity is any named element of the model with a parent.
type Entity interface {
	Name() string
	// Parent returns the enclosing entity; nil for a schema.
	Parent() Entity
}

// ExtraAttr is an attribute not interpreted by the model, kept verbatim.
type ExtraAttr struct {
	Name  string
	Value string
}

// Kind identifies one of the field kinds.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindEnum
	KindSet
	KindBitfield
	KindBundle
	KindString
	KindData
	KindList
	KindRef
	KindOptional
	KindVariant
)

var kindNames = [...]string{
	KindInt:      "int",
	KindFloat:    "float",
	KindEnum:     "enum",
	KindSet:      "set",
	KindBitfield: "bitfield",
	KindBundle:   "bundle",
	KindString:   "string",
	KindData:     "data",
	KindList:     "list",
	KindRef:      "ref",
	KindOptional: "optional",
	KindVariant:  "variant",
}

// String returns the element name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func kindFromElement(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

func isFieldElement(name string) bool {
	_, ok := kindFromElement(name)
	return ok
}

// SemanticType marks a field's special role.
type SemanticType uint8

const (
	SemanticNone SemanticType = iota
	SemanticVersion
	SemanticMessageID
	SemanticLength
)

// String returns the DSL spelling of the semantic type.
func (s SemanticType) String() string {
	switch s {
	case SemanticVersion:
		return "version"
	case SemanticMessageID:
		return "messageId"
	case SemanticLength:
		return "length"
	default:
		return "none"
	}
}

func parseSemanticType(s string) (SemanticType, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return SemanticNone, true
	case "version":
		return SemanticVersion, true
	case "messageid":
		return SemanticMessageID, true
	case "length":
		return SemanticLength, true
	default:
		return SemanticNone, false
	}
}

// Endian is a byte order.
type Endian uint8

const (
	EndianBig Endian = iota
	EndianLittle
)

// String returns the DSL spelling of the endian.
func (e Endian) String() string {
	if e == EndianLittle {
		return "little"
	}
	return "big"
}

func parseEndian(s string) (Endian, bool) {
	switch strings.ToLower(s) {
	case "big":
		return EndianBig, true
	case "little":
		return EndianLittle, true
	default:
		return EndianBig, false
	}
}

// Sender tells which side sends a message.
type Sender uint8

const (
	SenderBoth Sender = iota
	SenderClient
	SenderServer
)

// String returns the DSL spelling of the sender.
func (s Sender) String() string {
	switch s {
	case SenderClient:
		return "client"
	case SenderServer:
		return "server"
	default:
		return "both"
	}
}

func parseSender(s string) (Sender, bool) {
	switch strings.ToLower(s) {
	case "", "both":
		return SenderBoth, true
	case "client":
		return SenderClient, true
	case "server":
		return SenderServer, true
	default:
		return SenderBoth, false
	}
}

// schemaOf walks up the parent chain to the owning schema.
func schemaOf(e Entity) *Schema {
	for e != nil {
		if s, ok := e.(*Schema); ok {
			return s
		}
		e = e.Parent()
	}
	return nil
}

// namespaceOf returns the closest enclosing namespace.
func namespaceOf(e Entity) *Namespace {
	for e != nil {
		if ns, ok := e.(*Namespace); ok {
			return ns
		}
		e = e.Parent()
	}
	return nil
}

// scopePath joins the names of the enclosing named entities below the schema.
func scopePath(e Entity) string {
	var parts []string
	for cur := e; cur != nil; cur = cur.Parent() {
		if _, ok := cur.(*Schema); ok {
			break
		}
		if n := cur.Name(); n != "" {
			parts = append(parts, n)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// externalRef renders the reference string of e, optionally prefixed with
// the schema selector.
func externalRef(e Entity, schemaRef bool) string {
	path := scopePath(e)
	if !schemaRef {
		return path
	}
	s := schemaOf(e)
	if s == nil {
		return path
	}
	return string(SchemaRefPrefix) + s.Name() + "." + path
}

func position(elem xmlnode.Element) string {
	return xmlnode.Position(elem)
}

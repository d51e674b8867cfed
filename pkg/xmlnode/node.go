// Package xmlnode defines the element tree consumed by the schema model and
// provides a reference implementation built on encoding/xml.
package xmlnode

import "strconv"

// Element is the minimal element view used while ingesting schema documents.
type Element interface {
	Name() string
	// Attributes returns attributes in document order.
	Attributes() []Attr
	Attribute(name string) (string, bool)
	// Children returns child elements in document order.
	Children() []Element
	Parent() Element // Parent returns the parent element; nil for the root.
	// Text returns the character data placed directly under the element.
	Text() string
	// Document names the source the element was read from.
	Document() string
	// Line is the 1-based line of the element start tag, 0 when unknown.
	Line() int
}

// Attr exposes attribute name and value.
type Attr interface {
	Name() string
	Value() string
}

// Position formats the provenance of an element as "document:line".
func Position(e Element) string {
	if e == nil {
		return ""
	}
	doc := e.Document()
	if doc == "" {
		doc = "<input>"
	}
	if e.Line() <= 0 {
		return doc
	}
	return doc + ":" + strconv.Itoa(e.Line())
}

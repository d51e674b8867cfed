package xmlnode

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// Parse builds an element tree from XML input. The document name is recorded
// on every element for diagnostics.
func Parse(r io.Reader, document string) (Element, error) {
	decoder := xml.NewDecoder(r)

	var stack []*element
	var root *element
	rootClosed := false
	line := 1

	for {
		tok, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", document, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if rootClosed {
				return nil, fmt.Errorf("parse %s: unexpected element %s after document end", document, t.Name.Local)
			}
			elem := &element{
				name:     t.Name.Local,
				attrs:    convertAttrs(t.Attr),
				document: document,
				line:     line,
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, elem)
				elem.parent = parent
			} else {
				root = elem
			}
			stack = append(stack, elem)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == 0 && root != nil {
					rootClosed = true
				}
			}

		case xml.CharData:
			if len(stack) == 0 {
				if !isIgnorableOutsideRoot(string(t)) {
					return nil, fmt.Errorf("parse %s: unexpected character data outside root element", document)
				}
				break
			}
			stack[len(stack)-1].text += string(t)
		}

		// InputPos reports the position after tok; the start line of the next
		// token is the line this one ended on.
		l, _ := decoder.InputPos()
		line = l
	}

	if root == nil {
		return nil, fmt.Errorf("parse %s: %w", document, io.ErrUnexpectedEOF)
	}
	return root, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(data, document string) (Element, error) {
	return Parse(strings.NewReader(data), document)
}

func isIgnorableOutsideRoot(data string) bool {
	for _, r := range data {
		if r == '\uFEFF' {
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

type element struct {
	name     string
	attrs    []attr
	children []*element
	parent   *element
	text     string
	document string
	line     int
}

func (e *element) Name() string {
	return e.name
}

// Attributes returns a copy of the element attributes.
func (e *element) Attributes() []Attr {
	result := make([]Attr, len(e.attrs))
	for i := range e.attrs {
		result[i] = e.attrs[i]
	}
	return result
}

func (e *element) Attribute(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// Children returns a copy of the child element slice.
func (e *element) Children() []Element {
	result := make([]Element, len(e.children))
	for i, child := range e.children {
		result[i] = child
	}
	return result
}

func (e *element) Parent() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func (e *element) Text() string {
	return e.text
}

func (e *element) Document() string {
	return e.document
}

func (e *element) Line() int {
	return e.line
}

type attr struct {
	name  string
	value string
}

func (a attr) Name() string {
	return a.name
}

func (a attr) Value() string {
	return a.value
}

// convertAttrs drops namespace declarations and keeps prefixed names as
// "prefix:local" so pass-through attributes survive unmodified.
func convertAttrs(xmlAttrs []xml.Attr) []attr {
	attrs := make([]attr, 0, len(xmlAttrs))
	for _, a := range xmlAttrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		name := a.Name.Local
		if a.Name.Space != "" {
			name = a.Name.Space + ":" + a.Name.Local
		}
		attrs = append(attrs, attr{name: name, value: a.Value})
	}
	return attrs
}

package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse decodes an XML document into an element tree. Namespace prefixes
// are resolved to URIs; whitespace-only text between elements is dropped.
func Parse(s string) (*Element, error) {
	decoder := xml.NewDecoder(strings.NewReader(strings.TrimLeft(s, " \t\r\n")))

	var root *Element
	var current *Element
	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := New(t.Name.Space, t.Name.Local)
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.SetAttr(a.Name.Local, a.Value)
			}
			if current == nil {
				if root != nil {
					return nil, fmt.Errorf("parsing xml: multiple root elements")
				}
				root = el
			} else {
				current.Append(el)
			}
			current = el
		case xml.EndElement:
			if current != nil {
				current = current.parent
			}
		case xml.CharData:
			if current == nil {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text != "" {
				current.Text += text
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parsing xml: no root element")
	}
	if current != nil {
		return nil, fmt.Errorf("parsing xml: unclosed element <%s>", current.Tag)
	}
	return root, nil
}

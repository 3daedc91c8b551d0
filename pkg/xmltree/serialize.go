package xmltree

import (
	"encoding/xml"
	"strings"
)

// String serializes the tree with two-space indentation and a trailing
// newline. Namespaces are emitted as default xmlns declarations on the
// elements where the namespace changes.
func (e *Element) String() string {
	var b strings.Builder
	e.write(&b, "", "", true)
	return b.String()
}

// Compact serializes the tree on a single line without a trailing newline.
func (e *Element) Compact() string {
	var b strings.Builder
	e.write(&b, "", "", false)
	return b.String()
}

func (e *Element) write(b *strings.Builder, indent, inheritedNS string, pretty bool) {
	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(e.Tag)
	if e.Space != inheritedNS {
		b.WriteString(` xmlns="`)
		writeEscaped(b, e.Space)
		b.WriteString(`"`)
	}
	for _, a := range e.attrs {
		b.WriteString(" ")
		b.WriteString(a.Name)
		b.WriteString(`="`)
		writeEscaped(b, a.Value)
		b.WriteString(`"`)
	}

	if len(e.children) == 0 && e.Text == "" {
		b.WriteString("/>")
		if pretty {
			b.WriteString("\n")
		}
		return
	}

	b.WriteString(">")
	if len(e.children) == 0 {
		writeEscaped(b, e.Text)
		b.WriteString("</")
		b.WriteString(e.Tag)
		b.WriteString(">")
		if pretty {
			b.WriteString("\n")
		}
		return
	}

	if e.Text != "" {
		writeEscaped(b, e.Text)
	}
	if pretty {
		b.WriteString("\n")
	}
	childIndent := ""
	if pretty {
		childIndent = indent + "  "
	}
	for _, c := range e.children {
		c.write(b, childIndent, e.Space, pretty)
	}
	b.WriteString(indent)
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteString(">")
	if pretty {
		b.WriteString("\n")
	}
}

func writeEscaped(b *strings.Builder, s string) {
	// EscapeText never fails on a strings.Builder.
	_ = xml.EscapeText(b, []byte(s))
}

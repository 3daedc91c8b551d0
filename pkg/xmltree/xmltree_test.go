package xmltree

import (
	"strings"
	"testing"
)

func TestParseResolvesNamespaces(t *testing.T) {
	root, err := Parse(`<config xmlns="urn:a"><item xmlns:b="urn:b"><b:name>x</b:name></item></config>`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Space != "urn:a" || root.Tag != "config" {
		t.Errorf("root = {%s}%s, want {urn:a}config", root.Space, root.Tag)
	}
	item := root.FindChild("item")
	if item == nil {
		t.Fatal("item child not found")
	}
	if item.Space != "urn:a" {
		t.Errorf("item inherits namespace %q, want urn:a", item.Space)
	}
	name := item.FindChild("name")
	if name == nil {
		t.Fatal("name child not found")
	}
	if name.Space != "urn:b" {
		t.Errorf("name namespace = %q, want urn:b", name.Space)
	}
	if name.Text != "x" {
		t.Errorf("name text = %q, want x", name.Text)
	}
}

func TestParseDropsBlankText(t *testing.T) {
	root, err := Parse("<root>\n  <a>1</a>\n</root>\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Text != "" {
		t.Errorf("root text = %q, want empty", root.Text)
	}
	if got := root.FindChild("a").Text; got != "1" {
		t.Errorf("a text = %q, want 1", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"unclosed", "<root><a></root>"},
		{"garbage", "not xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestStringEmptyRoot(t *testing.T) {
	if got := New("", "root").String(); got != "<root/>\n" {
		t.Errorf("String() = %q, want %q", got, "<root/>\n")
	}
}

func TestStringEmitsNamespaceOnChange(t *testing.T) {
	root := New("urn:a", "config")
	root.NewChild("urn:a", "same")
	root.NewChild("urn:b", "other")

	got := root.Compact()
	want := `<config xmlns="urn:a"><same/><other xmlns="urn:b"/></config>`
	if got != want {
		t.Errorf("Compact() = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	input := `<configuration xmlns="urn:junos"><interfaces><interface><name>xe-0/0/1</name></interface></interfaces></configuration>`
	root, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := root.Compact(); got != input {
		t.Errorf("round trip = %q, want %q", got, input)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	root, _ := Parse("<root><a>1</a></root>")
	dup := root.Copy()
	dup.FindChild("a").Text = "2"
	dup.NewChild("", "b")

	if root.FindChild("a").Text != "1" {
		t.Error("mutating the copy changed the original leaf")
	}
	if root.FindChild("b") != nil {
		t.Error("mutating the copy added a child to the original")
	}
	if dup.Parent() != nil {
		t.Error("copy should be detached")
	}
}

func TestAppendReparents(t *testing.T) {
	a, _ := Parse("<a><x/></a>")
	b := New("", "b")
	x := a.FindChild("x")
	b.Append(x)

	if a.FindChild("x") != nil {
		t.Error("x should be detached from a")
	}
	if x.Parent() != b {
		t.Error("x parent should be b")
	}
}

func TestRemove(t *testing.T) {
	root, _ := Parse("<root><a/><b/><a/></root>")
	for _, el := range root.FindChildren("a") {
		el.Remove()
	}
	if len(root.Children()) != 1 || root.Children()[0].Tag != "b" {
		t.Errorf("remaining children = %v", root.Children())
	}
}

func TestAttributes(t *testing.T) {
	root, _ := Parse(`<root operation="merge"><a operation="delete"/></root>`)
	if got, _ := root.Attr("operation"); got != "merge" {
		t.Errorf("root operation = %q, want merge", got)
	}

	root.SetAttr("node_type", "container")
	if got, _ := root.Attr("node_type"); got != "container" {
		t.Errorf("node_type = %q, want container", got)
	}

	root.DelAttrRecursive("operation")
	if _, ok := root.Attr("operation"); ok {
		t.Error("root operation should be removed")
	}
	if _, ok := root.FindChild("a").Attr("operation"); ok {
		t.Error("child operation should be removed")
	}
}

func TestPath(t *testing.T) {
	root, _ := Parse("<root><configuration><system/></configuration></root>")
	system := root.FindChild("configuration").FindChild("system")
	if got := system.Path(); got != "/root/configuration/system" {
		t.Errorf("Path() = %q, want /root/configuration/system", got)
	}
}

func TestTextEscaping(t *testing.T) {
	root := New("", "root")
	leaf := root.NewChild("", "desc")
	leaf.Text = `a < b & "c"`

	serialized := root.Compact()
	if strings.Contains(serialized, "a < b") {
		t.Errorf("text should be escaped: %s", serialized)
	}

	parsed, err := Parse(serialized)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := parsed.FindChild("desc").Text; got != leaf.Text {
		t.Errorf("escaped round trip = %q, want %q", got, leaf.Text)
	}
}

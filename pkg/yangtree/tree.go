package yangtree

import (
	"strings"

	"github.com/netmimic/netmimic/pkg/xmltree"
)

// Tree is a built schema tree. The underlying XML is treated as immutable;
// accessors hand out copies or read-only views.
type Tree struct {
	xml *xmltree.Element
}

// NewTree wraps an already-built schema tree, e.g. one loaded from part
// files.
func NewTree(xml *xmltree.Element) *Tree {
	return &Tree{xml: xml}
}

// Load deserializes a schema tree written by String.
func Load(serialized string) (*Tree, error) {
	xml, err := xmltree.Parse(serialized)
	if err != nil {
		return nil, NewBuildError("loading yang tree: %v", err)
	}
	return &Tree{xml: xml}, nil
}

// XML returns a deep copy of the schema tree.
func (t *Tree) XML() *xmltree.Element {
	return t.xml.Copy()
}

// String serializes the schema tree.
func (t *Tree) String() string {
	return t.xml.String()
}

// Root returns the navigation root.
func (t *Tree) Root() *Node {
	return &Node{tree: t.xml}
}

// Namespace returns the namespace URI of the named module.
func (t *Tree) Namespace(moduleName string) (string, error) {
	for _, module := range t.xml.FindChildren("module") {
		if module.AttrDefault("name", "") == moduleName {
			return module.Space, nil
		}
	}
	return "", NewUnknownNodeError("yang module '%s' does not exist", moduleName)
}

// Validate walks a configuration tree and fails on the first element whose
// tag is not a schema child of its parent. Children of the configuration
// root are resolved against the modules. Type, must, and when constraints
// are not evaluated.
func (t *Tree) Validate(config *xmltree.Element) error {
	return validateRec(config, t.Root())
}

func validateRec(parentConfig *xmltree.Element, parentNode *Node) error {
	for _, child := range parentConfig.Children() {
		childNode, err := parentNode.Child(child.Tag)
		if err != nil {
			return err
		}
		if err := validateRec(child, childNode); err != nil {
			return err
		}
	}
	return nil
}

// Node is a position in the schema tree. A node with no schema element is
// the root; its children are resolved by probing every module.
type Node struct {
	tree   *xmltree.Element
	schema *xmltree.Element
}

// Name returns the node's schema name, or "" for the root.
func (n *Node) Name() string {
	if n.schema == nil {
		return ""
	}
	return n.schema.AttrDefault("name", "")
}

// Kind returns one of container, list, leaf, leaf-list, choice, case, or
// "" for the root.
func (n *Node) Kind() string {
	if n.schema == nil {
		return ""
	}
	return n.schema.Tag
}

// Namespace returns the node's module namespace URI, or "" for the root.
func (n *Node) Namespace() string {
	if n.schema == nil {
		return ""
	}
	return n.schema.Space
}

// Path returns the slash-separated schema path of the node.
func (n *Node) Path() string {
	if n.schema == nil {
		return "/"
	}
	var names []string
	for node := n; node != nil && node.schema != nil; node = node.Parent() {
		names = append([]string{node.Name()}, names...)
	}
	return "/" + strings.Join(names, "/")
}

// Get resolves an absolute slash-separated path from the root.
func (n *Node) Get(path string) (*Node, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, NewUnknownNodeError("invalid yang path '%s'", path)
	}
	node := &Node{tree: n.tree}
	if path == "/" {
		return node, nil
	}
	for _, name := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		child, err := node.Child(name)
		if err != nil {
			return nil, err
		}
		node = child
	}
	return node, nil
}

// Child resolves a data-node child by name: local container, list,
// leaf-list, and leaf children first, then the cases of every child choice,
// descending recursively. At the root, each module is probed in turn.
func (n *Node) Child(name string) (*Node, error) {
	if n.schema == nil {
		for _, module := range n.tree.FindChildren("module") {
			if found := findDataChild(module, name); found != nil {
				return &Node{tree: n.tree, schema: found}, nil
			}
		}
		return nil, NewUnknownNodeError("no yang module defines '%s'", name)
	}

	if found := findDataChild(n.schema, name); found != nil {
		return &Node{tree: n.tree, schema: found}, nil
	}
	return nil, NewUnknownNodeError("YANG node '%s' is not defined in '%s'", name, n.Path())
}

func findDataChild(schema *xmltree.Element, name string) *xmltree.Element {
	for _, kind := range []string{"container", "list", "leaf-list", "leaf"} {
		for _, child := range schema.FindChildren(kind) {
			if child.AttrDefault("name", "") == name {
				return child
			}
		}
	}
	for _, choice := range schema.FindChildren("choice") {
		for _, caseEl := range choice.FindChildren("case") {
			if found := findDataChild(caseEl, name); found != nil {
				return found
			}
		}
	}
	return nil
}

// Parent returns the enclosing data node, skipping choice and case levels.
// The parent of a top-level node is the root; the root has no parent.
func (n *Node) Parent() *Node {
	if n.schema == nil {
		return nil
	}
	schema := n.schema
	for {
		schema = schema.Parent()
		if schema == nil || schema.Tag == "module" {
			return &Node{tree: n.tree}
		}
		if schema.Tag != "choice" && schema.Tag != "case" {
			return &Node{tree: n.tree, schema: schema}
		}
	}
}

// ChoiceID identifies one enclosing case of a choice. The JSON encoding is
// stored in config-tree choice_ids attributes.
type ChoiceID struct {
	ChoiceNamespace string `json:"choice_namespace"`
	ChoiceName      string `json:"choice_name"`
	CaseNamespace   string `json:"case_namespace"`
	CaseName        string `json:"case_name"`
}

// ChoiceIDs returns the enclosing case/choice pairs, innermost first. A
// node outside any choice yields nil.
func (n *Node) ChoiceIDs() ([]ChoiceID, error) {
	if n.schema == nil {
		return nil, nil
	}

	var ids []ChoiceID
	schema := n.schema
	for {
		schema = schema.Parent()
		if schema == nil || schema.Tag != "case" {
			break
		}
		caseNamespace := schema.Space
		caseName := schema.AttrDefault("name", "")

		schema = schema.Parent()
		if schema == nil || schema.Tag != "choice" {
			return nil, NewBuildError("case '%s' has no enclosing choice", caseName)
		}

		ids = append(ids, ChoiceID{
			ChoiceNamespace: schema.Space,
			ChoiceName:      schema.AttrDefault("name", ""),
			CaseNamespace:   caseNamespace,
			CaseName:        caseName,
		})
	}
	return ids, nil
}

// Keys returns a list node's key leaf names in declaration order.
func (n *Node) Keys() ([]string, error) {
	if n.schema == nil {
		return nil, NewUnknownNodeError("the root node has no keys")
	}
	if n.schema.Tag != "list" {
		return nil, NewUnknownNodeError("'%s' node '%s' has no keys; only list nodes have keys", n.Kind(), n.Name())
	}
	keyEl := n.schema.FindChild("key")
	if keyEl == nil {
		return nil, nil
	}
	return strings.Fields(keyEl.AttrDefault("value", "")), nil
}

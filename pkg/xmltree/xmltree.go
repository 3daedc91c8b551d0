// Package xmltree implements a namespaced XML element tree with parent
// links, ordered attributes, and deep-copy semantics. Tags are stored as
// (namespace URI, local name) pairs so elements from different modules can
// share a local name without colliding.
package xmltree

// Attr is a single element attribute. Attribute order is preserved.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of the tree. Space holds the namespace URI ("" for
// no namespace), Tag the local name.
type Element struct {
	Space    string
	Tag      string
	Text     string
	attrs    []Attr
	children []*Element
	parent   *Element
}

// New creates a detached element with the given namespace URI and local name.
func New(space, tag string) *Element {
	return &Element{Space: space, Tag: tag}
}

// Parent returns the parent element, or nil for a root.
func (e *Element) Parent() *Element {
	return e.parent
}

// Children returns the child elements in document order. The returned slice
// is a snapshot; removing children during iteration is safe.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// NewChild creates and appends a child element.
func (e *Element) NewChild(space, tag string) *Element {
	child := New(space, tag)
	e.Append(child)
	return child
}

// Append attaches child as the last child of e, detaching it from any
// previous parent.
func (e *Element) Append(child *Element) {
	if child.parent != nil {
		child.parent.removeChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
}

// Remove detaches e from its parent. Detaching a root is a no-op.
func (e *Element) Remove() {
	if e.parent == nil {
		return
	}
	e.parent.removeChild(e)
	e.parent = nil
}

func (e *Element) removeChild(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

// FindChild returns the first child whose local name equals tag, or nil.
func (e *Element) FindChild(tag string) *Element {
	for _, c := range e.children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// FindChildren returns every child whose local name equals tag.
func (e *Element) FindChildren(tag string) []*Element {
	var out []*Element
	for _, c := range e.children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// FindChildNS returns the first child matching both namespace URI and local
// name, or nil.
func (e *Element) FindChildNS(space, tag string) *Element {
	for _, c := range e.children {
		if c.Space == space && c.Tag == tag {
			return c
		}
	}
	return nil
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrDefault returns the named attribute's value, or def when absent.
func (e *Element) AttrDefault(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr sets an attribute, replacing any existing value.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs[i].Value = value
			return
		}
	}
	e.attrs = append(e.attrs, Attr{Name: name, Value: value})
}

// DelAttr removes an attribute. Missing attributes are ignored.
func (e *Element) DelAttr(name string) {
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			return
		}
	}
}

// DelAttrRecursive removes an attribute from e and every descendant.
func (e *Element) DelAttrRecursive(name string) {
	e.Walk(func(el *Element) {
		el.DelAttr(name)
	})
}

// Attrs returns the attributes in document order.
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Walk visits e and every descendant in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children() {
		c.Walk(fn)
	}
}

// Copy returns a deep copy of e detached from any parent.
func (e *Element) Copy() *Element {
	dup := &Element{
		Space: e.Space,
		Tag:   e.Tag,
		Text:  e.Text,
	}
	if len(e.attrs) > 0 {
		dup.attrs = make([]Attr, len(e.attrs))
		copy(dup.attrs, e.attrs)
	}
	for _, c := range e.children {
		childCopy := c.Copy()
		childCopy.parent = dup
		dup.children = append(dup.children, childCopy)
	}
	return dup
}

// Parents returns the ancestor chain of e, nearest first.
func (e *Element) Parents() []*Element {
	var out []*Element
	for p := e.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Path returns a slash-separated path of local names from the root to e,
// used in diagnostics.
func (e *Element) Path() string {
	parents := e.Parents()
	path := ""
	for i := len(parents) - 1; i >= 0; i-- {
		path += "/" + parents[i].Tag
	}
	return path + "/" + e.Tag
}

// Equals reports whether two trees serialize identically.
func (e *Element) Equals(other *Element) bool {
	return e.Compact() == other.Compact()
}

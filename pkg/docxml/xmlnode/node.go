package xmlnode

import "strings"

// Attr is a single attribute with its name exactly as written in the source,
// prefix included.
type Attr struct {
	Name  string
	Value string
}

// Child is any member of a Node's ordered child sequence.
type Child interface {
	isChild()
}

// Node is an XML element. Name keeps the source spelling ("w:p", not "p").
// Attrs and Children preserve source order.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []Child

	// raw is the element's original serialization, nil for constructed nodes.
	raw   []byte
	dirty bool
}

func (*Node) isChild() {}

// Text is character data. Value is the decoded text; raw keeps the source
// bytes (entities as written) for verbatim re-emission.
type Text struct {
	Value string

	raw []byte
}

func (*Text) isChild() {}

// Raw returns the text's original serialization (entities as written), or
// nil if the text was constructed.
func (t *Text) Raw() []byte {
	return t.raw
}

// RawBlob is an opaque slice of the original serialization: an unrecognized
// element, a comment, a processing instruction. It is emitted verbatim.
type RawBlob struct {
	Bytes []byte
}

func (*RawBlob) isChild() {}

// New creates a constructed element node with no source backing.
func New(name string) *Node {
	return &Node{Name: name}
}

// NewText creates a constructed text child.
func NewText(value string) *Text {
	return &Text{Value: value}
}

// LocalName returns the element name with any namespace prefix removed.
func (n *Node) LocalName() string {
	return localName(n.Name)
}

func localName(name string) string {
	if idx := strings.IndexByte(name, ':'); idx != -1 {
		return name[idx+1:]
	}
	return name
}

// Raw returns the element's original serialization, or nil if the node was
// constructed rather than parsed.
func (n *Node) Raw() []byte {
	return n.raw
}

// MarkDirty records that the node was mutated, forcing structured
// serialization for it and every ancestor that contains it.
func (n *Node) MarkDirty() {
	n.dirty = true
}

// Clean reports whether the whole subtree can be re-emitted from its
// original bytes.
func (n *Node) Clean() bool {
	if n.raw == nil || n.dirty {
		return false
	}
	for _, c := range n.Children {
		switch ch := c.(type) {
		case *Node:
			if !ch.Clean() {
				return false
			}
		case *Text:
			if ch.raw == nil {
				return false
			}
		case *RawBlob:
			// Always verbatim.
		}
	}
	return true
}

// Attr returns the value of the attribute with the given source name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrLocal returns the value of the first attribute whose local name (prefix
// stripped) matches.
func (n *Node) AttrLocal(local string) (string, bool) {
	for _, a := range n.Attrs {
		if localName(a.Name) == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute, preserving position for replacements.
func (n *Node) SetAttr(name, value string) {
	n.dirty = true
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttr removes the named attribute if present.
func (n *Node) RemoveAttr(name string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			n.dirty = true
			return
		}
	}
}

// Append adds children to the end of the sequence.
func (n *Node) Append(children ...Child) {
	n.dirty = true
	n.Children = append(n.Children, children...)
}

// Insert places a child at the given index.
func (n *Node) Insert(idx int, c Child) {
	n.dirty = true
	n.Children = append(n.Children, nil)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = c
}

// RemoveChild removes the child at the given index.
func (n *Node) RemoveChild(idx int) {
	n.dirty = true
	n.Children = append(n.Children[:idx], n.Children[idx+1:]...)
}

// Find returns the first child element with the given local name.
func (n *Node) Find(local string) *Node {
	for _, c := range n.Children {
		if el, ok := c.(*Node); ok && el.LocalName() == local {
			return el
		}
	}
	return nil
}

// FindAll returns every child element with the given local name, in order.
func (n *Node) FindAll(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if el, ok := c.(*Node); ok && el.LocalName() == local {
			out = append(out, el)
		}
	}
	return out
}

// Elements returns all child elements in order.
func (n *Node) Elements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if el, ok := c.(*Node); ok {
			out = append(out, el)
		}
	}
	return out
}

// InnerText concatenates the decoded text content of the subtree. RawBlob
// children contribute nothing; their content is opaque at this layer.
func (n *Node) InnerText() string {
	var sb strings.Builder
	n.innerText(&sb)
	return sb.String()
}

func (n *Node) innerText(sb *strings.Builder) {
	for _, c := range n.Children {
		switch ch := c.(type) {
		case *Text:
			sb.WriteString(ch.Value)
		case *Node:
			ch.innerText(sb)
		}
	}
}

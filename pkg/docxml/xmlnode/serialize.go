package xmlnode

import (
	"bytes"
	"strings"
)

// Serialize writes the tree back to XML text. Clean subtrees are emitted from
// their captured source bytes; everything else is serialized from the
// structured form with standard escaping.
func (t *Tree) Serialize() []byte {
	var buf bytes.Buffer
	buf.Write(t.Prolog)
	writeNode(&buf, t.Root)
	buf.Write(t.Trailer)
	return buf.Bytes()
}

// SerializeNode serializes a single subtree.
func SerializeNode(n *Node) []byte {
	var buf bytes.Buffer
	writeNode(&buf, n)
	return buf.Bytes()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	if n.Clean() {
		buf.Write(n.raw)
		return
	}

	buf.WriteByte('<')
	buf.WriteString(n.Name)
	for _, a := range n.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		buf.WriteString(EscapeAttr(a.Value))
		buf.WriteByte('"')
	}
	if len(n.Children) == 0 {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	for _, c := range n.Children {
		switch ch := c.(type) {
		case *Node:
			writeNode(buf, ch)
		case *Text:
			if ch.raw != nil {
				buf.Write(ch.raw)
			} else {
				buf.WriteString(EscapeText(ch.Value))
			}
		case *RawBlob:
			buf.Write(ch.Bytes)
		}
	}
	buf.WriteString("</")
	buf.WriteString(n.Name)
	buf.WriteByte('>')
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeAttr escapes a string for use inside a double-quoted attribute value.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// EscapeText escapes a string for use as element character data.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

package xmlnode

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Tree is one parsed XML part: the prolog bytes before the root element (XML
// declaration, comments, whitespace), the root element itself, and any
// trailing bytes after it. Prolog and Trailer are emitted verbatim.
type Tree struct {
	Prolog  []byte
	Root    *Node
	Trailer []byte
}

// Parse parses a complete XML part. Element names, attribute order, and raw
// byte ranges are preserved exactly as written.
func Parse(data []byte) (*Tree, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		tree      Tree
		stack     []*Node
		starts    []int64
		rootStart int64 = -1
	)

	for {
		prev := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml at offset %d: %w", prev, err)
		}
		cur := dec.InputOffset()
		raw := data[prev:cur]

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				if tree.Root != nil {
					return nil, fmt.Errorf("parse xml at offset %d: multiple root elements", prev)
				}
				rootStart = prev
			}
			node, err := newParsedNode(raw, t)
			if err != nil {
				return nil, fmt.Errorf("parse xml at offset %d: %w", prev, err)
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			starts = append(starts, prev)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml at offset %d: unmatched end tag", prev)
			}
			node := stack[len(stack)-1]
			node.raw = data[starts[len(starts)-1]:cur]
			stack = stack[:len(stack)-1]
			starts = starts[:len(starts)-1]
			if len(stack) == 0 {
				tree.Root = node
				tree.Prolog = data[:rootStart]
			}

		case xml.CharData:
			if len(stack) == 0 {
				// Prolog/trailer whitespace, captured by the byte slices.
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Text{
				Value: string(t),
				raw:   raw,
			})

		case xml.Comment, xml.ProcInst, xml.Directive:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &RawBlob{Bytes: raw})
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("parse xml: unterminated element <%s>", stack[len(stack)-1].Name)
	}
	if tree.Root == nil {
		return nil, fmt.Errorf("parse xml: no root element")
	}
	rootEnd := rootStart + int64(len(tree.Root.raw))
	tree.Trailer = data[rootEnd:]
	return &tree, nil
}

// newParsedNode builds a Node for a start tag. Names come from the raw tag
// text so prefixes survive exactly as written; values come from the decoded
// token so entity handling stays with encoding/xml.
func newParsedNode(rawTag []byte, t xml.StartElement) (*Node, error) {
	name, attrNames, err := scanTag(rawTag)
	if err != nil {
		return nil, err
	}
	if len(attrNames) != len(t.Attr) {
		return nil, fmt.Errorf("attribute count mismatch in <%s>", name)
	}
	node := &Node{Name: name}
	if len(attrNames) > 0 {
		node.Attrs = make([]Attr, len(attrNames))
		for i, an := range attrNames {
			node.Attrs[i] = Attr{Name: an, Value: t.Attr[i].Value}
		}
	}
	return node, nil
}

// scanTag extracts the element name and attribute names, as written, from a
// start tag the decoder already validated.
func scanTag(raw []byte) (string, []string, error) {
	if len(raw) < 3 || raw[0] != '<' {
		return "", nil, fmt.Errorf("not a start tag: %q", raw)
	}
	i := 1
	start := i
	for i < len(raw) && !isTagDelim(raw[i]) {
		i++
	}
	name := string(raw[start:i])
	if name == "" {
		return "", nil, fmt.Errorf("empty element name in %q", raw)
	}

	var attrs []string
	for {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || raw[i] == '>' || raw[i] == '/' {
			return name, attrs, nil
		}
		start = i
		for i < len(raw) && raw[i] != '=' && !isSpace(raw[i]) {
			i++
		}
		attrs = append(attrs, string(raw[start:i]))
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '=') {
			i++
		}
		if i >= len(raw) || (raw[i] != '"' && raw[i] != '\'') {
			return "", nil, fmt.Errorf("malformed attribute in %q", raw)
		}
		quote := raw[i]
		i++
		for i < len(raw) && raw[i] != quote {
			i++
		}
		if i >= len(raw) {
			return "", nil, fmt.Errorf("unterminated attribute value in %q", raw)
		}
		i++
	}
}

func isTagDelim(b byte) bool {
	return isSpace(b) || b == '>' || b == '/'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

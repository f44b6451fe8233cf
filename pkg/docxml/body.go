package docxml

import "fmt"

// Paragraphs returns the body's paragraphs in order, skipping other blocks.
func (b *Body) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, el := range b.Elements {
		if p, ok := el.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the body's tables in order.
func (b *Body) Tables() []*Table {
	var out []*Table
	for _, el := range b.Elements {
		if t, ok := el.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// AppendParagraph adds a paragraph holding the given text at the end of the
// body.
func (b *Body) AppendParagraph(text string) *Paragraph {
	p := &Paragraph{dirty: true}
	if text != "" {
		p.Content = append(p.Content, NewRun(text))
	}
	b.Elements = append(b.Elements, p)
	return p
}

// InsertParagraph places a paragraph at the given block index.
func (b *Body) InsertParagraph(idx int, p *Paragraph) error {
	if idx < 0 || idx > len(b.Elements) {
		return fmt.Errorf("insert paragraph: index %d out of range [0,%d]", idx, len(b.Elements))
	}
	p.dirty = true
	b.Elements = append(b.Elements, nil)
	copy(b.Elements[idx+1:], b.Elements[idx:])
	b.Elements[idx] = p
	return nil
}

// RemoveBlock removes the block at the given index. Markers attached to the
// removed block move to its neighbors so no span endpoint is lost: before
// markers go to the next block, after markers to the previous one.
func (b *Body) RemoveBlock(idx int) error {
	if idx < 0 || idx >= len(b.Elements) {
		return fmt.Errorf("remove block: index %d out of range [0,%d)", idx, len(b.Elements))
	}
	removed := b.Elements[idx]
	b.Elements = append(b.Elements[:idx], b.Elements[idx+1:]...)

	before, after := detachMarkers(removed)
	if len(before) > 0 {
		if !reattachForward(b.Elements, idx, before) {
			b.LooseMarkers = append(b.LooseMarkers, before...)
		}
	}
	if len(after) > 0 {
		if !reattachBackward(b.Elements, idx-1, after) {
			b.LooseMarkers = append(b.LooseMarkers, after...)
		}
	}
	return nil
}

func detachMarkers(el BodyElement) (before, after []*Marker) {
	switch b := el.(type) {
	case *Paragraph:
		before, after = b.MarkersBefore, b.MarkersAfter
		b.MarkersBefore, b.MarkersAfter = nil, nil
	case *Table:
		before, after = b.MarkersBefore, b.MarkersAfter
		b.MarkersBefore, b.MarkersAfter = nil, nil
	}
	return before, after
}

func reattachForward(elements []BodyElement, from int, markers []*Marker) bool {
	for i := from; i < len(elements); i++ {
		if attachable(elements[i]) {
			return attachBefore(elements[i], markers)
		}
	}
	return false
}

func reattachBackward(elements []BodyElement, from int, markers []*Marker) bool {
	for i := from; i >= 0; i-- {
		if attachable(elements[i]) {
			return attachAfter(elements[i], markers)
		}
	}
	return false
}

// Text returns the concatenated text of the paragraph's runs and fields.
func (p *Paragraph) Text() string {
	return contentText(p.Content)
}

func contentText(content []ParagraphChild) string {
	var out string
	for _, c := range content {
		switch ch := c.(type) {
		case *Run:
			out += ch.Text()
		case *Hyperlink:
			out += contentText(ch.Content)
		case *SimpleField:
			out += contentText(ch.Content)
		case *ComplexField:
			out += contentText(ch.Result)
		}
	}
	return out
}

// SetText replaces the paragraph's content with a single run holding the
// given text. Properties are kept.
func (p *Paragraph) SetText(text string) {
	p.Content = []ParagraphChild{NewRun(text)}
	p.dirty = true
}

// Fields returns the complex fields directly in the paragraph's content.
func (p *Paragraph) Fields() []*ComplexField {
	var out []*ComplexField
	for _, c := range p.Content {
		if f, ok := c.(*ComplexField); ok {
			out = append(out, f)
		}
	}
	return out
}

// Hyperlinks returns the hyperlinks directly in the paragraph's content.
func (p *Paragraph) Hyperlinks() []*Hyperlink {
	var out []*Hyperlink
	for _, c := range p.Content {
		if h, ok := c.(*Hyperlink); ok {
			out = append(out, h)
		}
	}
	return out
}

package docxml

// bodyItem is one body-level parse product before marker reconciliation:
// either a block element or a loose marker sitting between blocks.
type bodyItem struct {
	elem   BodyElement
	marker *Marker
}

// attachBefore places body-level starts on a block's before slot. A table
// has no before-content slot of its own, so its markers land on the first
// cell's first paragraph.
func attachBefore(elem BodyElement, markers []*Marker) bool {
	switch el := elem.(type) {
	case *Paragraph:
		el.MarkersBefore = append(el.MarkersBefore, markers...)
		return true
	case *Table:
		if p := firstCellParagraph(el); p != nil {
			p.MarkersBefore = append(p.MarkersBefore, markers...)
			return true
		}
		el.MarkersBefore = append(el.MarkersBefore, markers...)
		return true
	}
	return false
}

// attachAfter places body-level ends on a block's after slot.
func attachAfter(elem BodyElement, markers []*Marker) bool {
	switch el := elem.(type) {
	case *Paragraph:
		el.MarkersAfter = append(el.MarkersAfter, markers...)
		return true
	case *Table:
		el.MarkersAfter = append(el.MarkersAfter, markers...)
		return true
	}
	return false
}

func attachable(elem BodyElement) bool {
	switch elem.(type) {
	case *Paragraph, *Table:
		return true
	}
	return false
}

func firstCellParagraph(t *Table) *Paragraph {
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			for _, b := range cell.Blocks {
				if p, ok := b.(*Paragraph); ok {
					return p
				}
			}
		}
	}
	return nil
}

// reconcileMarkers reattaches body-level marker siblings to block elements.
// A run of consecutive starts attaches to the next attachable block's before
// slot in original order; ends attach to the nearest preceding attachable
// block's after slot. Starts (or ends) with no preceding block attach to the
// first following block; pending starts with no following block attach to
// the last preceding block's after slot. Only when the body has no
// attachable block at all do markers stay loose.
func reconcileMarkers(items []bodyItem) ([]BodyElement, []*Marker) {
	var (
		out      []BodyElement
		pending  []*Marker
		lastElem BodyElement
		loose    []*Marker
	)

	flushPendingTo := func(elem BodyElement) {
		if len(pending) == 0 {
			return
		}
		attachBefore(elem, pending)
		pending = nil
	}

	for _, it := range items {
		if it.marker != nil {
			switch it.marker.Kind {
			case MarkerStart:
				pending = append(pending, it.marker)
			case MarkerEnd:
				if lastElem != nil {
					attachAfter(lastElem, []*Marker{it.marker})
				} else {
					// No preceding block: carry forward with the starts so
					// the first block picks it up.
					pending = append(pending, it.marker)
				}
			}
			continue
		}

		if attachable(it.elem) {
			flushPendingTo(it.elem)
			lastElem = it.elem
		}
		out = append(out, it.elem)
	}

	if len(pending) > 0 {
		if lastElem != nil {
			attachAfter(lastElem, pending)
		} else {
			loose = append(loose, pending...)
		}
	}

	return out, loose
}

// validateMarkers pairs every start with its end across one part and
// reports dangling markers. Orphans are kept in place, not dropped.
func validateMarkers(part string, model *ContentModel) []Warning {
	starts := make(map[int]int)
	ends := make(map[int]int)
	collectMarkerCounts(modelBlocks(model), starts, ends)

	var warns []Warning
	for id := range starts {
		if ends[id] < starts[id] {
			warns = append(warns, Warning{
				Part:    part,
				Element: "bookmarkStart",
				Err:     NewDanglingMarkerError(part, id, "start"),
			})
		}
	}
	for id := range ends {
		if starts[id] < ends[id] {
			warns = append(warns, Warning{
				Part:    part,
				Element: "bookmarkEnd",
				Err:     NewDanglingMarkerError(part, id, "end"),
			})
		}
	}
	return warns
}

func modelBlocks(model *ContentModel) []BodyElement {
	var blocks []BodyElement
	if model.Body != nil {
		blocks = append(blocks, model.Body.Elements...)
		for _, m := range model.Body.LooseMarkers {
			blocks = append(blocks, m)
		}
	}
	for _, note := range model.Notes {
		blocks = append(blocks, note.Blocks...)
	}
	return blocks
}

func collectMarkerCounts(blocks []BodyElement, starts, ends map[int]int) {
	countMarker := func(m *Marker) {
		if m.Kind == MarkerStart {
			starts[m.ID]++
		} else {
			ends[m.ID]++
		}
	}
	var countContent func(content []ParagraphChild)
	countContent = func(content []ParagraphChild) {
		for _, c := range content {
			switch ch := c.(type) {
			case *Marker:
				countMarker(ch)
			case *ComplexField:
				countContent(ch.InstructionContent)
				countContent(ch.Result)
			case *SimpleField:
				countContent(ch.Content)
			case *Hyperlink:
				countContent(ch.Content)
			}
		}
	}

	for _, b := range blocks {
		switch el := b.(type) {
		case *Marker:
			countMarker(el)
		case *Paragraph:
			for _, m := range el.MarkersBefore {
				countMarker(m)
			}
			countContent(el.Content)
			for _, m := range el.MarkersAfter {
				countMarker(m)
			}
		case *Table:
			for _, m := range el.MarkersBefore {
				countMarker(m)
			}
			for _, row := range el.Rows {
				for _, cell := range row.Cells {
					collectMarkerCounts(cell.Blocks, starts, ends)
				}
			}
			for _, m := range el.MarkersAfter {
				countMarker(m)
			}
		}
	}
}

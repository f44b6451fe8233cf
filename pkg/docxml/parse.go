package docxml

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ItMeDiaTech/docXMLater-sub005/pkg/docxml/xmlnode"
)

// ParseMode selects the error policy for recognized-but-invalid constructs.
type ParseMode int

const (
	// Strict turns any recognized-but-invalid construct into an immediate
	// error for the part.
	Strict ParseMode = iota
	// Lenient records a warning and substitutes the nearest safe fallback,
	// typically raw passthrough.
	Lenient
)

func (m ParseMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// partParser carries shared state for one part's parse pass.
type partParser struct {
	part  string
	mode  ParseMode
	warns []Warning
}

func (p *partParser) warn(element string, err error) {
	p.warns = append(p.warns, Warning{Part: p.part, Element: element, Err: err})
}

// ParsePart parses one content part's XML into its content model.
// Malformed markup is always fatal. In strict mode, invalid recognized
// constructs abort the part; in lenient mode they degrade to raw passthrough
// or literal content and are reported in the returned warning list.
func ParsePart(part string, data []byte, mode ParseMode) (*ContentModel, []Warning, error) {
	tree, err := xmlnode.Parse(data)
	if err != nil {
		return nil, nil, NewMalformedMarkupError(part, err)
	}

	p := &partParser{part: part, mode: mode}
	model := &ContentModel{Part: part, tree: tree}
	root := tree.Root

	switch root.LocalName() {
	case "document":
		model.Kind = PartDocument
		body := root.Find("body")
		if body == nil {
			if mode == Strict {
				return nil, p.warns, NewMalformedMarkupError(part, errMissingBody)
			}
			p.warn("document", errMissingBody)
			model.Body = &Body{}
			break
		}
		model.bodyNode = body
		model.Body, err = p.parseBody(body)

	case "hdr":
		model.Kind = PartHeader
		model.bodyNode = root
		model.Body, err = p.parseBody(root)

	case "ftr":
		model.Kind = PartFooter
		model.bodyNode = root
		model.Body, err = p.parseBody(root)

	case "footnotes":
		model.Kind = PartFootnotes
		model.Notes, model.noteItems, err = p.parseNotes(root, "footnote")

	case "endnotes":
		model.Kind = PartEndnotes
		model.Notes, model.noteItems, err = p.parseNotes(root, "endnote")

	default:
		// Unknown root: treat the whole element as a body of unrecognized
		// blocks so nothing is interpreted and nothing is lost.
		model.Kind = PartDocument
		model.bodyNode = root
		model.Body, err = p.parseBody(root)
	}
	if err != nil {
		return nil, p.warns, err
	}

	p.warns = append(p.warns, validateMarkers(part, model)...)
	return model, p.warns, nil
}

var errMissingBody = errors.New("document part has no body element")

// parseBody parses a block container (w:body, w:hdr, w:ftr) and reconciles
// body-level markers onto the blocks.
func (p *partParser) parseBody(container *xmlnode.Node) (*Body, error) {
	body := &Body{}
	items, sectPr, err := p.parseBlockItems(container.Children)
	if err != nil {
		return nil, err
	}
	body.SectPr = sectPr
	body.Elements, body.LooseMarkers = reconcileMarkers(items)
	return body, nil
}

// parseBlockItems converts raw children into block-level parse products.
// A trailing sectPr is returned separately for body containers.
func (p *partParser) parseBlockItems(children []xmlnode.Child) ([]bodyItem, *xmlnode.Node, error) {
	var (
		items  []bodyItem
		sectPr *xmlnode.Node
	)
	for _, child := range children {
		switch c := child.(type) {
		case *xmlnode.Text:
			// Inter-block whitespace included: it is part of the source
			// serialization and rides through like any other text.
			items = append(items, bodyItem{elem: NewRawElement(c.Raw())})

		case *xmlnode.RawBlob:
			items = append(items, bodyItem{elem: &RawElement{Blob: c}})

		case *xmlnode.Node:
			switch c.LocalName() {
			case "p":
				para, err := p.parseParagraph(c)
				if err != nil {
					return nil, nil, err
				}
				items = append(items, bodyItem{elem: para})
			case "tbl":
				tbl, err := p.parseTable(c)
				if err != nil {
					return nil, nil, err
				}
				items = append(items, bodyItem{elem: tbl})
			case "sectPr":
				sectPr = c
			case "bookmarkStart", "bookmarkEnd":
				if m := p.parseMarker(c); m != nil {
					items = append(items, bodyItem{marker: m})
				} else {
					items = append(items, bodyItem{elem: &RawElement{Blob: &xmlnode.RawBlob{Bytes: c.Raw()}}})
				}
			default:
				items = append(items, bodyItem{elem: &RawElement{Blob: &xmlnode.RawBlob{Bytes: c.Raw()}}})
			}
		}
	}
	return items, sectPr, nil
}

// parseMarker reads a bookmarkStart/bookmarkEnd element. Returns nil when
// the id is not an integer; the caller falls back to raw passthrough.
func (p *partParser) parseMarker(node *xmlnode.Node) *Marker {
	idStr, ok := node.AttrLocal("id")
	if !ok {
		p.warn(node.LocalName(), errors.New("bookmark marker without id attribute"))
		return nil
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		p.warn(node.LocalName(), fmt.Errorf("bookmark marker with non-numeric id %q", idStr))
		return nil
	}
	m := &Marker{ID: id, node: node}
	if node.LocalName() == "bookmarkEnd" {
		m.Kind = MarkerEnd
	} else {
		m.Kind = MarkerStart
		m.Name, _ = node.AttrLocal("name")
	}
	return m
}

// parseParagraph parses one w:p, assembling its run stream into fields.
func (p *partParser) parseParagraph(node *xmlnode.Node) (*Paragraph, error) {
	para := &Paragraph{node: node}

	var tokens []fieldToken
	for _, child := range node.Children {
		switch c := child.(type) {
		case *xmlnode.Text:
			tokens = append(tokens, fieldToken{kind: tokenPlain, child: NewRawElement(c.Raw())})

		case *xmlnode.RawBlob:
			tokens = append(tokens, fieldToken{kind: tokenPlain, child: &RawElement{Blob: c}})

		case *xmlnode.Node:
			switch c.LocalName() {
			case "pPr":
				para.Properties = c
			case "r":
				tokens = append(tokens, classifyRun(c))
			case "hyperlink":
				tokens = append(tokens, fieldToken{kind: tokenPlain, child: p.parseHyperlink(c)})
			case "fldSimple":
				tokens = append(tokens, fieldToken{kind: tokenPlain, child: p.parseSimpleField(c)})
			case "bookmarkStart", "bookmarkEnd":
				if m := p.parseMarker(c); m != nil {
					tokens = append(tokens, fieldToken{kind: tokenPlain, child: m})
				} else {
					tokens = append(tokens, fieldToken{kind: tokenPlain, child: NewRawElement(c.Raw())})
				}
			default:
				tokens = append(tokens, fieldToken{kind: tokenPlain, child: NewRawElement(c.Raw())})
			}
		}
	}

	content, warns, err := assembleFields(p.part, p.mode, tokens)
	p.warns = append(p.warns, warns...)
	if err != nil {
		return nil, err
	}
	para.Content = content
	return para, nil
}

// parseHyperlink models a w:hyperlink. Its interior runs pass through
// unassembled; a hyperlink cannot straddle a field boundary.
func (p *partParser) parseHyperlink(node *xmlnode.Node) *Hyperlink {
	h := &Hyperlink{node: node}
	h.RelID, _ = node.AttrLocal("id")
	h.Anchor, _ = node.AttrLocal("anchor")
	h.Content = p.parseInlineChildren(node)
	return h
}

// parseSimpleField models a w:fldSimple, recursing into its cached result.
func (p *partParser) parseSimpleField(node *xmlnode.Node) *SimpleField {
	f := &SimpleField{node: node}
	f.Instruction, _ = node.AttrLocal("instr")
	f.Content = p.parseInlineChildren(node)
	return f
}

// parseInlineChildren parses run-level content without field assembly.
func (p *partParser) parseInlineChildren(node *xmlnode.Node) []ParagraphChild {
	var out []ParagraphChild
	for _, child := range node.Children {
		switch c := child.(type) {
		case *xmlnode.Text:
			out = append(out, NewRawElement(c.Raw()))
		case *xmlnode.RawBlob:
			out = append(out, &RawElement{Blob: c})
		case *xmlnode.Node:
			switch c.LocalName() {
			case "r":
				out = append(out, &Run{node: c})
			case "fldSimple":
				out = append(out, p.parseSimpleField(c))
			case "hyperlink":
				out = append(out, p.parseHyperlink(c))
			case "bookmarkStart", "bookmarkEnd":
				if m := p.parseMarker(c); m != nil {
					out = append(out, m)
				} else {
					out = append(out, NewRawElement(c.Raw()))
				}
			default:
				out = append(out, NewRawElement(c.Raw()))
			}
		}
	}
	return out
}

// parseTable models a w:tbl, keeping original child order for regeneration.
func (p *partParser) parseTable(node *xmlnode.Node) (*Table, error) {
	tbl := &Table{node: node}
	for _, child := range node.Children {
		el, ok := child.(*xmlnode.Node)
		if !ok {
			tbl.items = append(tbl.items, tableItem{raw: child})
			continue
		}
		switch el.LocalName() {
		case "tblPr":
			tbl.Properties = el
			tbl.items = append(tbl.items, tableItem{raw: el})
		case "tblGrid":
			tbl.Grid = el
			tbl.items = append(tbl.items, tableItem{raw: el})
		case "tr":
			row, err := p.parseTableRow(el)
			if err != nil {
				return nil, err
			}
			tbl.Rows = append(tbl.Rows, row)
			tbl.items = append(tbl.items, tableItem{row: row})
		default:
			tbl.items = append(tbl.items, tableItem{raw: el})
		}
	}
	return tbl, nil
}

// parseTableRow models a w:tr, keeping original child order so row-level
// content the model does not interpret (bookmarks, sdt-wrapped cells,
// revision wrappers) survives regeneration verbatim.
func (p *partParser) parseTableRow(node *xmlnode.Node) (*TableRow, error) {
	row := &TableRow{node: node}
	for _, child := range node.Children {
		el, ok := child.(*xmlnode.Node)
		if !ok {
			row.items = append(row.items, rowItem{raw: child})
			continue
		}
		switch el.LocalName() {
		case "trPr":
			row.Properties = el
			row.items = append(row.items, rowItem{raw: el})
		case "tc":
			cell, err := p.parseTableCell(el)
			if err != nil {
				return nil, err
			}
			row.Cells = append(row.Cells, cell)
			row.items = append(row.items, rowItem{cell: cell})
		default:
			row.items = append(row.items, rowItem{raw: el})
		}
	}
	return row, nil
}

// parseTableCell parses cell blocks, reconciling cell-level markers the same
// way body-level ones are.
func (p *partParser) parseTableCell(node *xmlnode.Node) (*TableCell, error) {
	cell := &TableCell{node: node}
	var blockChildren []xmlnode.Child
	for _, child := range node.Children {
		if el, ok := child.(*xmlnode.Node); ok && el.LocalName() == "tcPr" {
			cell.Properties = el
			continue
		}
		blockChildren = append(blockChildren, child)
	}
	items, _, err := p.parseBlockItems(blockChildren)
	if err != nil {
		return nil, err
	}
	blocks, loose := reconcileMarkers(items)
	cell.Blocks = blocks
	for _, m := range loose {
		cell.Blocks = append(cell.Blocks, m)
	}
	return cell, nil
}

// parseNotes parses a footnotes/endnotes root.
func (p *partParser) parseNotes(root *xmlnode.Node, noteName string) ([]*Note, []noteItem, error) {
	var (
		notes []*Note
		items []noteItem
	)
	for _, child := range root.Children {
		el, ok := child.(*xmlnode.Node)
		if !ok || el.LocalName() != noteName {
			items = append(items, noteItem{raw: child})
			continue
		}
		note := &Note{node: el}
		note.ID, _ = el.AttrLocal("id")
		blockItems, _, err := p.parseBlockItems(el.Children)
		if err != nil {
			return nil, nil, err
		}
		blocks, loose := reconcileMarkers(blockItems)
		note.Blocks = blocks
		for _, m := range loose {
			note.Blocks = append(note.Blocks, m)
		}
		notes = append(notes, note)
		items = append(items, noteItem{note: note})
	}
	return notes, items, nil
}

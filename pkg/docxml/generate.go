package docxml

import (
	"strconv"

	"github.com/ItMeDiaTech/docXMLater-sub005/pkg/docxml/xmlnode"
)

const defaultProlog = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

const wordMLNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
const relAttrNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// GeneratePart serializes a content model back to part XML. It is total:
// any model that parsed successfully or was freshly constructed generates.
// Untouched subtrees re-emit their original bytes; edited or reattached
// content is rebuilt.
func GeneratePart(model *ContentModel) []byte {
	tree := model.tree
	if tree == nil {
		tree = &xmlnode.Tree{Prolog: []byte(defaultProlog)}
	}

	var root *xmlnode.Node
	switch model.Kind {
	case PartFootnotes, PartEndnotes:
		root = generateNotesRoot(model)
	default:
		root = generateBodyRoot(model)
	}

	out := &xmlnode.Tree{Prolog: tree.Prolog, Root: root, Trailer: tree.Trailer}
	return out.Serialize()
}

// generateBodyRoot rebuilds a document/header/footer root. For document
// parts the body node is regenerated in place among the root's original
// children; for header/footer parts the root is the body container itself.
func generateBodyRoot(model *ContentModel) *xmlnode.Node {
	if model.tree == nil {
		root := xmlnode.New("w:document")
		root.SetAttr("xmlns:w", wordMLNamespace)
		root.SetAttr("xmlns:r", relAttrNamespace)
		body := xmlnode.New("w:body")
		body.Children = generateBody(model.Body)
		root.Append(body)
		return root
	}

	orig := model.tree.Root
	if model.bodyNode == nil || model.bodyNode == orig {
		shell := nodeShell(orig)
		shell.Children = generateBody(model.Body)
		return shell
	}

	shell := nodeShell(orig)
	for _, child := range orig.Children {
		if child == xmlnode.Child(model.bodyNode) {
			bodyShell := nodeShell(model.bodyNode)
			bodyShell.Children = generateBody(model.Body)
			shell.Children = append(shell.Children, bodyShell)
			continue
		}
		shell.Children = append(shell.Children, child)
	}
	return shell
}

func generateNotesRoot(model *ContentModel) *xmlnode.Node {
	var orig *xmlnode.Node
	if model.tree != nil {
		orig = model.tree.Root
	} else if model.Kind == PartEndnotes {
		orig = xmlnode.New("w:endnotes")
		orig.SetAttr("xmlns:w", wordMLNamespace)
	} else {
		orig = xmlnode.New("w:footnotes")
		orig.SetAttr("xmlns:w", wordMLNamespace)
	}
	shell := nodeShell(orig)
	for _, it := range model.noteItems {
		if it.note != nil {
			shell.Children = append(shell.Children, generateNote(it.note))
			continue
		}
		shell.Children = append(shell.Children, it.raw)
	}
	return shell
}

// nodeShell copies an element's name and attributes without its children or
// source backing, so regenerated children replace the originals.
func nodeShell(n *xmlnode.Node) *xmlnode.Node {
	shell := xmlnode.New(n.Name)
	shell.Attrs = append([]xmlnode.Attr(nil), n.Attrs...)
	return shell
}

// generateBody emits block elements with their attached markers. Before-slot
// markers are emitted inside their paragraph, after w:pPr; after-slot markers
// are emitted as body-level siblings immediately after their element. Both
// placements re-parse to the same slots.
func generateBody(body *Body) []xmlnode.Child {
	children := generateBlocks(body.Elements)
	for _, m := range body.LooseMarkers {
		children = append(children, markerNode(m))
	}
	if body.SectPr != nil {
		children = append(children, body.SectPr)
	}
	return children
}

func generateBlocks(blocks []BodyElement) []xmlnode.Child {
	var children []xmlnode.Child
	for _, b := range blocks {
		switch el := b.(type) {
		case *Paragraph:
			children = append(children, generateParagraph(el))
			for _, m := range el.MarkersAfter {
				children = append(children, markerNode(m))
			}
		case *Table:
			for _, m := range el.MarkersBefore {
				children = append(children, markerNode(m))
			}
			children = append(children, generateTable(el))
			for _, m := range el.MarkersAfter {
				children = append(children, markerNode(m))
			}
		case *Marker:
			children = append(children, markerNode(el))
		case *RawElement:
			children = append(children, el.Blob)
		}
	}
	return children
}

func generateNote(n *Note) *xmlnode.Node {
	if n.node != nil && n.node.Clean() && blocksClean(n.Blocks) {
		return n.node
	}
	var shell *xmlnode.Node
	if n.node != nil {
		shell = nodeShell(n.node)
	} else {
		shell = xmlnode.New("w:footnote")
		shell.SetAttr("w:id", n.ID)
	}
	shell.Children = generateBlocks(n.Blocks)
	return shell
}

func generateParagraph(p *Paragraph) *xmlnode.Node {
	if paragraphClean(p) {
		return p.node
	}

	var shell *xmlnode.Node
	if p.node != nil {
		shell = nodeShell(p.node)
	} else {
		shell = xmlnode.New("w:p")
	}
	// w:pPr must stay the first child of w:p; attached markers follow it.
	if p.Properties != nil {
		shell.Children = append(shell.Children, p.Properties)
	}
	for _, m := range p.MarkersBefore {
		shell.Children = append(shell.Children, markerNode(m))
	}
	shell.Children = append(shell.Children, generateInline(p.Content)...)
	return shell
}

func generateInline(content []ParagraphChild) []xmlnode.Child {
	var children []xmlnode.Child
	for _, c := range content {
		switch ch := c.(type) {
		case *Run:
			children = append(children, ch.node)
		case *Marker:
			children = append(children, markerNode(ch))
		case *RawElement:
			children = append(children, ch.Blob)
		case *Hyperlink:
			children = append(children, generateHyperlink(ch))
		case *SimpleField:
			children = append(children, generateSimpleField(ch))
		case *ComplexField:
			children = append(children, generateComplexField(ch)...)
		}
	}
	return children
}

// generateComplexField emits the strict begin, instruction, separate?,
// result, end sequence, reusing the original marker runs when available.
func generateComplexField(f *ComplexField) []xmlnode.Child {
	var children []xmlnode.Child
	children = append(children, fldCharRun(f.beginRun, "begin"))
	children = append(children, generateInline(f.InstructionContent)...)
	if f.HasSeparator {
		children = append(children, fldCharRun(f.sepRun, "separate"))
		children = append(children, generateInline(f.Result)...)
	}
	children = append(children, fldCharRun(f.endRun, "end"))
	return children
}

func fldCharRun(orig *xmlnode.Node, typ string) *xmlnode.Node {
	if orig != nil {
		return orig
	}
	r := xmlnode.New("w:r")
	fc := xmlnode.New("w:fldChar")
	fc.SetAttr("w:fldCharType", typ)
	r.Append(fc)
	return r
}

func generateHyperlink(h *Hyperlink) *xmlnode.Node {
	if !h.dirty && h.node != nil && h.node.Clean() && inlineClean(h.Content) {
		return h.node
	}
	var shell *xmlnode.Node
	if h.node != nil {
		shell = nodeShell(h.node)
		if h.RelID != "" {
			shell.SetAttr("r:id", h.RelID)
		}
	} else {
		shell = xmlnode.New("w:hyperlink")
		if h.RelID != "" {
			shell.SetAttr("r:id", h.RelID)
		}
		if h.Anchor != "" {
			shell.SetAttr("w:anchor", h.Anchor)
		}
	}
	shell.Children = append(shell.Children, generateInline(h.Content)...)
	return shell
}

func generateSimpleField(f *SimpleField) *xmlnode.Node {
	if !f.dirty && f.node != nil && f.node.Clean() && inlineClean(f.Content) {
		return f.node
	}
	var shell *xmlnode.Node
	if f.node != nil {
		shell = nodeShell(f.node)
		shell.SetAttr("w:instr", f.Instruction)
	} else {
		shell = xmlnode.New("w:fldSimple")
		shell.SetAttr("w:instr", f.Instruction)
	}
	shell.Children = append(shell.Children, generateInline(f.Content)...)
	return shell
}

func generateTable(t *Table) *xmlnode.Node {
	if tableClean(t) {
		return t.node
	}
	var shell *xmlnode.Node
	if t.node != nil {
		shell = nodeShell(t.node)
	} else {
		shell = xmlnode.New("w:tbl")
	}
	if len(t.items) > 0 {
		for _, it := range t.items {
			if it.row != nil {
				shell.Children = append(shell.Children, generateTableRow(it.row))
				continue
			}
			shell.Children = append(shell.Children, it.raw)
		}
		return shell
	}
	if t.Properties != nil {
		shell.Children = append(shell.Children, t.Properties)
	}
	if t.Grid != nil {
		shell.Children = append(shell.Children, t.Grid)
	}
	for _, row := range t.Rows {
		shell.Children = append(shell.Children, generateTableRow(row))
	}
	return shell
}

func generateTableRow(row *TableRow) *xmlnode.Node {
	if row.node != nil && row.node.Clean() && cellsClean(row.Cells) {
		return row.node
	}
	var shell *xmlnode.Node
	if row.node != nil {
		shell = nodeShell(row.node)
	} else {
		shell = xmlnode.New("w:tr")
	}
	if len(row.items) > 0 {
		for _, it := range row.items {
			if it.cell != nil {
				shell.Children = append(shell.Children, generateTableCell(it.cell))
				continue
			}
			shell.Children = append(shell.Children, it.raw)
		}
		return shell
	}
	if row.Properties != nil {
		shell.Children = append(shell.Children, row.Properties)
	}
	for _, cell := range row.Cells {
		shell.Children = append(shell.Children, generateTableCell(cell))
	}
	return shell
}

func generateTableCell(cell *TableCell) *xmlnode.Node {
	if cell.node != nil && cell.node.Clean() && blocksClean(cell.Blocks) {
		return cell.node
	}
	var shell *xmlnode.Node
	if cell.node != nil {
		shell = nodeShell(cell.node)
	} else {
		shell = xmlnode.New("w:tc")
	}
	if cell.Properties != nil {
		shell.Children = append(shell.Children, cell.Properties)
	}
	shell.Children = append(shell.Children, generateBlocks(cell.Blocks)...)
	return shell
}

func markerNode(m *Marker) *xmlnode.Node {
	if m.node != nil {
		return m.node
	}
	var n *xmlnode.Node
	if m.Kind == MarkerStart {
		n = xmlnode.New("w:bookmarkStart")
		n.SetAttr("w:id", strconv.Itoa(m.ID))
		n.SetAttr("w:name", m.Name)
	} else {
		n = xmlnode.New("w:bookmarkEnd")
		n.SetAttr("w:id", strconv.Itoa(m.ID))
	}
	return n
}

// Cleanliness checks: a block re-emits its source bytes only when neither
// the node tree nor the model layered on it changed, and no body-level
// markers were reattached onto it.

func paragraphClean(p *Paragraph) bool {
	return !p.dirty && p.node != nil && p.node.Clean() &&
		len(p.MarkersBefore) == 0 && inlineClean(p.Content)
}

func tableClean(t *Table) bool {
	if t.dirty || t.node == nil || !t.node.Clean() || len(t.MarkersBefore) > 0 {
		return false
	}
	for _, row := range t.Rows {
		if !cellsClean(row.Cells) {
			return false
		}
	}
	return true
}

func cellsClean(cells []*TableCell) bool {
	for _, cell := range cells {
		if !blocksClean(cell.Blocks) {
			return false
		}
	}
	return true
}

func blocksClean(blocks []BodyElement) bool {
	for _, b := range blocks {
		switch el := b.(type) {
		case *Paragraph:
			if !paragraphClean(el) {
				return false
			}
			if len(el.MarkersAfter) > 0 {
				return false
			}
		case *Table:
			if !tableClean(el) {
				return false
			}
			if len(el.MarkersAfter) > 0 {
				return false
			}
		case *Marker:
			if el.node == nil {
				return false
			}
		case *RawElement:
			// Verbatim by definition.
		}
	}
	return true
}

// inlineClean reports whether inline content will re-emit source bytes
// unchanged.
func inlineClean(content []ParagraphChild) bool {
	for _, c := range content {
		switch ch := c.(type) {
		case *Run:
			if ch.dirty || ch.node == nil || !ch.node.Clean() {
				return false
			}
		case *Marker:
			if ch.node == nil {
				return false
			}
		case *RawElement:
			// Verbatim.
		case *Hyperlink:
			if ch.dirty || ch.node == nil || !ch.node.Clean() || !inlineClean(ch.Content) {
				return false
			}
		case *SimpleField:
			if ch.dirty || ch.node == nil || !ch.node.Clean() || !inlineClean(ch.Content) {
				return false
			}
		case *ComplexField:
			if ch.dirty || ch.beginRun == nil || ch.endRun == nil {
				return false
			}
			if !ch.beginRun.Clean() || !ch.endRun.Clean() {
				return false
			}
			if ch.HasSeparator && (ch.sepRun == nil || !ch.sepRun.Clean()) {
				return false
			}
			if !inlineClean(ch.InstructionContent) || !inlineClean(ch.Result) {
				return false
			}
		}
	}
	return true
}

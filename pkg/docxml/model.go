package docxml

import (
	"strings"

	"github.com/ItMeDiaTech/docXMLater-sub005/pkg/docxml/xmlnode"
)

// PartKind identifies which content-part family a model was parsed from.
type PartKind int

const (
	PartDocument PartKind = iota
	PartHeader
	PartFooter
	PartFootnotes
	PartEndnotes
)

// ContentModel is the parsed content of one package part.
type ContentModel struct {
	Part string
	Kind PartKind

	// Body holds block content for document/header/footer parts.
	Body *Body
	// Notes holds the note list for footnotes/endnotes parts.
	Notes []*Note

	tree      *xmlnode.Tree
	bodyNode  *xmlnode.Node
	noteItems []noteItem
	dirty     bool
}

// MarkDirty records that the model was edited and its part must be
// regenerated on save.
func (m *ContentModel) MarkDirty() {
	m.dirty = true
}

// Dirty reports whether the model was edited since parse.
func (m *ContentModel) Dirty() bool {
	return m.dirty
}

// Note is a single footnote or endnote with its own block content.
type Note struct {
	ID     string
	Blocks []BodyElement

	node *xmlnode.Node
}

// noteItem is one original child of a footnotes/endnotes root: a parsed note
// or a verbatim non-note child.
type noteItem struct {
	note *Note
	raw  xmlnode.Child
}

// BodyElement is any element that can appear as a block in a body.
type BodyElement interface {
	isBodyElement()
}

// Body is an ordered sequence of block elements plus the trailing section
// properties.
type Body struct {
	Elements []BodyElement
	SectPr   *xmlnode.Node

	// LooseMarkers holds body-level markers that had no block element to
	// attach to (empty body). They are emitted in place rather than dropped.
	LooseMarkers []*Marker
}

// MarkerKind distinguishes a span start from a span end.
type MarkerKind int

const (
	MarkerStart MarkerKind = iota
	MarkerEnd
)

// Marker is one bookmark start or end. Ids are unique across the whole
// package; Name is set on starts only.
type Marker struct {
	ID   int
	Name string
	Kind MarkerKind

	node *xmlnode.Node
}

func (*Marker) isBodyElement()    {}
func (*Marker) isParagraphChild() {}

// Paragraph is a text paragraph: optional properties, inline content, and
// the two attachment slots for body-level markers reconciled onto it.
type Paragraph struct {
	Properties *xmlnode.Node
	Content    []ParagraphChild

	MarkersBefore []*Marker
	MarkersAfter  []*Marker

	node  *xmlnode.Node
	dirty bool
}

func (*Paragraph) isBodyElement() {}

// MarkDirty forces the paragraph to be regenerated from the model.
func (p *Paragraph) MarkDirty() {
	p.dirty = true
}

// Table is a table block. It has no before-content slot of its own: markers
// attached before a table land on its first cell's first paragraph.
type Table struct {
	Properties *xmlnode.Node
	Grid       *xmlnode.Node
	Rows       []*TableRow

	// MarkersBefore is only used when the table has no cell paragraph to
	// carry them; they are then emitted as body-level siblings.
	MarkersBefore []*Marker
	MarkersAfter  []*Marker

	node  *xmlnode.Node
	dirty bool
	// items keeps the table's original child order: rows interleaved with
	// properties, grid, and anything unrecognized.
	items []tableItem
}

// tableItem is one original child of a table element: a parsed row or a
// verbatim non-row child.
type tableItem struct {
	row *TableRow
	raw xmlnode.Child
}

func (*Table) isBodyElement() {}

// MarkDirty forces the table to be regenerated from the model.
func (t *Table) MarkDirty() {
	t.dirty = true
}

// TableRow is one table row.
type TableRow struct {
	Properties *xmlnode.Node
	Cells      []*TableCell

	node *xmlnode.Node
	// items keeps the row's original child order: cells interleaved with
	// properties, row-level bookmarks, sdt-wrapped cells, and anything else
	// legal under w:tr that the model does not interpret.
	items []rowItem
}

// rowItem is one original child of a row element: a parsed cell or a
// verbatim non-cell child.
type rowItem struct {
	cell *TableCell
	raw  xmlnode.Child
}

// TableCell is one table cell holding block content.
type TableCell struct {
	Properties *xmlnode.Node
	Blocks     []BodyElement

	node *xmlnode.Node
}

// RawElement is an unrecognized element preserved verbatim. It can appear at
// body level or inside a paragraph.
type RawElement struct {
	Blob *xmlnode.RawBlob
}

func (*RawElement) isBodyElement()    {}
func (*RawElement) isParagraphChild() {}

// NewRawElement wraps original serialization bytes as an opaque element.
func NewRawElement(raw []byte) *RawElement {
	return &RawElement{Blob: &xmlnode.RawBlob{Bytes: raw}}
}

// ParagraphChild is any member of a paragraph's inline content sequence.
type ParagraphChild interface {
	isParagraphChild()
}

// Run is one text run. Untouched runs re-emit their source bytes; edited
// runs are rebuilt around their original properties.
type Run struct {
	node  *xmlnode.Node
	dirty bool
}

func (*Run) isParagraphChild() {}

// NewRun constructs a run holding the given text.
func NewRun(text string) *Run {
	r := &Run{node: xmlnode.New("w:r")}
	r.setTextNode(text)
	return r
}

// Node returns the run's element node.
func (r *Run) Node() *xmlnode.Node {
	return r.node
}

// Text returns the concatenated text content of the run.
func (r *Run) Text() string {
	var sb strings.Builder
	for _, el := range r.node.Elements() {
		switch el.LocalName() {
		case "t", "instrText", "delText":
			sb.WriteString(el.InnerText())
		case "tab":
			sb.WriteByte('\t')
		case "br", "cr":
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// SetText replaces the run's content with a single text element, keeping the
// run properties. The run node is mutated in place so enclosing elements see
// the change and regenerate.
func (r *Run) SetText(text string) {
	props := r.node.Find("rPr")
	r.node.Children = nil
	if props != nil {
		r.node.Children = append(r.node.Children, props)
	}
	r.node.MarkDirty()
	r.setTextNode(text)
	r.dirty = true
}

func (r *Run) setTextNode(text string) {
	t := xmlnode.New("w:t")
	if text != strings.TrimSpace(text) {
		t.SetAttr("xml:space", "preserve")
	}
	t.Append(xmlnode.NewText(text))
	r.node.Append(t)
}

// Hyperlink is a w:hyperlink wrapper around runs, addressed by a
// relationship id when it targets an external resource.
type Hyperlink struct {
	RelID   string
	Anchor  string
	Content []ParagraphChild

	node  *xmlnode.Node
	dirty bool
}

func (*Hyperlink) isParagraphChild() {}

// SimpleField is a w:fldSimple: instruction in an attribute, cached result
// as nested content.
type SimpleField struct {
	Instruction string
	Content     []ParagraphChild

	node  *xmlnode.Node
	dirty bool
}

func (*SimpleField) isParagraphChild() {}

// ParsedInstruction parses the field's instruction string.
func (f *SimpleField) ParsedInstruction() (*FieldInstruction, error) {
	return ParseInstruction(f.Instruction)
}

// ComplexField is a begin/instruction/separate/result/end field assembled
// from the flat run stream of a paragraph.
type ComplexField struct {
	// Instruction is the concatenated instruction text.
	Instruction string
	// HasSeparator records whether a separate marker (and therefore a cached
	// result) was present.
	HasSeparator bool
	// InstructionContent is the ordered instruction-phase content: the
	// instruction runs plus any fields nested before the separator.
	InstructionContent []ParagraphChild
	// Result is the cached result content between separate and end, which
	// may itself contain nested fields.
	Result []ParagraphChild

	beginRun *xmlnode.Node
	sepRun   *xmlnode.Node
	endRun   *xmlnode.Node
	dirty    bool
}

func (*ComplexField) isParagraphChild() {}

// NewComplexField constructs a fresh field with the given instruction and no
// cached result.
func NewComplexField(instruction string) *ComplexField {
	f := &ComplexField{}
	f.SetInstruction(instruction)
	return f
}

// NestedFields returns the fields nested inside the instruction phase.
func (f *ComplexField) NestedFields() []ParagraphChild {
	var out []ParagraphChild
	for _, c := range f.InstructionContent {
		switch c.(type) {
		case *ComplexField, *SimpleField:
			out = append(out, c)
		}
	}
	return out
}

// SetInstruction replaces the instruction text. The field keeps its id-free
// marker runs; only the instruction runs are rebuilt.
func (f *ComplexField) SetInstruction(instruction string) {
	f.Instruction = instruction
	f.InstructionContent = []ParagraphChild{newInstrRun(instruction)}
	f.dirty = true
}

// ParsedInstruction parses the field's instruction string.
func (f *ComplexField) ParsedInstruction() (*FieldInstruction, error) {
	return ParseInstruction(f.Instruction)
}

func newInstrRun(instruction string) *Run {
	r := &Run{node: xmlnode.New("w:r"), dirty: true}
	t := xmlnode.New("w:instrText")
	t.SetAttr("xml:space", "preserve")
	t.Append(xmlnode.NewText(instruction))
	r.node.Append(t)
	return r
}

// FieldCounts walks paragraph content and counts begin/end marker pairs the
// content will regenerate to. Used by liveness checks and tests.
func FieldCounts(content []ParagraphChild) (begins, ends int) {
	for _, c := range content {
		if f, ok := c.(*ComplexField); ok {
			begins++
			ends++
			b, e := FieldCounts(f.InstructionContent)
			begins += b
			ends += e
			b, e = FieldCounts(f.Result)
			begins += b
			ends += e
		}
	}
	return begins, ends
}

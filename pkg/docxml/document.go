package docxml

import (
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"
)

const mainDocumentPart = "word/document.xml"

// Document is one editing session over a loaded package. It owns the content
// models and relationship tables exclusively; it is not safe for concurrent
// writers. Callers needing parallelism operate on independent documents.
type Document struct {
	parts    *MemoryContainer
	models   map[string]*ContentModel
	rels     map[string]*Relationships
	hashes   map[string][32]byte
	dirty    map[string]bool
	warnings []Warning
	mode     ParseMode

	nextMarkerID int
}

// Open loads a package from disk using the configured parse mode.
func Open(path string) (*Document, error) {
	reader, err := PackageReaderFromFile(path)
	if err != nil {
		return nil, err
	}
	return load(reader, GetGlobalConfig().ParseMode())
}

// OpenReader loads a package from a readerAt using the configured parse mode.
func OpenReader(r io.ReaderAt, size int64) (*Document, error) {
	reader, err := NewPackageReader(r, size)
	if err != nil {
		return nil, err
	}
	return load(reader, GetGlobalConfig().ParseMode())
}

// OpenReaderMode loads a package with an explicit parse mode.
func OpenReaderMode(r io.ReaderAt, size int64, mode ParseMode) (*Document, error) {
	reader, err := NewPackageReader(r, size)
	if err != nil {
		return nil, err
	}
	return load(reader, mode)
}

// New constructs a minimal valid document with an empty body.
func New() *Document {
	d := &Document{
		parts:        NewMemoryContainer(),
		models:       make(map[string]*ContentModel),
		rels:         make(map[string]*Relationships),
		hashes:       make(map[string][32]byte),
		dirty:        make(map[string]bool),
		mode:         Lenient,
		nextMarkerID: 1,
	}
	d.parts.WritePart("[Content_Types].xml", []byte(defaultContentTypes))
	d.parts.WritePart("_rels/.rels", []byte(defaultPackageRels))
	d.parts.WritePart(mainDocumentPart, nil)
	d.models[mainDocumentPart] = &ContentModel{
		Part: mainDocumentPart,
		Kind: PartDocument,
		Body: &Body{},
	}
	d.rels[mainDocumentPart] = NewRelationships(mainDocumentPart)
	d.dirty[mainDocumentPart] = true
	return d
}

const defaultContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

const defaultPackageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n" +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func load(reader *PackageReader, mode ParseMode) (*Document, error) {
	d := &Document{
		parts:  NewMemoryContainer(),
		models: make(map[string]*ContentModel),
		rels:   make(map[string]*Relationships),
		hashes: make(map[string][32]byte),
		dirty:  make(map[string]bool),
		mode:   mode,
	}

	for _, name := range reader.ListParts() {
		data, err := reader.ReadPart(name)
		if err != nil {
			return nil, err
		}
		d.parts.WritePart(name, data)
	}

	for _, name := range d.parts.ListParts() {
		if !isContentPart(name) {
			continue
		}
		data, _ := d.parts.ReadPart(name)
		model, warns, err := ParsePart(name, data, mode)
		if err != nil {
			return nil, err
		}
		d.models[name] = model
		d.warnings = append(d.warnings, warns...)
		d.hashes[name] = blake3.Sum256(data)

		relsPath := RelsPathFor(name)
		if d.parts.Exists(relsPath) {
			relsData, _ := d.parts.ReadPart(relsPath)
			table, err := ParseRelationships(name, relsData)
			if err != nil {
				return nil, err
			}
			d.rels[name] = table
		} else {
			d.rels[name] = NewRelationships(name)
		}
	}

	d.nextMarkerID = maxMarkerID(d.models) + 1

	GetLogger().WithFields(Fields{
		"parts":    len(d.parts.ListParts()),
		"models":   len(d.models),
		"warnings": len(d.warnings),
		"mode":     mode.String(),
	}).Info("package loaded")
	return d, nil
}

// isContentPart reports whether a part holds block content this engine
// models (main document, notes, headers, footers).
func isContentPart(name string) bool {
	if name == mainDocumentPart {
		return true
	}
	switch name {
	case "word/footnotes.xml", "word/endnotes.xml":
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

// maxMarkerID finds the highest bookmark id across every part; marker ids
// are unique package-wide, so allocation starts above it.
func maxMarkerID(models map[string]*ContentModel) int {
	max := 0
	for _, model := range models {
		starts := make(map[int]int)
		ends := make(map[int]int)
		collectMarkerCounts(modelBlocks(model), starts, ends)
		for id := range starts {
			if id > max {
				max = id
			}
		}
		for id := range ends {
			if id > max {
				max = id
			}
		}
	}
	return max
}

// Body returns the main document body.
func (d *Document) Body() *Body {
	if m := d.models[mainDocumentPart]; m != nil {
		return m.Body
	}
	return nil
}

// Model returns the content model for a part, nil if the part is not a
// modeled content part.
func (d *Document) Model(part string) *ContentModel {
	return d.models[part]
}

// ContentParts returns the names of all modeled content parts.
func (d *Document) ContentParts() []string {
	var out []string
	for _, name := range d.parts.ListParts() {
		if _, ok := d.models[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Part returns the raw bytes of any part as loaded.
func (d *Document) Part(name string) ([]byte, error) {
	return d.parts.ReadPart(name)
}

// Relationships returns the relationship table for a content part.
func (d *Document) Relationships(part string) *Relationships {
	if table, ok := d.rels[part]; ok {
		return table
	}
	table := NewRelationships(part)
	d.rels[part] = table
	return table
}

// MarkDirty records that a part's model was edited and its XML must be
// regenerated on save. Model mutation helpers call this; callers editing the
// model directly must call it themselves.
func (d *Document) MarkDirty(part string) {
	d.dirty[part] = true
	if m := d.models[part]; m != nil {
		m.MarkDirty()
	}
}

// Warnings returns the problems recorded during a lenient load.
func (d *Document) Warnings() []Warning {
	out := make([]Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// AllocateMarkerID hands out the next package-unique bookmark id.
func (d *Document) AllocateMarkerID() int {
	id := d.nextMarkerID
	d.nextMarkerID++
	return id
}

// AddHyperlinkRelationship registers an external hyperlink target on a part
// and returns the allocated relationship id.
func (d *Document) AddHyperlinkRelationship(part, url string) (string, error) {
	id, err := d.Relationships(part).Add(Relationship{
		Type:       HyperlinkRelationType,
		Target:     url,
		TargetMode: "External",
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RetargetHyperlink points an existing hyperlink relationship at a new URL
// without changing its id.
func (d *Document) RetargetHyperlink(part, relID, url string) error {
	return d.Relationships(part).Retarget(relID, url)
}

// currentPartBytes returns the part's bytes as they would be written now:
// regenerated when the model was edited, original bytes otherwise.
func (d *Document) currentPartBytes(name string) ([]byte, error) {
	model, ok := d.models[name]
	if ok && (d.dirty[name] || model.Dirty()) {
		return GeneratePart(model), nil
	}
	return d.parts.ReadPart(name)
}

// SweepOrphans runs the relationship liveness sweep once per content part.
// Identifier spaces are part-scoped, so each part is swept against its own
// content only. Returns every removed relationship.
func (d *Document) SweepOrphans() ([]Relationship, error) {
	var removed []Relationship
	for _, name := range d.ContentParts() {
		table, ok := d.rels[name]
		if !ok || table.Len() == 0 {
			continue
		}
		content, err := d.currentPartBytes(name)
		if err != nil {
			return removed, err
		}
		swept, err := table.SweepOrphans(LiveIDScannerFor(content))
		if err != nil {
			return removed, err
		}
		removed = append(removed, swept...)
	}
	return removed, nil
}

// stage produces the complete pending part set for a save. Parts whose
// regenerated bytes hash identically to the loaded bytes are carried over
// untouched.
func (d *Document) stage() (*MemoryContainer, error) {
	staged := NewMemoryContainer()
	for _, name := range d.parts.ListParts() {
		data, err := d.parts.ReadPart(name)
		if err != nil {
			return nil, err
		}
		staged.WritePart(name, data)
	}

	for name, model := range d.models {
		if !d.dirty[name] && !model.Dirty() {
			continue
		}
		generated := GeneratePart(model)
		if loaded, ok := d.hashes[name]; ok && blake3.Sum256(generated) == loaded {
			continue
		}
		staged.WritePart(name, generated)
	}

	for name, table := range d.rels {
		if !table.Dirty() {
			continue
		}
		data, err := table.Serialize()
		if err != nil {
			return nil, err
		}
		staged.WritePart(RelsPathFor(name), data)
	}

	if !staged.Exists(mainDocumentPart) {
		return nil, NewPackageIOError("stage", mainDocumentPart, fmt.Errorf("refusing to write package without main document part"))
	}
	return staged, nil
}

// Save writes the document to disk. Generation is staged fully in memory and
// committed atomically: either the previous complete package persists or the
// new complete one does.
func (d *Document) Save(path string) error {
	staged, err := d.stage()
	if err != nil {
		return err
	}
	return CommitPackageFile(path, staged, GetGlobalConfig().CompressParts)
}

// Write streams the document package to a writer.
func (d *Document) Write(w io.Writer) error {
	staged, err := d.stage()
	if err != nil {
		return err
	}
	return WritePackage(w, staged, GetGlobalConfig().CompressParts)
}

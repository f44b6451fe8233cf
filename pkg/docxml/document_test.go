package docxml

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixtureContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`</Types>`

const fixturePackageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

const fixtureStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:style w:type="paragraph" w:styleId="Normal"/></w:styles>`

// part is one named fixture entry; order matters for archive layout.
type part struct {
	name string
	data string
}

func buildPackage(t *testing.T, parts []part) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			t.Fatalf("create %s: %v", p.name, err)
		}
		if _, err := f.Write([]byte(p.data)); err != nil {
			t.Fatalf("write %s: %v", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func basicPackage(t *testing.T, body string) []byte {
	t.Helper()
	return buildPackage(t, []part{
		{"[Content_Types].xml", fixtureContentTypes},
		{"_rels/.rels", fixturePackageRels},
		{"word/document.xml", string(wrapDoc(body))},
		{"word/styles.xml", fixtureStyles},
	})
}

func openPackage(t *testing.T, pkg []byte, mode ParseMode) *Document {
	t.Helper()
	doc, err := OpenReaderMode(bytes.NewReader(pkg), int64(len(pkg)), mode)
	if err != nil {
		t.Fatalf("OpenReaderMode() error = %v", err)
	}
	return doc
}

func writtenParts(t *testing.T, doc *Document) map[string][]byte {
	t.Helper()
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reopen written package: %v", err)
	}
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data := new(bytes.Buffer)
		if _, err := data.ReadFrom(rc); err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		rc.Close()
		out[f.Name] = data.Bytes()
	}
	return out
}

func TestOpenReader(t *testing.T) {
	pkg := basicPackage(t, para("hello")+para("world"))
	doc := openPackage(t, pkg, Strict)

	body := doc.Body()
	if body == nil {
		t.Fatal("Body() = nil")
	}
	paras := body.Paragraphs()
	if len(paras) != 2 {
		t.Fatalf("paragraphs = %d, want 2", len(paras))
	}
	if paras[0].Text() != "hello" || paras[1].Text() != "world" {
		t.Errorf("texts = %q, %q", paras[0].Text(), paras[1].Text())
	}
	if len(doc.Warnings()) != 0 {
		t.Errorf("unexpected warnings: %v", doc.Warnings())
	}
	if got := doc.ContentParts(); len(got) != 1 || got[0] != "word/document.xml" {
		t.Errorf("ContentParts() = %v", got)
	}
}

func TestOpenReader_MissingMainPart(t *testing.T) {
	pkg := buildPackage(t, []part{
		{"[Content_Types].xml", fixtureContentTypes},
	})
	_, err := OpenReaderMode(bytes.NewReader(pkg), int64(len(pkg)), Strict)
	if err == nil {
		t.Fatal("expected error for package without main document part")
	}
	if !IsPackageIOError(err) {
		t.Errorf("error = %v, want PackageIOError", err)
	}
}

func TestDocumentWrite_UntouchedPartsByteIdentical(t *testing.T) {
	pkg := basicPackage(t, para("alpha")+`<w:vendorExt x="1"><keep/></w:vendorExt>`)
	doc := openPackage(t, pkg, Strict)

	written := writtenParts(t, doc)
	for _, name := range []string{"word/document.xml", "word/styles.xml", "[Content_Types].xml"} {
		orig, err := doc.Part(name)
		if err != nil {
			t.Fatalf("Part(%s): %v", name, err)
		}
		if !bytes.Equal(written[name], orig) {
			t.Errorf("%s changed on write:\nbefore: %s\nafter:  %s", name, orig, written[name])
		}
	}
}

func TestDocumentWrite_EditedPart(t *testing.T) {
	pkg := basicPackage(t, para("draft"))
	doc := openPackage(t, pkg, Strict)

	doc.Body().Paragraphs()[0].SetText("final")
	doc.MarkDirty("word/document.xml")

	written := writtenParts(t, doc)
	if !strings.Contains(string(written["word/document.xml"]), "final") {
		t.Error("edit missing from written package")
	}
	if !bytes.Equal(written["word/styles.xml"], []byte(fixtureStyles)) {
		t.Error("unrelated part rewritten")
	}
}

func TestDocumentWrite_AppendedParagraphSurvivesReload(t *testing.T) {
	pkg := basicPackage(t, para("first"))
	doc := openPackage(t, pkg, Strict)

	doc.Body().AppendParagraph("second")
	doc.MarkDirty("word/document.xml")

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	doc2, err := OpenReaderMode(bytes.NewReader(buf.Bytes()), int64(buf.Len()), Strict)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	paras := doc2.Body().Paragraphs()
	if len(paras) != 2 || paras[1].Text() != "second" {
		t.Fatalf("reloaded paragraphs = %d, want the appended one present", len(paras))
	}
}

func TestNewDocument_WriteAndReload(t *testing.T) {
	doc := New()
	doc.Body().AppendParagraph("fresh start")

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	doc2, err := OpenReaderMode(bytes.NewReader(buf.Bytes()), int64(buf.Len()), Strict)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	paras := doc2.Body().Paragraphs()
	if len(paras) != 1 || paras[0].Text() != "fresh start" {
		t.Fatalf("reloaded body = %+v", paras)
	}
}

func TestDocumentSave_AtomicCommit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.docx")

	doc := New()
	doc.Body().AppendParagraph("v1")
	if err := doc.Save(target); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	original, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read saved package: %v", err)
	}

	// Force the commit rename to fail: the target becomes a directory.
	blocked := filepath.Join(dir, "blocked")
	if err := os.Mkdir(blocked, 0o755); err != nil {
		t.Fatal(err)
	}
	doc.Body().AppendParagraph("v2")
	if err := doc.Save(blocked); err == nil {
		t.Fatal("expected commit failure when target is a directory")
	} else if !IsPackageIOError(err) {
		t.Errorf("error = %v, want PackageIOError", err)
	}

	// No temp artifacts linger and the earlier save is intact.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("stale temp artifact %s left behind", e.Name())
		}
	}
	after, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("original package unreadable after failed commit: %v", err)
	}
	if !bytes.Equal(after, original) {
		t.Error("original package modified by failed commit")
	}
}

func TestDocumentSave_StageFailureLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "missing-dir", "out.docx")

	doc := New()
	if err := doc.Save(target); err == nil {
		t.Fatal("expected error saving into a missing directory")
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("unexpected file at target after failed save: %v", err)
	}
}

func TestDocumentSweepOrphans_PartScoped(t *testing.T) {
	docRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="` + StylesRelationType + `" Target="styles.xml"/>` +
		`<Relationship Id="rId2" Type="` + HyperlinkRelationType + `" Target="https://live.example.com" TargetMode="External"/>` +
		`<Relationship Id="rId3" Type="` + HyperlinkRelationType + `" Target="https://dead.example.com" TargetMode="External"/>` +
		`</Relationships>`
	noteRels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId2" Type="` + HyperlinkRelationType + `" Target="https://note.example.com" TargetMode="External"/>` +
		`</Relationships>`
	footnotes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:footnotes xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
		`<w:footnote w:id="1"><w:p><w:hyperlink r:id="rId2"><w:r><w:t>note link</w:t></w:r></w:hyperlink></w:p></w:footnote>` +
		`</w:footnotes>`

	body := `<w:p><w:hyperlink r:id="rId2">` + textRun("site") + `</w:hyperlink></w:p>`
	pkg := buildPackage(t, []part{
		{"[Content_Types].xml", fixtureContentTypes},
		{"_rels/.rels", fixturePackageRels},
		{"word/document.xml", string(wrapDoc(body))},
		{"word/_rels/document.xml.rels", docRels},
		{"word/footnotes.xml", footnotes},
		{"word/_rels/footnotes.xml.rels", noteRels},
		{"word/styles.xml", fixtureStyles},
	})

	doc := openPackage(t, pkg, Strict)
	removed, err := doc.SweepOrphans()
	if err != nil {
		t.Fatalf("SweepOrphans() error = %v", err)
	}
	if len(removed) != 1 || removed[0].ID != "rId3" {
		t.Fatalf("removed = %+v, want just the document part's rId3", removed)
	}
	// rId2 in the footnotes part is a different id space and stays.
	if _, ok := doc.Relationships("word/footnotes.xml").Resolve("rId2"); !ok {
		t.Error("footnote-scoped rId2 swept by mistake")
	}

	written := writtenParts(t, doc)
	rels := string(written["word/_rels/document.xml.rels"])
	if strings.Contains(rels, "rId3") {
		t.Error("swept relationship still serialized")
	}
	if !strings.Contains(rels, "rId2") || !strings.Contains(rels, "rId1") {
		t.Errorf("surviving relationships missing: %s", rels)
	}
}

func TestDocumentHyperlinkRelationships(t *testing.T) {
	doc := New()
	id, err := doc.AddHyperlinkRelationship("word/document.xml", "https://example.com")
	if err != nil {
		t.Fatalf("AddHyperlinkRelationship() error = %v", err)
	}
	if id != "rId1" {
		t.Errorf("id = %s, want rId1", id)
	}
	if err := doc.RetargetHyperlink("word/document.xml", id, "https://moved.example.com"); err != nil {
		t.Fatalf("RetargetHyperlink() error = %v", err)
	}
	rel, _ := doc.Relationships("word/document.xml").Resolve(id)
	if rel.Target != "https://moved.example.com" {
		t.Errorf("target = %s", rel.Target)
	}
}

func TestAllocateMarkerID(t *testing.T) {
	pkg := basicPackage(t, bookmarkStart("7", "High")+para("p")+bookmarkEnd("7"))
	doc := openPackage(t, pkg, Strict)

	if got := doc.AllocateMarkerID(); got != 8 {
		t.Errorf("AllocateMarkerID() = %d, want 8", got)
	}
	if got := doc.AllocateMarkerID(); got != 9 {
		t.Errorf("second AllocateMarkerID() = %d, want 9", got)
	}
}

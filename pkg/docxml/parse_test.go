package docxml

import (
	"bytes"
	"strings"
	"testing"
)

func TestRoundTrip_UntouchedBytesPreserved(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "paragraphs only",
			body: para("alpha") + para("beta"),
		},
		{
			name: "unrecognized block passes through verbatim",
			body: para("before") +
				`<w:sdt><w:sdtPr><w:tag w:val="x"/></w:sdtPr><w:sdtContent>` + para("inside") + `</w:sdtContent></w:sdt>` +
				para("after"),
		},
		{
			name: "table with odd attribute spacing inside",
			body: `<w:tbl><w:tblPr><w:tblW w:w="0"  w:type='auto'/></w:tblPr><w:tr><w:tc>` + para("c") + `</w:tc></w:tr></w:tbl>`,
		},
		{
			name: "section properties stay last",
			body: para("p") + `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>`,
		},
		{
			name: "entities and preserved space in runs",
			body: `<w:p><w:r><w:t xml:space="preserve"> a &amp; b &lt;c&gt; </w:t></w:r></w:p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := wrapDoc(tt.body)
			model := mustParse(t, input, Strict)
			out := GeneratePart(model)
			if !bytes.Equal(out, input) {
				t.Errorf("untouched round trip changed bytes:\ninput:  %s\noutput: %s", input, out)
			}
		})
	}
}

func TestRoundTrip_GenerateIsIdempotent(t *testing.T) {
	input := wrapDoc(para("P1") +
		bookmarkStart("1", "A") + para("P2") + bookmarkEnd("1") +
		`<w:p>` + fldChar("begin") + instrText("PAGE") + fldChar("separate") + textRun("3") + fldChar("end") + `</w:p>` +
		`<w:customBlock attr="v"/>`)

	model := mustParse(t, input, Strict)
	out1 := GeneratePart(model)

	model2 := mustParse(t, out1, Strict)
	out2 := GeneratePart(model2)
	if !bytes.Equal(out1, out2) {
		t.Errorf("generate not idempotent:\nfirst:  %s\nsecond: %s", out1, out2)
	}
}

func TestRoundTrip_EditedRunRegenerates(t *testing.T) {
	input := wrapDoc(para("hello") + para("world"))
	model := mustParse(t, input, Strict)

	model.Body.Paragraphs()[0].SetText("changed")
	out := string(GeneratePart(model))
	if !strings.Contains(out, "changed") {
		t.Error("edit missing from output")
	}
	if strings.Contains(out, "hello") {
		t.Error("stale text re-emitted after edit")
	}
	// The sibling paragraph keeps its source bytes.
	if !strings.Contains(out, "<w:p><w:r><w:t>world</w:t></w:r></w:p>") {
		t.Errorf("untouched sibling rewritten: %s", out)
	}
}

func TestRoundTrip_RowLevelContentSurvivesRegeneration(t *testing.T) {
	// The bookmark before the table lands in the first cell's first
	// paragraph, forcing the whole table to regenerate. Row children the
	// model does not interpret must still come back.
	row := `<w:tr>` +
		`<w:trPr><w:trHeight w:val="240"/></w:trPr>` +
		bookmarkStart("5", "RowMark") +
		`<w:tc>` + para("plain") + `</w:tc>` +
		`<w:sdt><w:sdtContent><w:tc>` + para("wrapped") + `</w:tc></w:sdtContent></w:sdt>` +
		bookmarkEnd("5") +
		`</w:tr>`
	input := wrapDoc(bookmarkStart("1", "TblMark") +
		`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>` + row + `</w:tbl>` +
		bookmarkEnd("1"))

	model := mustParse(t, input, Strict)
	out := string(GeneratePart(model))

	if got := strings.Count(out, "<w:bookmarkStart"); got != 2 {
		t.Errorf("bookmarkStart count = %d, want 2:\n%s", got, out)
	}
	if got := strings.Count(out, "<w:bookmarkEnd"); got != 2 {
		t.Errorf("bookmarkEnd count = %d, want 2:\n%s", got, out)
	}
	if !strings.Contains(out, "wrapped") {
		t.Errorf("sdt-wrapped cell dropped from row:\n%s", out)
	}
	if !strings.Contains(out, "<w:trPr>") {
		t.Errorf("row properties dropped:\n%s", out)
	}
	// Original row child order holds: properties, row bookmark, cells.
	if !strings.Contains(out, `</w:trPr>`+bookmarkStart("5", "RowMark")+`<w:tc>`) {
		t.Errorf("row children reordered:\n%s", out)
	}

	model2 := mustParse(t, []byte(out), Strict)
	out2 := GeneratePart(model2)
	if !bytes.Equal([]byte(out), out2) {
		t.Errorf("regenerated table not stable:\nfirst:  %s\nsecond: %s", out, out2)
	}
}

func TestRoundTrip_ParagraphPropertiesStayFirst(t *testing.T) {
	input := wrapDoc(bookmarkStart("3", "A") +
		`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>` + textRun("styled") + `</w:p>` +
		bookmarkEnd("3"))

	model := mustParse(t, input, Strict)
	out := string(GeneratePart(model))

	iPr := strings.Index(out, "<w:pPr>")
	iMark := strings.Index(out, "<w:bookmarkStart")
	if iPr < 0 || iMark < 0 {
		t.Fatalf("properties or marker missing:\n%s", out)
	}
	if iMark < iPr {
		t.Errorf("marker emitted ahead of paragraph properties:\n%s", out)
	}

	model2 := mustParse(t, []byte(out), Strict)
	out2 := GeneratePart(model2)
	if !bytes.Equal([]byte(out), out2) {
		t.Errorf("reattached placement not stable:\nfirst:  %s\nsecond: %s", out, out2)
	}
}

func TestRoundTrip_InterBlockWhitespacePreserved(t *testing.T) {
	input := []byte(docHeader + "\n  " + para("alpha") + "\n  " + para("beta") + "\n" + docFooter)

	model := mustParse(t, input, Strict)
	if out := GeneratePart(model); !bytes.Equal(out, input) {
		t.Fatalf("untouched pretty-printed part changed:\ninput:  %s\noutput: %s", input, out)
	}

	// Editing one paragraph must not collapse the formatting whitespace
	// around its siblings.
	model.Body.Paragraphs()[1].SetText("edited")
	out := string(GeneratePart(model))
	if !strings.Contains(out, "\n  "+para("alpha")+"\n  ") {
		t.Errorf("whitespace around untouched paragraph lost:\n%s", out)
	}
	if !strings.HasSuffix(out, "\n"+docFooter) {
		t.Errorf("trailing body whitespace lost:\n%s", out)
	}
	if !strings.Contains(out, "edited") {
		t.Errorf("edit missing from output:\n%s", out)
	}
}

func TestParse_MalformedMarkupIsFatal(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unterminated element", docHeader + `<w:p><w:r>`},
		{"mismatched close", docHeader + `<w:p></w:tbl>` + docFooter},
		{"no root element", `<?xml version="1.0"?>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []ParseMode{Strict, Lenient} {
				_, _, err := ParsePart("word/document.xml", []byte(tt.data), mode)
				if err == nil {
					t.Fatalf("mode %s: expected error", mode)
				}
				if !IsMalformedMarkupError(err) {
					t.Errorf("mode %s: error = %v, want MalformedMarkupError", mode, err)
				}
			}
		})
	}
}

func TestParse_MissingBody(t *testing.T) {
	input := []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:document>`)

	if _, _, err := ParsePart("word/document.xml", input, Strict); err == nil {
		t.Error("strict mode: expected error for missing body")
	}

	model, warns, err := ParsePart("word/document.xml", input, Lenient)
	if err != nil {
		t.Fatalf("lenient mode: ParsePart() error = %v", err)
	}
	if model.Body == nil {
		t.Error("lenient mode: expected an empty body model")
	}
	if len(warns) == 0 {
		t.Error("lenient mode: expected a warning")
	}
}

func TestParse_Footnotes(t *testing.T) {
	input := []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:footnotes xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:footnote w:type="separator" w:id="-1"><w:p><w:r><w:separator/></w:r></w:p></w:footnote>` +
		`<w:footnote w:id="1">` + para("note text") + `</w:footnote>` +
		`</w:footnotes>`)

	model, _, err := ParsePart("word/footnotes.xml", input, Strict)
	if err != nil {
		t.Fatalf("ParsePart() error = %v", err)
	}
	if model.Kind != PartFootnotes {
		t.Errorf("Kind = %v, want PartFootnotes", model.Kind)
	}
	if len(model.Notes) != 2 {
		t.Fatalf("notes = %d, want 2", len(model.Notes))
	}
	if model.Notes[1].ID != "1" {
		t.Errorf("note id = %q, want %q", model.Notes[1].ID, "1")
	}
	if p, ok := model.Notes[1].Blocks[0].(*Paragraph); !ok || p.Text() != "note text" {
		t.Errorf("note body not parsed: %+v", model.Notes[1].Blocks)
	}

	out := GeneratePart(model)
	if !bytes.Equal(out, input) {
		t.Errorf("untouched footnotes changed:\ninput:  %s\noutput: %s", input, out)
	}
}

func TestParse_UnknownRootKeptRaw(t *testing.T) {
	input := []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:style w:type="paragraph" w:styleId="Normal"/></w:styles>`)

	model, _, err := ParsePart("word/styles.xml", input, Lenient)
	if err != nil {
		t.Fatalf("ParsePart() error = %v", err)
	}
	out := GeneratePart(model)
	if !bytes.Equal(out, input) {
		t.Errorf("unknown root changed:\ninput:  %s\noutput: %s", input, out)
	}
}

func TestParseModeString(t *testing.T) {
	if Strict.String() != "strict" || Lenient.String() != "lenient" {
		t.Errorf("mode strings = %q, %q", Strict.String(), Lenient.String())
	}
}

package xmlnode

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseSerializeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "simple document",
			input: `<?xml version="1.0" encoding="UTF-8"?><root><child a="1"/></root>`,
		},
		{
			name:  "attribute order and odd spacing",
			input: `<root  z="last"   a="first" ><child  /></root>`,
		},
		{
			name:  "namespace prefixes kept verbatim",
			input: `<w:document xmlns:w="http://example.com/w"><w:body><w:p/></w:body></w:document>`,
		},
		{
			name:  "entities not re-escaped",
			input: `<root note="a &amp; b">x &lt; y &amp;&gt; z</root>`,
		},
		{
			name:  "comments and processing instructions",
			input: `<?xml version="1.0"?><!-- leading --><root><!-- inner --><?pi data?><a>t</a></root>`,
		},
		{
			name:  "mixed content with whitespace",
			input: "<root>\n  <a>one</a>\n  text between\n  <b/>\n</root>\n",
		},
		{
			name:  "single quotes preserved",
			input: `<root attr='value'><inner attr2='x"y'/></root>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			out := tree.Serialize()
			if !bytes.Equal(out, []byte(tt.input)) {
				t.Errorf("round trip mismatch:\n got: %s\nwant: %s", out, tt.input)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "unterminated tag", input: `<root><child></root>`},
		{name: "truncated document", input: `<root><child>`},
		{name: "invalid entity", input: `<root>&nosuch;</root>`},
		{name: "multiple roots", input: `<a/><b/>`},
		{name: "no root", input: `   `},
		{name: "unmatched end", input: `</root>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.input)); err == nil {
				t.Errorf("Parse(%q) expected error, got nil", tt.input)
			}
		})
	}
}

func TestMutationForcesStructuredOutput(t *testing.T) {
	input := `<root><keep a="1">same</keep><change b="2">old</change></root>`
	tree, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	change := tree.Root.Find("change")
	if change == nil {
		t.Fatal("expected to find <change>")
	}
	change.SetAttr("b", "3")

	out := string(tree.Serialize())
	if !strings.Contains(out, `<keep a="1">same</keep>`) {
		t.Errorf("untouched sibling was reformatted: %s", out)
	}
	if !strings.Contains(out, `b="3"`) {
		t.Errorf("mutation not reflected: %s", out)
	}
}

func TestCleanTracking(t *testing.T) {
	tree, err := Parse([]byte(`<root><a/><b/></root>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !tree.Root.Clean() {
		t.Error("freshly parsed tree should be clean")
	}

	tree.Root.Find("a").MarkDirty()
	if tree.Root.Clean() {
		t.Error("dirty child should make the root unclean")
	}

	constructed := New("x")
	if constructed.Clean() {
		t.Error("constructed node should never be clean")
	}
}

func TestNodeHelpers(t *testing.T) {
	tree, err := Parse([]byte(`<w:p xmlns:w="urn:w" w:rsidR="00A"><w:r><w:t>hi</w:t></w:r><w:r><w:t> there</w:t></w:r></w:p>`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	root := tree.Root

	if got := root.LocalName(); got != "p" {
		t.Errorf("LocalName() = %q, want %q", got, "p")
	}
	if v, ok := root.Attr("w:rsidR"); !ok || v != "00A" {
		t.Errorf("Attr(w:rsidR) = %q, %v", v, ok)
	}
	if v, ok := root.AttrLocal("rsidR"); !ok || v != "00A" {
		t.Errorf("AttrLocal(rsidR) = %q, %v", v, ok)
	}
	if got := len(root.FindAll("r")); got != 2 {
		t.Errorf("FindAll(r) = %d nodes, want 2", got)
	}
	if got := root.InnerText(); got != "hi there" {
		t.Errorf("InnerText() = %q, want %q", got, "hi there")
	}
}

func TestConstructedSerialization(t *testing.T) {
	p := New("w:p")
	r := New("w:r")
	txt := New("w:t")
	txt.Append(NewText(`a < b & "c"`))
	r.Append(txt)
	p.Append(r)
	p.SetAttr("w:x", `1 & 2`)

	got := string(SerializeNode(p))
	want := `<w:p w:x="1 &amp; 2"><w:r><w:t>a &lt; b &amp; "c"</w:t></w:r></w:p>`
	if got != want {
		t.Errorf("SerializeNode() = %s, want %s", got, want)
	}
}

func TestRawBlobBypassesEscaping(t *testing.T) {
	p := New("w:p")
	p.Append(&RawBlob{Bytes: []byte(`<w:odd attr="a&amp;b"><nested/></w:odd>`)})
	got := string(SerializeNode(p))
	want := `<w:p><w:odd attr="a&amp;b"><nested/></w:odd></w:p>`
	if got != want {
		t.Errorf("raw blob was altered: %s", got)
	}
}

func TestSerializeIdempotent(t *testing.T) {
	input := `<root><unknown:thing x="1"><deep a='b'>t &amp; u</deep></unknown:thing><p>hello</p></root>`
	tree, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	once := tree.Serialize()

	tree2, err := Parse(once)
	if err != nil {
		t.Fatalf("Parse(second) error = %v", err)
	}
	twice := tree2.Serialize()

	if !bytes.Equal(once, twice) {
		t.Errorf("serialize not idempotent:\nonce:  %s\ntwice: %s", once, twice)
	}
}

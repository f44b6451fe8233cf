package docxml

import (
	"bytes"
	"fmt"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// relationshipAttrNames are the attribute local names that carry a
// relationship id in WordprocessingML and DrawingML markup (r:id, r:embed,
// r:link and the drawing variants).
var relationshipAttrNames = map[string]bool{
	"id":    true,
	"embed": true,
	"link":  true,
	"pict":  true,
	"dm":    true,
	"lo":    true,
	"qs":    true,
	"cs":    true,
}

// relIDQuery matches every attributed element, compiled once to fail fast on
// a bad expression rather than per scan.
var relIDQuery = xpath.MustCompile("//*[@*]")

// CollectLiveIDs scans a part's full serialized content for relationship-id
// references. Because the input is the serialized text, content inside raw
// passthrough subtrees (unmodeled elements, nested tables, footnote bodies)
// is scanned exactly like modeled content: it is all just markup here. That
// is what makes the orphan sweep safe against references that live only in
// unparsed nested content.
func CollectLiveIDs(content []byte) (map[string]bool, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("scan for relationship ids: %w", err)
	}

	live := make(map[string]bool)
	for _, node := range xmlquery.QuerySelectorAll(doc, relIDQuery) {
		for _, attr := range node.Attr {
			// Only prefixed attributes qualify: a bare id="" is an element
			// id, not a relationship reference.
			if attr.Name.Space == "" {
				continue
			}
			if relationshipAttrNames[attr.Name.Local] && attr.Value != "" {
				live[attr.Value] = true
			}
		}
	}
	return live, nil
}

// LiveIDScannerFor builds a LiveIDScanner over a fixed content snapshot.
func LiveIDScannerFor(content []byte) LiveIDScanner {
	return func() (map[string]bool, error) {
		return CollectLiveIDs(content)
	}
}

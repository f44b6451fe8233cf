package docxml

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	relationshipsNamespace  = "http://schemas.openxmlformats.org/package/2006/relationships"
	HyperlinkRelationType   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	ImageRelationType       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	StylesRelationType      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	NumberingRelationType   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	SettingsRelationType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	WebSettingsRelationType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/webSettings"
	FontTableRelationType   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/fontTable"
	ThemeRelationType       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	FootnotesRelationType   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footnotes"
	EndnotesRelationType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/endnotes"
)

// typeAddressedRelations are referenced by relationship type, not by id, so
// a liveness scan never finds them and an orphan sweep must keep them.
var typeAddressedRelations = map[string]bool{
	StylesRelationType:      true,
	NumberingRelationType:   true,
	SettingsRelationType:    true,
	WebSettingsRelationType: true,
	FontTableRelationType:   true,
	ThemeRelationType:       true,
	FootnotesRelationType:   true,
	EndnotesRelationType:    true,
}

// Relationship is one typed link from a part to a target.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// External reports whether the relationship targets a resource outside the
// package.
func (r Relationship) External() bool {
	return r.TargetMode == "External"
}

// relationshipsXML is the .rels codec shape.
type relationshipsXML struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// Relationships is the relationship table for one part. Identifiers are
// unique within this table only; two parts may reuse the same id for
// unrelated targets.
type Relationships struct {
	part  string
	rels  []Relationship
	dirty bool
}

// NewRelationships creates an empty table for a part.
func NewRelationships(part string) *Relationships {
	return &Relationships{part: part}
}

// ParseRelationships parses a .rels part into a table scoped to the given
// content part.
func ParseRelationships(part string, data []byte) (*Relationships, error) {
	var parsed relationshipsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return nil, NewMalformedMarkupError(RelsPathFor(part), err)
	}
	return &Relationships{part: part, rels: parsed.Relationship}, nil
}

// RelsPathFor derives the companion relationships part name,
// e.g. "word/document.xml" -> "word/_rels/document.xml.rels".
func RelsPathFor(partName string) string {
	dir := ""
	base := partName
	if idx := strings.LastIndex(partName, "/"); idx != -1 {
		dir = partName[:idx]
		base = partName[idx+1:]
	}
	if dir == "" {
		return fmt.Sprintf("_rels/%s.rels", base)
	}
	return fmt.Sprintf("%s/_rels/%s.rels", dir, base)
}

// Part returns the content part this table belongs to.
func (r *Relationships) Part() string {
	return r.part
}

// All returns the relationships in table order.
func (r *Relationships) All() []Relationship {
	out := make([]Relationship, len(r.rels))
	copy(out, r.rels)
	return out
}

// Len returns the number of relationships.
func (r *Relationships) Len() int {
	return len(r.rels)
}

// Dirty reports whether the table changed since it was parsed.
func (r *Relationships) Dirty() bool {
	return r.dirty
}

// Resolve looks up a relationship by id.
func (r *Relationships) Resolve(id string) (Relationship, bool) {
	for _, rel := range r.rels {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// Add inserts a relationship. When rel.ID is empty, the lowest unused
// numeric-suffixed id in this part is allocated. Returns the id in use.
func (r *Relationships) Add(rel Relationship) (string, error) {
	if rel.ID == "" {
		rel.ID = r.nextID()
	} else if _, exists := r.Resolve(rel.ID); exists {
		return "", fmt.Errorf("relationship id %s already exists in %s", rel.ID, r.part)
	}
	r.rels = append(r.rels, rel)
	r.dirty = true
	return rel.ID, nil
}

// nextID picks the lowest unused rId<n> suffix scoped to this part.
func (r *Relationships) nextID() string {
	used := make(map[int]bool, len(r.rels))
	for _, rel := range r.rels {
		if strings.HasPrefix(rel.ID, "rId") {
			if n, err := strconv.Atoi(strings.TrimPrefix(rel.ID, "rId")); err == nil {
				used[n] = true
			}
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return fmt.Sprintf("rId%d", n)
}

// Retarget changes a relationship's target in place. The id is kept so a
// simple URL edit does not churn identifiers across the part.
func (r *Relationships) Retarget(id, newTarget string) error {
	for i, rel := range r.rels {
		if rel.ID == id {
			r.rels[i].Target = newTarget
			r.dirty = true
			return nil
		}
	}
	return fmt.Errorf("relationship %s not found in %s", id, r.part)
}

// Remove deletes a relationship by id.
func (r *Relationships) Remove(id string) bool {
	for i, rel := range r.rels {
		if rel.ID == id {
			r.rels = append(r.rels[:i], r.rels[i+1:]...)
			r.dirty = true
			return true
		}
	}
	return false
}

// LiveIDScanner reports the set of relationship ids referenced anywhere in
// the owning part's full serialized content, raw passthrough included.
type LiveIDScanner func() (map[string]bool, error)

// SweepOrphans removes every id-addressed relationship whose id the scanner
// does not report live. Type-addressed relationships (styles, numbering,
// theme, ...) are kept regardless. The sweep is idempotent: running it twice
// removes nothing new.
func (r *Relationships) SweepOrphans(scan LiveIDScanner) ([]Relationship, error) {
	live, err := scan()
	if err != nil {
		return nil, err
	}

	var removed []Relationship
	kept := r.rels[:0]
	for _, rel := range r.rels {
		if typeAddressedRelations[rel.Type] || live[rel.ID] {
			kept = append(kept, rel)
			continue
		}
		removed = append(removed, rel)
	}
	if len(removed) > 0 {
		r.rels = kept
		r.dirty = true
		GetLogger().WithField("part", r.part).Debug("swept %d orphaned relationships", len(removed))
	}
	return removed, nil
}

// Serialize writes the table back to .rels XML.
func (r *Relationships) Serialize() ([]byte, error) {
	doc := relationshipsXML{
		Namespace:    relationshipsNamespace,
		Relationship: r.rels,
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize relationships for %s: %w", r.part, err)
	}
	return append([]byte(xml.Header), body...), nil
}

// IDs returns the sorted identifier list, for stable diagnostics.
func (r *Relationships) IDs() []string {
	ids := make([]string, 0, len(r.rels))
	for _, rel := range r.rels {
		ids = append(ids, rel.ID)
	}
	sort.Strings(ids)
	return ids
}

// Package docxml reads, edits, and rewrites WordprocessingML packages with a
// hard guarantee: everything the model does not understand is preserved
// byte-for-byte rather than dropped.
//
// Basic usage:
//
//	doc, err := docxml.Open("report.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, warn := range doc.Warnings() {
//	    log.Println("lenient parse:", warn)
//	}
//
//	body := doc.Body()
//	body.AppendParagraph("Generated addendum")
//	doc.MarkDirty("word/document.xml")
//
//	if _, err := doc.SweepOrphans(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := doc.Save("report.docx"); err != nil {
//	    log.Fatal(err)
//	}
//
// The package models paragraphs, tables, runs, hyperlinks, bookmarks, and
// simple/complex fields. Complex fields are assembled from the flat
// begin/instruction/separate/result/end run stream, nesting included.
// Body-level bookmarks that sit between blocks are reattached to the nearest
// block element. Every other construct rides through as raw passthrough.
//
// Relationship tables are part-scoped. The orphan sweep scans each part's
// full serialized content, raw passthrough included, so a relationship
// referenced only from an unmodeled subtree is never deleted.
//
// Saving is staged and atomic: the package is generated fully in memory,
// written to a temp file, and renamed over the target. A failure partway
// through leaves the previous package intact.
package docxml

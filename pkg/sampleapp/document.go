package sampleapp

import (
	"fmt"
	"sort"
	"strings"
)

// QuickStartTitle is the title of the bundled guide.
const QuickStartTitle = "PSPDFKit 6 QuickStart Guide"

// OutlineEntry is one row of the document outline.
type OutlineEntry struct {
	Title string
	Page  int // 1-based
}

// Document is an in-memory PDF document: page texts, an outline and a set of
// bookmarked pages. Bookmarks belong to the document, so they survive a
// relaunch of the app.
type Document struct {
	UID     string
	Title   string
	Pages   []string // Text of each page
	Outline []OutlineEntry

	bookmarks map[int]bool
}

// NewDocument creates a document with the given page texts.
func NewDocument(title string, pages ...string) *Document {
	return &Document{
		Title:     title,
		Pages:     pages,
		bookmarks: make(map[int]bool),
	}
}

// QuickStartGuide returns a fresh copy of the bundled guide.
func QuickStartGuide() *Document {
	d := NewDocument(QuickStartTitle,
		"Welcome to PSPDFKit. This guide walks through the PSPDFViewController.",
		"Getting Started: add PSPDFKit to your project and set the license key.",
		"Annotations: highlight, ink and note annotations are stored in the PDF.",
		"World Map: a large page used to demonstrate zooming.",
		"Document Editor: add, remove and reorder pages with PSPDFDocumentEditor.",
	)
	d.Outline = []OutlineEntry{
		{Title: "Introduction", Page: 1},
		{Title: "Getting Started", Page: 2},
		{Title: "Annotations", Page: 3},
		{Title: "World Map", Page: 4},
		{Title: "Document Editor", Page: 5},
	}
	return d
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Bookmarks returns the bookmarked pages in ascending order.
func (d *Document) Bookmarks() []int {
	out := make([]int, 0, len(d.bookmarks))
	for p := range d.bookmarks {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// HasBookmark reports whether page is bookmarked.
func (d *Document) HasBookmark(page int) bool {
	return d.bookmarks[page]
}

// AddBookmark bookmarks page.
func (d *Document) AddBookmark(page int) error {
	if page < 1 || page > d.PageCount() {
		return fmt.Errorf("page %d out of range 1..%d", page, d.PageCount())
	}
	if d.bookmarks == nil {
		d.bookmarks = make(map[int]bool)
	}
	d.bookmarks[page] = true
	return nil
}

// RemoveBookmark removes the bookmark on page, if any.
func (d *Document) RemoveBookmark(page int) {
	delete(d.bookmarks, page)
}

// RemoveAllBookmarks removes every bookmark.
func (d *Document) RemoveAllBookmarks() {
	for p := range d.bookmarks {
		delete(d.bookmarks, p)
	}
}

// InsertPage inserts a blank page after page (0 inserts at the front).
func (d *Document) InsertPage(after int) {
	after = max(0, min(after, len(d.Pages)))
	d.Pages = append(d.Pages[:after], append([]string{""}, d.Pages[after:]...)...)
}

// Search returns the 1-based pages whose text contains query, ignoring case.
func (d *Document) Search(query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []int
	for i, text := range d.Pages {
		if strings.Contains(strings.ToLower(text), query) {
			out = append(out, i+1)
		}
	}
	return out
}

// Snippet returns a short excerpt of page for search results.
func (d *Document) Snippet(page int) string {
	if page < 1 || page > len(d.Pages) {
		return ""
	}
	text := d.Pages[page-1]
	if len(text) > 40 {
		text = text[:40] + "…"
	}
	return text
}

// Clone returns an independent copy.
func (d *Document) Clone() *Document {
	c := &Document{
		UID:       d.UID,
		Title:     d.Title,
		Pages:     append([]string(nil), d.Pages...),
		Outline:   append([]OutlineEntry(nil), d.Outline...),
		bookmarks: make(map[int]bool, len(d.bookmarks)),
	}
	for p := range d.bookmarks {
		c.bookmarks[p] = true
	}
	return c
}

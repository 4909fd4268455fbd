package sampleapp

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/hierarchy"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// ViewerNavigationBarID identifies the viewer's navigation bar.
const ViewerNavigationBarID = "UITestingComparison.PDFView"

var errNotEditable = errors.New("element does not accept text input")

// handler reacts to a gesture on one element. It runs with the app locked.
type handler func(action scenario.Action) error

// view is the element tree for the current state plus the gesture handlers
// keyed by element reference. References are stable across rebuilds for
// elements that represent the same thing.
type view struct {
	root     *hierarchy.Node
	handlers map[string]handler
}

func (v *view) on(n *hierarchy.Node, h handler) *hierarchy.Node {
	v.handlers[n.Ref] = h
	return n
}

func onTap(fn func()) handler {
	return func(action scenario.Action) error {
		switch action.Kind {
		case scenario.ActionTap, scenario.ActionDoubleTap:
			fn()
		case scenario.ActionTypeText:
			return errNotEditable
		}
		return nil
	}
}

func element(ref, typ, label string, b core.Bounds) *hierarchy.Node {
	return &hierarchy.Node{Ref: ref, Type: typ, Label: label, Visible: true, Enabled: true, Bounds: b}
}

func bounds(x, y, w, h int) core.Bounds {
	return core.Bounds{X: x, Y: y, Width: w, Height: h}
}

// build renders the current state. Called with a.mu held.
func (a *App) build() *view {
	v := &view{handlers: make(map[string]handler)}
	root := element("app", "Application", "UITestingComparison", screenBounds)
	root.ID = "UITestingComparison"
	v.root = root

	settled := a.settled()
	var modal *hierarchy.Node
	switch a.screen {
	case ScreenViewer:
		root.Add(a.viewerBar(v, false), a.pageView(v))
	case ScreenThumbnails:
		root.Add(a.viewerBar(v, true), a.thumbnails(v, settled))
	case ScreenDocumentEditor:
		root.Add(a.editorBar(v), a.thumbnails(v, true), a.editorToolbar(v))
		switch {
		case a.editorAlert:
			modal = a.unsavedChangesSheet(v)
		case a.editorSheet:
			modal = a.newPageSheet(v)
		}
	case ScreenOutline:
		root.Add(a.viewerBar(v, false), a.pageView(v))
		modal = a.outline(v)
	case ScreenSearch:
		root.Add(a.viewerBar(v, false), a.pageView(v))
		modal = a.search(v)
	}
	if a.authorPrompt {
		modal = a.authorAlert(v)
	}

	if modal != nil {
		// Whatever is underneath stays in the tree but is covered.
		for _, c := range root.Children {
			c.Visible = false
		}
		modal.Visible = settled
		root.Add(modal)
	}
	root.Link()
	return v
}

// viewerBar is the viewer's navigation bar with the configured buttons.
func (a *App) viewerBar(v *view, thumbnails bool) *hierarchy.Node {
	bar := element("nav", "NavigationBar", a.doc.Title, bounds(0, 47, 390, 44))
	bar.ID = ViewerNavigationBarID
	if a.config.NavigationBarTitle != "" {
		bar.Label = a.config.NavigationBarTitle
	}

	if thumbnails {
		bar.Add(v.on(element("nav.editor", "Button", "Document Editor", bounds(8, 47, 140, 44)), onTap(func() {
			a.screen = ScreenDocumentEditor
			a.pendingPages = 0
			a.present()
		})))
	}

	buttons := a.config.RightBarButtons
	for i, b := range buttons {
		x := 390 - 8 - 44*(len(buttons)-i)
		btn := element("nav."+string(b), "Button", string(b), bounds(x, 47, 44, 44))
		switch b {
		case BarButtonThumbnails:
			v.on(btn, onTap(func() {
				if a.screen == ScreenThumbnails {
					a.screen = ScreenViewer
				} else {
					a.screen = ScreenThumbnails
				}
				a.present()
			}))
		case BarButtonOutline:
			v.on(btn, onTap(func() {
				a.screen = ScreenOutline
				a.swipedRow = 0
				a.present()
			}))
		case BarButtonSearch:
			v.on(btn, onTap(func() {
				a.screen = ScreenSearch
				a.searchText = ""
				a.present()
			}))
		case BarButtonBookmarks:
			if a.doc.HasBookmark(a.page) {
				btn.Value = "1"
			}
			v.on(btn, onTap(func() {
				if a.doc.HasBookmark(a.page) {
					a.doc.RemoveBookmark(a.page)
				} else {
					_ = a.doc.AddBookmark(a.page)
				}
			}))
		}
		bar.Add(btn)
	}
	return bar
}

// pageView shows the current page. Swipes turn pages; a long press adds a
// note annotation.
func (a *App) pageView(v *view) *hierarchy.Node {
	page := element("page", "ScrollView", fmt.Sprintf("Page %d of %d", a.page, a.doc.PageCount()), bounds(0, 91, 390, 753))
	page.ID = "PDFPageView"
	page.Value = a.doc.Snippet(a.page)
	return v.on(page, func(action scenario.Action) error {
		switch action.Kind {
		case scenario.ActionSwipe:
			switch action.Direction {
			case scenario.DirectionLeft:
				a.page = min(a.page+1, a.doc.PageCount())
			case scenario.DirectionRight:
				a.page = max(a.page-1, 1)
			}
		case scenario.ActionLongPress:
			if a.config.AskForAnnotationUsername && a.authorName == "" {
				a.authorPrompt = true
				a.present()
				return nil
			}
			a.annotations++
		case scenario.ActionTypeText:
			return errNotEditable
		}
		return nil
	})
}

// thumbnails is the page grid, three columns. In the document editor it also
// shows pages added but not yet saved.
func (a *App) thumbnails(v *view, visible bool) *hierarchy.Node {
	grid := element("thumbs", "CollectionView", "", bounds(0, 91, 390, 753))
	grid.ID = "Thumbnail Collection"
	grid.Visible = visible

	count := a.doc.PageCount()
	editing := a.screen == ScreenDocumentEditor
	if editing {
		count += a.pendingPages
	}
	for i := 0; i < count; i++ {
		p := i + 1
		c := element("thumb."+strconv.Itoa(p), "Cell", fmt.Sprintf("Page %d", p),
			bounds(8+(i%3)*126, 99+(i/3)*170, 120, 160))
		if !editing {
			v.on(c, onTap(func() {
				a.page = p
				a.screen = ScreenViewer
				a.present()
			}))
		}
		grid.Add(c)
	}
	return grid
}

func (a *App) editorBar(v *view) *hierarchy.Node {
	bar := element("editor.nav", "NavigationBar", "Document Editor", bounds(0, 47, 390, 44))
	bar.ID = "Document Editor"
	bar.Add(v.on(element("editor.done", "Button", "Done", bounds(320, 47, 62, 44)), onTap(func() {
		if a.pendingPages > 0 {
			a.editorAlert = true
			a.present()
			return
		}
		a.screen = ScreenThumbnails
		a.present()
	})))
	return bar
}

func (a *App) editorToolbar(v *view) *hierarchy.Node {
	bar := element("editor.toolbar", "Toolbar", "", bounds(0, 761, 390, 49))
	bar.Add(v.on(element("editor.add", "Button", "Add Page", bounds(8, 761, 100, 49)), onTap(func() {
		a.editorSheet = true
		a.present()
	})))
	return bar
}

// newPageSheet configures a new page; "Add" inserts it.
func (a *App) newPageSheet(v *view) *hierarchy.Node {
	sheet := element("sheet", "Other", "New Page", bounds(0, 300, 390, 544))
	sheet.ID = "New Page"

	table := element("sheet.table", "Table", "", bounds(0, 344, 390, 500))
	add := func() {
		a.pendingPages++
		a.editorSheet = false
		a.present()
	}
	cell := v.on(element("sheet.add.cell", "Cell", "", bounds(0, 344, 390, 44)), onTap(add))
	cell.Add(v.on(element("sheet.add", "StaticText", "Add", bounds(16, 356, 40, 20)), onTap(add)))
	table.Add(cell, element("sheet.blank", "StaticText", "Blank", bounds(16, 400, 60, 20)))

	sheet.Add(v.on(element("sheet.cancel", "Button", "Cancel", bounds(8, 300, 70, 44)), onTap(func() {
		a.editorSheet = false
	})), table)
	return sheet
}

// unsavedChangesSheet asks what to do with pages added in the editor.
func (a *App) unsavedChangesSheet(v *view) *hierarchy.Node {
	sheet := element("alert", "Sheet", "Unsaved Changes", bounds(8, 600, 374, 236))
	closeEditor := func() {
		a.editorAlert = false
		a.pendingPages = 0
		a.screen = ScreenThumbnails
		a.present()
	}
	sheet.Add(
		v.on(element("alert.discard", "Button", "Discard Changes", bounds(8, 620, 374, 57)), onTap(closeEditor)),
		v.on(element("alert.save", "Button", "Save", bounds(8, 678, 374, 57)), onTap(func() {
			for i := 0; i < a.pendingPages; i++ {
				a.doc.InsertPage(a.doc.PageCount())
			}
			closeEditor()
		})),
		v.on(element("alert.cancel", "Button", "Cancel", bounds(8, 770, 374, 57)), onTap(func() {
			a.editorAlert = false
		})),
	)
	return sheet
}

// outline is the outline container with its Outline and Bookmarks tabs.
func (a *App) outline(v *view) *hierarchy.Node {
	container := element("outline", "Other", "", bounds(0, 47, 390, 797))
	container.ID = "Outline Container"

	bar := element("outline.nav", "NavigationBar", "Outline", bounds(0, 47, 390, 44))
	bar.ID = "Outline"
	tabs := element("outline.tabs", "SegmentedControl", "", bounds(95, 53, 200, 32))
	for _, tab := range []struct{ key, label string }{{"outline", "Outline"}, {"bookmarks", "Bookmarks"}} {
		key := tab.key
		btn := element("outline.tab."+key, "Button", tab.label, bounds(95, 53, 100, 32))
		if key == "bookmarks" {
			btn.Bounds.X = 195
		}
		if a.outlineTab == key {
			btn.Value = "1"
		}
		tabs.Add(v.on(btn, onTap(func() {
			a.outlineTab = key
			a.swipedRow = 0
		})))
	}
	bar.Add(tabs, v.on(element("outline.done", "Button", "Done", bounds(320, 47, 62, 44)), onTap(func() {
		a.screen = ScreenViewer
		a.present()
	})))
	container.Add(bar)

	if a.outlineTab == "bookmarks" {
		container.Add(a.bookmarkList(v))
		return container
	}

	table := element("outline.table", "Table", "", bounds(0, 91, 390, 753))
	table.ID = "Outline"
	for i, entry := range a.doc.Outline {
		entry := entry
		table.Add(v.on(element("outline.entry."+strconv.Itoa(i), "Cell", entry.Title, bounds(0, 91+44*i, 390, 44)), onTap(func() {
			a.page = entry.Page
			a.screen = ScreenViewer
			a.present()
		})))
	}
	container.Add(table)
	return container
}

// bookmarkList shows one row per bookmark. Swiping a row left reveals its
// Delete button.
func (a *App) bookmarkList(v *view) *hierarchy.Node {
	table := element("bookmarks.table", "Table", "", bounds(0, 91, 390, 753))
	table.ID = "Bookmarks"

	pages := a.doc.Bookmarks()
	if len(pages) == 0 {
		empty := element("bookmarks.empty", "StaticText", "No Bookmarks", bounds(0, 400, 390, 21))
		empty.Value = "No Bookmarks"
		return table.Add(empty)
	}
	for i, p := range pages {
		p := p
		ref := "bookmark." + strconv.Itoa(p)
		row := element(ref, "Cell", fmt.Sprintf("Page %d", p), bounds(0, 91+44*i, 390, 44))
		v.on(row, func(action scenario.Action) error {
			switch action.Kind {
			case scenario.ActionSwipe:
				switch action.Direction {
				case scenario.DirectionLeft:
					a.swipedRow = p
				case scenario.DirectionRight:
					if a.swipedRow == p {
						a.swipedRow = 0
					}
				}
			case scenario.ActionTap, scenario.ActionDoubleTap:
				if a.swipedRow != 0 {
					a.swipedRow = 0
					return nil
				}
				a.page = p
				a.screen = ScreenViewer
				a.present()
			case scenario.ActionTypeText:
				return errNotEditable
			}
			return nil
		})
		if a.swipedRow == p {
			row.Add(v.on(element(ref+".delete", "Button", "Delete", bounds(310, 91+44*i, 80, 44)), onTap(func() {
				a.doc.RemoveBookmark(p)
				a.swipedRow = 0
			})))
		}
		table.Add(row)
	}
	return table
}

// search is the document search overlay.
func (a *App) search(v *view) *hierarchy.Node {
	container := element("search", "Other", "", bounds(0, 47, 390, 797))
	container.ID = "Search Container"

	field := element("search.field", "SearchField", "Search Document", bounds(8, 55, 300, 36))
	field.ID = "Search Document"
	field.Value = a.searchText
	v.on(field, func(action scenario.Action) error {
		if action.Kind == scenario.ActionTypeText {
			a.searchText += action.Text
		}
		return nil
	})

	cancel := v.on(element("search.cancel", "Button", "Cancel", bounds(316, 55, 66, 36)), onTap(func() {
		a.screen = ScreenViewer
		a.present()
	}))

	results := element("search.results", "Table", "", bounds(0, 99, 390, 745))
	results.ID = "Search Results"
	for i, p := range a.doc.Search(a.searchText) {
		p := p
		ref := "result." + strconv.Itoa(p)
		cell := v.on(element(ref, "Cell", fmt.Sprintf("Page %d", p), bounds(0, 99+60*i, 390, 60)), onTap(func() {
			a.page = p
			a.screen = ScreenViewer
			a.present()
		}))
		text := element(ref+".text", "StaticText", "", bounds(16, 125+60*i, 358, 20))
		text.Value = a.doc.Snippet(p)
		results.Add(cell.Add(text))
	}

	return container.Add(field, cancel, results)
}

// authorAlert asks for the annotation author before the first note.
func (a *App) authorAlert(v *view) *hierarchy.Node {
	alert := element("author", "Alert", "Annotation Author Name", bounds(45, 300, 300, 200))
	field := element("author.field", "TextField", "Author Name", bounds(61, 380, 268, 30))
	field.Value = a.authorName
	v.on(field, func(action scenario.Action) error {
		if action.Kind == scenario.ActionTypeText {
			a.authorName += action.Text
		}
		return nil
	})
	return alert.Add(
		field,
		v.on(element("author.cancel", "Button", "Cancel", bounds(45, 456, 150, 44)), onTap(func() {
			a.authorPrompt = false
		})),
		v.on(element("author.done", "Button", "Done", bounds(195, 456, 150, 44)), onTap(func() {
			if a.authorName == "" {
				a.authorName = "Anonymous"
			}
			a.authorPrompt = false
			a.annotations++
		})),
	)
}

// Package fixture builds fresh documents and viewer configurations for
// scenarios. Every call returns independent state, so a scenario never sees
// bookmarks or pages left behind by another.
package fixture

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/uiscript/pkg/sampleapp"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

// Fixture is a starting document plus the viewer configuration to show it
// with.
type Fixture struct {
	Name     string
	Document *sampleapp.Document
	Config   sampleapp.Config
}

// NewApp creates an app showing the fixture. sampleapp.Init must have been
// called.
func (f *Fixture) NewApp() (*sampleapp.App, error) {
	return sampleapp.New(f.Document, f.Config)
}

// Load shows the fixture in an existing app.
func (f *Fixture) Load(app *sampleapp.App) {
	app.Load(f.Document, f.Config)
}

// Factory creates fixtures. The zero value is ready to use.
type Factory struct {
	// AnimationDelay is applied to every configuration the factory builds.
	AnimationDelay time.Duration
}

// QuickStart returns the bundled guide in the default viewer.
func (f Factory) QuickStart() *Fixture {
	cfg := sampleapp.DefaultConfig()
	cfg.AnimationDelay = f.AnimationDelay
	return &Fixture{
		Name:     scenario.FixtureQuickStart,
		Document: f.document(),
		Config:   cfg,
	}
}

// EmptyBookmarks returns the guide with every bookmark removed, shown with
// Bookmarks and Outline bar buttons and no author name prompt.
func (f Factory) EmptyBookmarks() *Fixture {
	doc := f.document()
	doc.RemoveAllBookmarks()
	return &Fixture{
		Name:     scenario.FixtureEmptyBookmarks,
		Document: doc,
		Config: sampleapp.Config{
			AskForAnnotationUsername: false,
			RightBarButtons:          []sampleapp.BarButton{sampleapp.BarButtonBookmarks, sampleapp.BarButtonOutline},
			AnimationDelay:           f.AnimationDelay,
		},
	}
}

// Build returns the fixture a scenario names. An empty name is QuickStart.
func (f Factory) Build(name string) (*Fixture, error) {
	switch name {
	case "", scenario.FixtureQuickStart:
		return f.QuickStart(), nil
	case scenario.FixtureEmptyBookmarks:
		return f.EmptyBookmarks(), nil
	default:
		return nil, fmt.Errorf("unknown fixture %q", name)
	}
}

// document is a fresh copy of the guide under a new UID, as if copied out of
// the app bundle for this run.
func (f Factory) document() *sampleapp.Document {
	doc := sampleapp.QuickStartGuide()
	doc.UID = uuid.NewString()
	return doc
}

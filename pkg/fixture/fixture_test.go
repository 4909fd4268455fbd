package fixture

import (
	"reflect"
	"testing"

	"github.com/devicelab-dev/uiscript/pkg/sampleapp"
	"github.com/devicelab-dev/uiscript/pkg/scenario"
)

func TestFactory_EmptyBookmarks(t *testing.T) {
	f := Factory{}.EmptyBookmarks()

	if f.Name != scenario.FixtureEmptyBookmarks {
		t.Errorf("Name = %q", f.Name)
	}
	if n := len(f.Document.Bookmarks()); n != 0 {
		t.Errorf("bookmarks = %d, want 0", n)
	}
	want := []sampleapp.BarButton{sampleapp.BarButtonBookmarks, sampleapp.BarButtonOutline}
	if !reflect.DeepEqual(f.Config.RightBarButtons, want) {
		t.Errorf("RightBarButtons = %v, want %v", f.Config.RightBarButtons, want)
	}
	if f.Config.AskForAnnotationUsername {
		t.Error("AskForAnnotationUsername should be off")
	}
}

func TestFactory_FreshDocuments(t *testing.T) {
	var factory Factory
	a, b := factory.EmptyBookmarks(), factory.EmptyBookmarks()

	if a.Document.UID == "" || a.Document.UID == b.Document.UID {
		t.Errorf("UIDs = %q, %q; want distinct and non-empty", a.Document.UID, b.Document.UID)
	}
	_ = a.Document.AddBookmark(1)
	if b.Document.HasBookmark(1) {
		t.Error("fixtures share a document")
	}
}

func TestFactory_Build(t *testing.T) {
	factory := Factory{}

	tests := []struct {
		name     string
		wantName string
		wantErr  bool
	}{
		{"", scenario.FixtureQuickStart, false},
		{scenario.FixtureQuickStart, scenario.FixtureQuickStart, false},
		{scenario.FixtureEmptyBookmarks, scenario.FixtureEmptyBookmarks, false},
		{"fullOfBookmarks", "", true},
	}
	for _, tt := range tests {
		f, err := factory.Build(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Build(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if err == nil && f.Name != tt.wantName {
			t.Errorf("Build(%q).Name = %q, want %q", tt.name, f.Name, tt.wantName)
		}
	}
}

func TestFixture_NewAppAndLoad(t *testing.T) {
	if err := sampleapp.Init("fixture-test"); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	factory := Factory{}

	quick := factory.QuickStart()
	app, err := quick.NewApp()
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}
	if app.Document() != quick.Document {
		t.Error("app does not show the fixture document")
	}

	empty := factory.EmptyBookmarks()
	empty.Load(app)
	if app.Document() != empty.Document {
		t.Error("Load did not replace the document")
	}
	if app.CurrentScreen() != sampleapp.ScreenViewer {
		t.Errorf("screen = %s, want viewer", app.CurrentScreen())
	}
}

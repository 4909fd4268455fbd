package sampleapp

import "time"

// BarButton is a navigation bar button of the viewer.
type BarButton string

const (
	BarButtonThumbnails BarButton = "Thumbnails"
	BarButtonOutline    BarButton = "Outline"
	BarButtonSearch     BarButton = "Search"
	BarButtonBookmarks  BarButton = "Bookmarks"
)

// Config is the viewer configuration. Every option is an explicit field.
type Config struct {
	// AskForAnnotationUsername shows an author name prompt before the first
	// annotation is created.
	AskForAnnotationUsername bool

	// RightBarButtons are the viewer's navigation bar buttons, left to right.
	RightBarButtons []BarButton

	// AnimationDelay is how long newly presented elements stay hidden while
	// their presentation animates.
	AnimationDelay time.Duration

	// NavigationBarTitle overrides the document title in the viewer's
	// navigation bar.
	NavigationBarTitle string
}

// DefaultConfig returns the configuration of the app as launched from its
// storyboard.
func DefaultConfig() Config {
	return Config{
		AskForAnnotationUsername: true,
		RightBarButtons:          []BarButton{BarButtonOutline, BarButtonSearch, BarButtonThumbnails},
	}
}

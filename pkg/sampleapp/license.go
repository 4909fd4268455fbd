// Package sampleapp is a simulated PDF viewer app used as a scenario target
// when no device is attached. It models the screens the bundled scenarios
// drive: the viewer, thumbnails, the document editor, the outline and
// bookmark list, and document search.
package sampleapp

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotLicensed is returned when an app is created before Init.
var ErrNotLicensed = errors.New("sampleapp: Init must be called with a license key before creating an app")

var license struct {
	once sync.Once
	ok   atomic.Bool
	err  error
}

// Init sets the process-wide license key. It must be called once before the
// first app is created; later calls return the first call's result and
// change nothing. There is no teardown.
func Init(licenseKey string) error {
	license.once.Do(func() {
		if licenseKey == "" {
			license.err = errors.New("sampleapp: empty license key")
			return
		}
		license.ok.Store(true)
	})
	return license.err
}

func licensed() bool {
	return license.ok.Load()
}

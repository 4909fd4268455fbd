// Package core provides the execution model types for uiscript: the Target
// interface the runner drives, element info, errors and results.
package core

import (
	"context"
)

// Attachment represents a debug artifact captured when a step fails
type Attachment struct {
	Name        string `json:"name"`           // Descriptive name: screenshot, hierarchy
	ContentType string `json:"contentType"`    // MIME type: image/png, application/json
	Path        string `json:"path,omitempty"` // File path relative to output directory
	Body        []byte `json:"-"`              // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
	AttachmentHierarchy  = "hierarchy"
)

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Body:        data,
	}
}

// NewHierarchyAttachment creates an element tree attachment
func NewHierarchyAttachment(data []byte) Attachment {
	return Attachment{
		Name:        AttachmentHierarchy,
		ContentType: ContentTypeJSON,
		Body:        data,
	}
}

// ArtifactConfig controls when and what artifacts are captured
type ArtifactConfig struct {
	// When to capture
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false

	// What to capture
	Screenshot bool `yaml:"screenshot" json:"screenshot"` // Default: true
	Hierarchy  bool `yaml:"hierarchy" json:"hierarchy"`   // Default: true
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		Screenshot:       true,
		Hierarchy:        true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status StepStatus) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// Capture collects the configured artifacts from src. Capture errors are
// returned alongside whatever was collected.
func (c ArtifactConfig) Capture(ctx context.Context, src ArtifactSource) ([]Attachment, error) {
	var out []Attachment
	var firstErr error
	if c.Screenshot {
		data, err := src.Screenshot(ctx)
		if err != nil {
			firstErr = err
		} else if len(data) > 0 {
			out = append(out, NewScreenshotAttachment(data))
		}
	}
	if c.Hierarchy {
		data, err := src.Hierarchy(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
		} else if len(data) > 0 {
			out = append(out, NewHierarchyAttachment(data))
		}
	}
	return out, firstErr
}

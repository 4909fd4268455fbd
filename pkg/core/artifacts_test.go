package core

import (
	"context"
	"errors"
	"testing"
)

type fakeArtifactSource struct {
	screenshot    []byte
	hierarchy     []byte
	screenshotErr error
}

func (f *fakeArtifactSource) Screenshot(context.Context) ([]byte, error) {
	return f.screenshot, f.screenshotErr
}

func (f *fakeArtifactSource) Hierarchy(context.Context) ([]byte, error) {
	return f.hierarchy, nil
}

func TestDefaultArtifactConfig(t *testing.T) {
	cfg := DefaultArtifactConfig()

	if !cfg.CaptureOnFailure {
		t.Error("CaptureOnFailure should be true by default")
	}
	if cfg.CaptureOnSuccess {
		t.Error("CaptureOnSuccess should be false by default")
	}
	if !cfg.Screenshot || !cfg.Hierarchy {
		t.Error("Screenshot and Hierarchy should be true by default")
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultArtifactConfig()

	tests := []struct {
		status   StepStatus
		expected bool
	}{
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusPassed, false},
		{StatusWarned, false},
		{StatusSkipped, false},
		{StatusPending, false},
	}

	for _, tt := range tests {
		if got := cfg.ShouldCapture(tt.status); got != tt.expected {
			t.Errorf("ShouldCapture(%s) = %v, want %v", tt.status, got, tt.expected)
		}
	}
}

func TestArtifactConfig_Capture(t *testing.T) {
	src := &fakeArtifactSource{
		screenshot: []byte{0x89, 0x50, 0x4E, 0x47},
		hierarchy:  []byte(`{"type":"Application"}`),
	}

	got, err := DefaultArtifactConfig().Capture(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(got))
	}
	if got[0].Name != AttachmentScreenshot || got[0].ContentType != ContentTypePNG {
		t.Errorf("first attachment = %+v", got[0])
	}
	if got[1].Name != AttachmentHierarchy || got[1].ContentType != ContentTypeJSON {
		t.Errorf("second attachment = %+v", got[1])
	}
}

func TestArtifactConfig_CapturePartialFailure(t *testing.T) {
	src := &fakeArtifactSource{
		screenshotErr: errors.New("no display"),
		hierarchy:     []byte(`{}`),
	}

	got, err := DefaultArtifactConfig().Capture(context.Background(), src)
	if err == nil {
		t.Error("expected screenshot error")
	}
	if len(got) != 1 || got[0].Name != AttachmentHierarchy {
		t.Errorf("attachments = %+v, want hierarchy only", got)
	}
}

package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devicelab-dev/uiscript/pkg/core"
)

// BuilderConfig contains run-level information not carried by results.
type BuilderConfig struct {
	RunnerVersion string
	Target        string // sample, wda, appium
	App           App
}

// Build converts a suite result into the index and per-scenario details.
// Attachment bodies are not written; see Write.
func Build(suite *core.SuiteResult, cfg BuilderConfig) (*Index, []ScenarioDetail) {
	end := suite.StartTime.Add(suite.Duration)
	index := &Index{
		Version:   Version,
		RunID:     suite.RunID,
		Name:      suite.Name,
		Status:    StatusPassed,
		StartTime: suite.StartTime,
		EndTime:   &end,
		Duration:  suite.Duration.Milliseconds(),
		App:       cfg.App,
		Runner: RunnerInfo{
			Version: cfg.RunnerVersion,
			Target:  cfg.Target,
		},
		Summary: Summary{
			Total:   suite.TotalScenarios,
			Passed:  suite.PassedScenarios,
			Failed:  suite.FailedScenarios,
			Skipped: suite.SkippedScenarios,
		},
		Scenarios: make([]ScenarioEntry, len(suite.Scenarios)),
	}
	if !suite.Success() {
		index.Status = StatusFailed
	}

	// The first platform seen describes the run; scenarios on other
	// targets carry their own device.
	var runDevice *Device
	details := make([]ScenarioDetail, len(suite.Scenarios))
	for i := range suite.Scenarios {
		sc := &suite.Scenarios[i]
		id := fmt.Sprintf("scenario-%03d", i)

		entry := ScenarioEntry{
			Index:      i,
			ID:         id,
			Name:       sc.Name,
			SourceFile: sc.FilePath,
			DataFile:   filepath.Join("scenarios", id+".json"),
			AssetsDir:  filepath.Join("assets", id),
			Target:     sc.Target,
			Status:     convertStatus(sc.Status),
			Duration:   sc.Duration.Milliseconds(),
			Steps: StepSummary{
				Total:   sc.TotalSteps,
				Passed:  sc.PassedSteps,
				Failed:  sc.FailedSteps,
				Skipped: sc.SkippedSteps,
				Warned:  sc.WarnedSteps,
			},
		}
		if sc.Error != "" {
			msg := sc.Error
			entry.Error = &msg
		}
		if !sc.Location.IsZero() {
			entry.Location = sc.Location.String()
		}
		if dev := convertDevice(sc.PlatformInfo); dev != nil {
			if runDevice == nil {
				runDevice = dev
				index.Device = *dev
				if index.App.ID == "" {
					index.App.ID = sc.PlatformInfo.AppID
				}
			} else if *dev != *runDevice {
				entry.Device = dev
			}
		}
		index.Scenarios[i] = entry

		details[i] = ScenarioDetail{
			ID:         id,
			Name:       sc.Name,
			SourceFile: sc.FilePath,
			Tags:       sc.Tags,
			StartTime:  sc.StartTime,
			Duration:   sc.Duration.Milliseconds(),
			Steps:      buildSteps(sc.Steps),
		}
	}
	return index, details
}

func buildSteps(results []core.StepResult) []Step {
	steps := make([]Step, len(results))
	for i, r := range results {
		step := Step{
			Index:       r.Index,
			Description: r.Description,
			Verify:      r.Verify,
			Status:      convertStatus(r.Status),
			Duration:    r.Duration.Milliseconds(),
			Message:     r.Message,
			Element:     convertElement(r.Element),
		}
		if !r.Location.IsZero() {
			step.Location = r.Location.String()
		}
		if r.Error != "" {
			step.Error = &Error{Type: r.Category.String(), Message: r.Error}
		}
		steps[i] = step
	}
	return steps
}

func convertStatus(s core.StepStatus) Status {
	switch s {
	case core.StatusPassed:
		return StatusPassed
	case core.StatusWarned:
		return StatusWarned
	case core.StatusFailed:
		return StatusFailed
	case core.StatusSkipped, core.StatusPending:
		return StatusSkipped
	default:
		return StatusErrored
	}
}

func convertDevice(p *core.PlatformInfo) *Device {
	if p == nil {
		return nil
	}
	return &Device{
		ID:          p.DeviceID,
		Name:        p.DeviceName,
		Platform:    p.Platform,
		OSVersion:   p.OSVersion,
		IsSimulator: p.IsSimulator,
	}
}

func convertElement(e *core.ElementInfo) *Element {
	if e == nil {
		return nil
	}
	return &Element{
		Ref:   e.Ref,
		Type:  e.Type,
		Label: e.Label,
		Text:  e.Text,
		Bounds: &Bounds{
			X:      e.Bounds.X,
			Y:      e.Bounds.Y,
			Width:  e.Bounds.Width,
			Height: e.Bounds.Height,
		},
	}
}

// artifactFile names an attachment inside its scenario's assets directory,
// e.g. step-003-screenshot.png.
func artifactFile(stepIndex int, a core.Attachment) string {
	ext := ".bin"
	switch a.ContentType {
	case core.ContentTypePNG:
		ext = ".png"
	case core.ContentTypeJSON:
		ext = ".json"
	case core.ContentTypeText:
		ext = ".txt"
	}
	name := strings.ReplaceAll(a.Name, " ", "-")
	return fmt.Sprintf("step-%03d-%s%s", stepIndex, name, ext)
}

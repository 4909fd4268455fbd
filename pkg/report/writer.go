package report

import (
	"fmt"
	"path/filepath"

	"github.com/devicelab-dev/uiscript/pkg/core"
	"github.com/devicelab-dev/uiscript/pkg/logger"
)

// Write builds the report for suite and writes it to outputDir: the scenario
// detail files and their assets first, report.json last so a reader that
// sees the index can rely on everything it references.
func Write(outputDir string, suite *core.SuiteResult, cfg BuilderConfig) (*Index, error) {
	index, details := Build(suite, cfg)

	for i := range details {
		entry := &index.Scenarios[i]
		if err := ensureDir(filepath.Join(outputDir, entry.AssetsDir)); err != nil {
			return nil, fmt.Errorf("create assets dir for %s: %w", entry.ID, err)
		}
		if err := writeArtifacts(outputDir, entry, &details[i], suite.Scenarios[i].Steps); err != nil {
			return nil, err
		}
		if err := atomicWriteJSON(filepath.Join(outputDir, entry.DataFile), details[i]); err != nil {
			return nil, fmt.Errorf("write scenario %s: %w", entry.ID, err)
		}
	}

	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	logger.Info("report written to %s", outputDir)
	return index, nil
}

// writeArtifacts stores attachment bodies and records their paths on the
// matching steps.
func writeArtifacts(outputDir string, entry *ScenarioEntry, detail *ScenarioDetail, results []core.StepResult) error {
	for i, r := range results {
		for _, a := range r.Attachments {
			if len(a.Body) == 0 {
				continue
			}
			rel := filepath.Join(entry.AssetsDir, artifactFile(r.Index, a))
			if err := atomicWriteFile(filepath.Join(outputDir, rel), a.Body, 0644); err != nil {
				return fmt.Errorf("write %s for %s: %w", a.Name, entry.ID, err)
			}
			detail.Steps[i].Artifacts = append(detail.Steps[i].Artifacts, Artifact{
				Name:        a.Name,
				ContentType: a.ContentType,
				Path:        rel,
			})
		}
	}
	return nil
}

package report

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReadIndex reads an index file from the given path.
func ReadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- report directory chosen by the user
	if err != nil {
		return nil, err
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// ReadScenarioDetail reads a scenario detail file from the given path.
func ReadScenarioDetail(path string) (*ScenarioDetail, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- report directory chosen by the user
	if err != nil {
		return nil, err
	}

	var detail ScenarioDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ReadReport reads the complete report (index + all scenarios).
func ReadReport(reportDir string) (*Index, []ScenarioDetail, error) {
	index, err := ReadIndex(filepath.Join(reportDir, "report.json"))
	if err != nil {
		return nil, nil, err
	}

	details := make([]ScenarioDetail, len(index.Scenarios))
	for i, entry := range index.Scenarios {
		detail, err := ReadScenarioDetail(filepath.Join(reportDir, entry.DataFile))
		if err != nil {
			return nil, nil, err
		}
		details[i] = *detail
	}
	return index, details, nil
}

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GenerateJUnit generates a JUnit XML report from the report directory.
// It reads report.json and the scenario detail files, then writes
// junit-report.xml next to them.
func GenerateJUnit(reportDir string) error {
	index, details, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	xml := buildJUnitXML(index, details)

	outputPath := filepath.Join(reportDir, "junit-report.xml")
	if err := os.WriteFile(outputPath, []byte(xml), 0o644); err != nil {
		return fmt.Errorf("write junit xml: %w", err)
	}
	return nil
}

func buildJUnitXML(index *Index, details []ScenarioDetail) string {
	totalTime := float64(index.Duration) / 1000.0

	suiteName := index.Name
	if suiteName == "" {
		suiteName = "uiscript"
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(fmt.Sprintf(
		`<testsuites tests="%d" failures="%d" skipped="%d" errors="0" time="%.3f">`+"\n",
		index.Summary.Total,
		index.Summary.Failed,
		index.Summary.Skipped,
		totalTime,
	))
	b.WriteString(fmt.Sprintf(
		`  <testsuite name="%s" tests="%d" failures="%d" skipped="%d" errors="0" time="%.3f" timestamp="%s">`+"\n",
		xmlEscape(suiteName),
		index.Summary.Total,
		index.Summary.Failed,
		index.Summary.Skipped,
		totalTime,
		index.StartTime.Format(time.RFC3339),
	))

	for i := range index.Scenarios {
		var detail *ScenarioDetail
		if i < len(details) {
			detail = &details[i]
		}
		b.WriteString(buildTestCase(&index.Scenarios[i], detail, index))
	}

	b.WriteString("  </testsuite>\n")
	b.WriteString("</testsuites>\n")
	return b.String()
}

func buildTestCase(entry *ScenarioEntry, detail *ScenarioDetail, index *Index) string {
	tcTime := float64(entry.Duration) / 1000.0
	name := xmlEscape(entry.Name)
	classname := name
	if entry.SourceFile != "" {
		classname = xmlEscape(strings.TrimSuffix(filepath.Base(entry.SourceFile), filepath.Ext(entry.SourceFile)))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(
		`    <testcase name="%s" classname="%s" time="%.3f">`+"\n",
		name, classname, tcTime,
	))

	b.WriteString("      <properties>\n")
	if entry.SourceFile != "" {
		writeProperty(&b, "file", filepath.Base(entry.SourceFile))
	}
	if entry.Target != "" {
		writeProperty(&b, "target", entry.Target)
	}
	dev := entry.Device
	if dev == nil {
		dev = &index.Device
	}
	writeProperty(&b, "device.name", dev.Name)
	writeProperty(&b, "device.id", dev.ID)
	writeProperty(&b, "device.platform", dev.Platform)
	b.WriteString("      </properties>\n")

	switch {
	case entry.Status.IsFailure():
		failureType, body := resolveFailure(entry, detail)
		msg := ""
		if entry.Error != nil {
			msg = *entry.Error
		}
		if entry.Location != "" {
			msg = entry.Location + ": " + msg
		}
		b.WriteString(fmt.Sprintf(
			`      <failure message="%s" type="%s">%s</failure>`+"\n",
			xmlEscape(msg),
			xmlEscape(failureType),
			xmlEscape(body),
		))
	case entry.Status == StatusSkipped:
		b.WriteString("      <skipped/>\n")
	}

	b.WriteString("    </testcase>\n")
	return b.String()
}

func writeProperty(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(fmt.Sprintf(`        <property name="%s" value="%s"/>`+"\n", name, xmlEscape(value)))
}

// resolveFailure finds the failing step and maps its error type to a JUnit
// failure type. The body is the step description.
func resolveFailure(entry *ScenarioEntry, detail *ScenarioDetail) (failureType, body string) {
	if detail == nil {
		return "TestError", ""
	}
	for _, step := range detail.Steps {
		if !step.Status.IsFailure() {
			continue
		}
		errType := ""
		if step.Error != nil {
			errType = step.Error.Type
		}
		return mapErrorTypeToFailure(errType), step.Description
	}
	return "TestError", ""
}

func mapErrorTypeToFailure(errType string) string {
	switch errType {
	case "assertion":
		return "AssertionError"
	case "lookup":
		return "ElementNotFoundError"
	case "timeout":
		return "TimeoutError"
	case "action":
		return "ElementInteractionError"
	case "connection":
		return "ConnectionError"
	default:
		return "TestError"
	}
}

// xmlEscape escapes special XML characters in a string.
func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

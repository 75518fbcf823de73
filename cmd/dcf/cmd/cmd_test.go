package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dcf_builder/pkg/core/valuation"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeCase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.yaml")
	if _, err := run(t, "defaults", "--year", "2025", "--out", path); err != nil {
		t.Fatalf("defaults failed: %v", err)
	}
	return path
}

func TestValueCommand(t *testing.T) {
	path := writeCase(t)

	out, err := run(t, "value", path, "--json=false")
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	for _, want := range []string{"Scenario", "Base", "Enterprise value", "Per share"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	out, err = run(t, "value", path, "--json", "--discount-rate", "10")
	if err != nil {
		t.Fatalf("value --json failed: %v", err)
	}
	var payload valuation.EnginePayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("Expected JSON output, got %v", err)
	}
	if payload.Valuation.DiscountRate != 10 {
		t.Errorf("Expected discount rate override 10, got %f", payload.Valuation.DiscountRate)
	}
	if payload.Input.DiscountRateBps != 1000 {
		t.Errorf("Expected 1000 bps, got %f", payload.Input.DiscountRateBps)
	}
}

func TestValueUnknownScenario(t *testing.T) {
	path := writeCase(t)
	defer func() { scenarioID = "" }()
	if _, err := run(t, "value", path, "--scenario", "nope", "--json=false"); err == nil {
		t.Error("Expected an error for an unknown scenario")
	}
}

func TestParityCommand(t *testing.T) {
	out, err := run(t, "parity", "--json=false")
	if err != nil {
		t.Fatalf("parity failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "false") {
		t.Errorf("Expected every sample input to agree, got:\n%s", out)
	}
}

func TestNPVFromCase(t *testing.T) {
	path := writeCase(t)
	defer func() { fromCase = false }()
	out, err := run(t, "npv", path, "--from-case", "--engine", "exact", "--json=false")
	if err != nil {
		t.Fatalf("npv failed: %v", err)
	}
	if !strings.HasPrefix(out, "NPV: ") {
		t.Errorf("Expected NPV line, got %q", out)
	}
}

func TestReportCommandWritesHTML(t *testing.T) {
	path := writeCase(t)
	htmlPath := filepath.Join(t.TempDir(), "report.html")
	defer func() { reportOut = "" }()
	if _, err := run(t, "report", path, "--out", htmlPath, "--json=false"); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<table>") {
		t.Error("Expected an html table in the report")
	}
}

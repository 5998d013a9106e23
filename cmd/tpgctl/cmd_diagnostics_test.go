package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunDiagnosticsReportsMissingRunID(t *testing.T) {
	diagnosticsFlags.storeKind = "memory"
	diagnosticsFlags.runID = "does-not-exist"
	var buf bytes.Buffer
	cmd := diagnosticsCmd
	cmd.SetOut(&buf)

	if err := runDiagnostics(cmd, nil); err != nil {
		t.Fatalf("run diagnostics: %v", err)
	}
	if !strings.Contains(buf.String(), "no diagnostics") {
		t.Fatalf("expected no-diagnostics message, got=%q", buf.String())
	}
}

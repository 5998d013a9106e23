package main

import "testing"

func TestRootCommandRegistersAllSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "runs", "lineage", "diagnostics"} {
		if !names[want] {
			t.Fatalf("expected %q subcommand registered, got=%v", want, names)
		}
	}
}

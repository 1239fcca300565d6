package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNormalizeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"normalize", "--locale", "london", "15 September 2025 10:00 BST"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "2025-09-15T09:00:00Z\tzone-abbrev" {
		t.Fatalf("unexpected output %q", got)
	}

	rootCmd.SetArgs([]string{"normalize", "--locale", "london", "TBC"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected unparseable error")
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigPrint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addr: \":4000\"\nmatching:\n  policy: fifo\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "print", "--config", path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, `addr: :4000`) && !strings.Contains(got, `addr: ":4000"`) {
		t.Fatalf("resolved addr missing from output:\n%s", got)
	}
	if !strings.Contains(got, "policy: fifo") {
		t.Fatalf("resolved policy missing from output:\n%s", got)
	}
}

func TestConfigPrintRejectsInvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("matching:\n  policy: lottery\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "print", "--config", path})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation error")
	}
}

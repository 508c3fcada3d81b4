package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestPreflightPassesWithWorkingTools(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	requireContains(t, stdout, "[OK]")
	requireContains(t, stdout, "FFmpeg")
	requireContains(t, stdout, "Downloader")
}

func TestPreflightWarnsButPassesWithoutDownloader(t *testing.T) {
	env := setupCLITestEnv(t)

	if err := os.Remove(filepath.Join(env.baseDir, "bin", "yt-dlp")); err != nil {
		t.Fatalf("remove downloader stub: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight should pass without the downloader: %v", err)
	}
	requireContains(t, stdout, "[WARN]")
	requireContains(t, stdout, "web sources")
}

func TestPreflightFailsWhenFFmpegIsBroken(t *testing.T) {
	env := setupCLITestEnv(t)

	// Replace the stub with one that exits silently; present but unusable.
	broken := filepath.Join(env.baseDir, "bin", "ffmpeg")
	if err := os.WriteFile(broken, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write broken stub: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "preflight checks failed")
	requireContains(t, stdout, "[ERROR]")
}

func TestPreflightJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"preflight", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight --json: %v", err)
	}

	var results []preflightResultJSON
	if err := json.Unmarshal([]byte(stdout), &results); err != nil {
		t.Fatalf("parse JSON output: %v", err)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Errorf("check %q failed: %s", result.Name, result.Detail)
		}
	}
}

package main

import (
	"testing"
)

func TestFetchReportsCachedSources(t *testing.T) {
	env := setupCLITestEnv(t)
	roundPath := env.writeRoundFile(t)
	env.seedSources(t, "abc123.mp4", "def456.mp4")

	stdout, _, err := runCLI(t, []string{"fetch", "-i", roundPath}, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, stdout, "2 sources ready in "+env.cfg.Paths.SourcesDir)
}

func TestFetchRequiresInputFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"fetch"}, env.configPath)
	if err == nil {
		t.Fatal("expected error without --input_file")
	}
	requireContains(t, err.Error(), "input_file")
}

func TestFetchFailsOnMissingRoundFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"fetch", "-i", env.baseDir + "/missing.json"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing round file")
	}
}

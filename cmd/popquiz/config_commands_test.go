package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitWritesSampleConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "popquiz", "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# existing\n"), 0o644); err != nil {
		t.Fatalf("write existing config: %v", err)
	}

	_, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil {
		t.Fatal("expected error for existing config")
	}
	requireContains(t, err.Error(), "already exists")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateAcceptsGeneratedConfig(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "Configuration valid")
}

func TestConfigValidateRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[render]\nbackend = \"bogus\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	requireContains(t, err.Error(), "render.backend")
}

func TestConfigShowPrintsResolvedPaths(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, env.cfg.Paths.OutputDir)
	requireContains(t, stdout, env.cfg.Paths.SourcesDir)
}

func TestConfigShowJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{"config", "show", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("config show --json: %v", err)
	}

	var decoded struct {
		Paths struct {
			OutputDir string `json:"output_dir"`
		} `json:"paths"`
		Render struct {
			Backend string `json:"backend"`
		} `json:"render"`
	}
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		t.Fatalf("parse JSON output: %v", err)
	}
	if decoded.Paths.OutputDir != env.cfg.Paths.OutputDir {
		t.Errorf("output_dir = %q, want %q", decoded.Paths.OutputDir, env.cfg.Paths.OutputDir)
	}
	if decoded.Render.Backend != "filtergraph" {
		t.Errorf("backend = %q, want filtergraph", decoded.Render.Backend)
	}
}

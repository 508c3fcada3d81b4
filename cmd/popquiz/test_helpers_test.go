package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"popquiz/internal/config"
	"popquiz/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes a config file pointing at temp directories and
// stub tool binaries, then loads it the way the CLI would.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	tools := testsupport.StubTools(t, filepath.Join(base, "bin"))

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
output_dir = %q
log_dir = %q

[tools]
ffmpeg = %q
ffprobe = %q
downloader = %q
`,
		filepath.Join(base, "output"),
		filepath.Join(base, "logs"),
		tools.FFmpeg,
		tools.FFprobe,
		tools.Downloader,
	)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load test config: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	full := args
	if configPath != "" {
		full = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(full)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeRoundFile drops a two-question round file next to a sources dir so
// commands that read rounds have a valid input.
func (env *cliTestEnv) writeRoundFile(t *testing.T) string {
	t.Helper()

	doc := map[string]any{
		"round":      3,
		"theme":      "Eighties",
		"questioned": []string{"artist", "title"},
		"questions": []any{
			roundFileQuestion("abc123"),
			roundFileQuestion("def456"),
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal round: %v", err)
	}
	path := filepath.Join(env.baseDir, "round03.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write round file: %v", err)
	}
	return path
}

func roundFileQuestion(identifier string) map[string]any {
	return map[string]any{
		"sources": []any{
			map[string]any{"source": "youtube", "identifier": identifier, "format": "mp4"},
		},
		"question_video": []any{
			map[string]any{"source": 0, "interval": []string{"0:10", "0:20"}},
		},
		"question_audio": []any{
			map[string]any{"source": 0, "interval": []string{"0:10", "0:20"}},
		},
		"answer_video": []any{
			map[string]any{"source": 0, "interval": []string{"0:30", "0:45"}},
		},
		"answer_audio": []any{
			map[string]any{"source": 0, "interval": []string{"0:30", "0:45"}},
		},
		"answers": []any{
			map[string]any{"artist": "A-ha", "title": "Take On Me"},
		},
	}
}

// seedSources drops cached source files so fetch and render skip downloads.
func (env *cliTestEnv) seedSources(t *testing.T, names ...string) {
	t.Helper()

	if err := os.MkdirAll(env.cfg.Paths.SourcesDir, 0o755); err != nil {
		t.Fatalf("mkdir sources dir: %v", err)
	}
	for _, name := range names {
		path := filepath.Join(env.cfg.Paths.SourcesDir, name)
		if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
			t.Fatalf("seed source %s: %v", name, err)
		}
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

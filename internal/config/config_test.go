package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"popquiz/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("POPQUIZ_OUTPUT_DIR", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "popquiz")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.SourcesDir != filepath.Join(wantOutput, "sources") {
		t.Fatalf("unexpected sources dir: %q", cfg.Paths.SourcesDir)
	}
	if cfg.Paths.StagingDir != filepath.Join(wantOutput, "staging") {
		t.Fatalf("unexpected staging dir: %q", cfg.Paths.StagingDir)
	}
	if cfg.Paths.LedgerPath != filepath.Join(wantOutput, "staging", "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.Paths.LedgerPath)
	}
	if cfg.Video.Width != 1280 || cfg.Video.Height != 720 {
		t.Fatalf("unexpected canvas: %dx%d", cfg.Video.Width, cfg.Video.Height)
	}
	if cfg.Render.Backend != config.BackendFiltergraph {
		t.Fatalf("unexpected default backend: %q", cfg.Render.Backend)
	}
	if cfg.Tools.Downloader != "yt-dlp" {
		t.Fatalf("unexpected default downloader: %q", cfg.Tools.Downloader)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.SourcesDir, cfg.Paths.StagingDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadHonoursOutputDirEnv(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	outputDir := filepath.Join(tempHome, "from-env")
	t.Setenv("POPQUIZ_OUTPUT_DIR", outputDir)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.OutputDir != outputDir {
		t.Fatalf("output dir = %q, want %q", cfg.Paths.OutputDir, outputDir)
	}
	if cfg.Paths.SourcesDir != filepath.Join(outputDir, "sources") {
		t.Fatalf("sources dir should follow env output dir, got %q", cfg.Paths.SourcesDir)
	}
}

func TestLoadReadsFileOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
output_dir = "` + filepath.Join(tempHome, "quiz") + `"

[video]
width = 640
height = 480
fps = 30

[render]
backend = "pipeline"
format = "mkv"
keep_staging = true

[tools]
downloader = "youtube-dl"

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != configPath {
		t.Fatalf("resolved = %q, want %q", resolved, configPath)
	}
	if cfg.Video.Width != 640 || cfg.Video.Height != 480 || cfg.Video.FPS != 30 {
		t.Fatalf("video overrides not applied: %+v", cfg.Video)
	}
	if cfg.Render.Backend != config.BackendPipeline {
		t.Fatalf("backend = %q, want pipeline", cfg.Render.Backend)
	}
	if cfg.Render.Format != "mkv" {
		t.Fatalf("format = %q, want mkv", cfg.Render.Format)
	}
	if !cfg.Render.KeepStaging {
		t.Fatal("keep_staging should be true")
	}
	if cfg.Tools.Downloader != "youtube-dl" {
		t.Fatalf("downloader = %q, want youtube-dl", cfg.Tools.Downloader)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging overrides not applied: %+v", cfg.Logging)
	}
	// Box height and the rest keep their defaults.
	if cfg.Video.BoxHeight != 100 {
		t.Fatalf("box height = %d, want default 100", cfg.Video.BoxHeight)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	if err := os.WriteFile(configPath, []byte("[render]\nbackend = \"moviepy\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if !strings.Contains(err.Error(), "render.backend") {
		t.Fatalf("error should name render.backend, got %v", err)
	}
}

func TestLoadRejectsOddDimensions(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	if err := os.WriteFile(configPath, []byte("[video]\nwidth = 1279\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error for odd width")
	}
	if !strings.Contains(err.Error(), "video.width") {
		t.Fatalf("error should name video.width, got %v", err)
	}
}

func TestLoadRejectsUnsupportedFormat(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	if err := os.WriteFile(configPath, []byte("[render]\nformat = \"avi\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "render.format") {
		t.Fatalf("error should name render.format, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, ".config", "popquiz", "config.toml")
	if err := config.CreateSample(configPath); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("sample config should exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestRoundDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = "/tmp/quiz"
	if got := cfg.RoundDir(3); got != filepath.Join("/tmp/quiz", "03") {
		t.Fatalf("RoundDir(3) = %q", got)
	}
	if got := cfg.RoundDir(12); got != filepath.Join("/tmp/quiz", "12") {
		t.Fatalf("RoundDir(12) = %q", got)
	}
}

func TestToolAccessorsFallBack(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFmpeg = ""
	cfg.Tools.FFprobe = ""
	cfg.Tools.Downloader = ""
	if cfg.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("FFmpegBinary = %q", cfg.FFmpegBinary())
	}
	if cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("FFprobeBinary = %q", cfg.FFprobeBinary())
	}
	if cfg.DownloaderBinary() != "yt-dlp" {
		t.Fatalf("DownloaderBinary = %q", cfg.DownloaderBinary())
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir" json:"output_dir"`
	SourcesDir string `toml:"sources_dir" json:"sources_dir"`
	StagingDir string `toml:"staging_dir" json:"staging_dir"`
	LogDir     string `toml:"log_dir" json:"log_dir"`
	LedgerPath string `toml:"ledger_path" json:"ledger_path"`
}

// Video contains the canvas and presentation settings applied to every
// rendered question and answer video.
type Video struct {
	Width         int     `toml:"width" json:"width"`
	Height        int     `toml:"height" json:"height"`
	FPS           int     `toml:"fps" json:"fps"`
	FadeSeconds   float64 `toml:"fade_seconds" json:"fade_seconds"`
	BoxHeight     int     `toml:"box_height" json:"box_height"`
	FontSize      int     `toml:"font_size" json:"font_size"`
	TitleSeconds  float64 `toml:"title_duration_seconds" json:"title_duration_seconds"`
	SpacerSeconds float64 `toml:"spacer_duration_seconds" json:"spacer_duration_seconds"`
	BeepFrequency int     `toml:"beep_frequency" json:"beep_frequency"`
}

// Render selects the media backend and output behavior.
type Render struct {
	Backend     string `toml:"backend" json:"backend"`
	Format      string `toml:"format" json:"format"`
	KeepStaging bool   `toml:"keep_staging" json:"keep_staging"`
}

// Tools names the external binaries popquiz shells out to.
type Tools struct {
	FFmpeg     string `toml:"ffmpeg" json:"ffmpeg"`
	FFprobe    string `toml:"ffprobe" json:"ffprobe"`
	Downloader string `toml:"downloader" json:"downloader"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" json:"format"`
	Level  string `toml:"level" json:"level"`
}

// Config encapsulates all configuration values for popquiz.
//
// Configuration sections by subsystem:
//   - Paths: output, sources, staging, and log directories plus the ledger location
//   - Video: canvas dimensions, fades, text boxes, title/spacer timing
//   - Render: backend selection and container format
//   - Tools: external binary names or paths (ffmpeg, ffprobe, downloader)
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths" json:"paths"`
	Video   Video   `toml:"video" json:"video"`
	Render  Render  `toml:"render" json:"render"`
	Tools   Tools   `toml:"tools" json:"tools"`
	Logging Logging `toml:"logging" json:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/popquiz/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("popquiz.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a render run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.OutputDir,
		c.Paths.SourcesDir,
		c.Paths.StagingDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.LedgerPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RoundDir returns the per-round output directory, e.g. <output>/03 for round 3.
func (c *Config) RoundDir(round int) string {
	return filepath.Join(c.Paths.OutputDir, fmt.Sprintf("%02d", round))
}

// SetOutputDir points the output root somewhere else and re-derives the
// dependent paths still sitting at their defaults under the previous root.
func (c *Config) SetOutputDir(dir string) error {
	expanded, err := expandPath(dir)
	if err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}
	old := c.Paths.OutputDir
	oldStaging := c.Paths.StagingDir
	if c.Paths.SourcesDir == filepath.Join(old, "sources") {
		c.Paths.SourcesDir = filepath.Join(expanded, "sources")
	}
	if c.Paths.StagingDir == filepath.Join(old, "staging") {
		c.Paths.StagingDir = filepath.Join(expanded, "staging")
	}
	if c.Paths.LedgerPath == filepath.Join(oldStaging, "ledger.db") {
		c.Paths.LedgerPath = filepath.Join(c.Paths.StagingDir, "ledger.db")
	}
	c.Paths.OutputDir = expanded
	return nil
}

// FFmpegBinary returns the ffmpeg executable name or path.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFmpeg); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name or path.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Tools.FFprobe); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// DownloaderBinary returns the YouTube downloader executable name or path.
func (c *Config) DownloaderBinary() string {
	if bin := strings.TrimSpace(c.Tools.Downloader); bin != "" {
		return bin
	}
	return defaultDownloaderBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

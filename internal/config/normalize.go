package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVideo()
	c.normalizeRender()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error

	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		if value, ok := os.LookupEnv(outputDirEnv); ok && strings.TrimSpace(value) != "" {
			c.Paths.OutputDir = value
		} else {
			c.Paths.OutputDir = defaultOutputDir
		}
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.SourcesDir) == "" {
		c.Paths.SourcesDir = filepath.Join(c.Paths.OutputDir, "sources")
	}
	if c.Paths.SourcesDir, err = expandPath(c.Paths.SourcesDir); err != nil {
		return fmt.Errorf("paths.sources_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = filepath.Join(c.Paths.OutputDir, "staging")
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if strings.TrimSpace(c.Paths.LedgerPath) == "" {
		c.Paths.LedgerPath = filepath.Join(c.Paths.StagingDir, "ledger.db")
	}
	if c.Paths.LedgerPath, err = expandPath(c.Paths.LedgerPath); err != nil {
		return fmt.Errorf("paths.ledger_path: %w", err)
	}

	return nil
}

func (c *Config) normalizeVideo() {
	if c.Video.Width <= 0 {
		c.Video.Width = defaultWidth
	}
	if c.Video.Height <= 0 {
		c.Video.Height = defaultHeight
	}
	if c.Video.FPS <= 0 {
		c.Video.FPS = defaultFPS
	}
	if c.Video.FadeSeconds < 0 {
		c.Video.FadeSeconds = defaultFadeSeconds
	}
	if c.Video.BoxHeight <= 0 {
		c.Video.BoxHeight = defaultBoxHeight
	}
	if c.Video.FontSize <= 0 {
		c.Video.FontSize = defaultFontSize
	}
	if c.Video.TitleSeconds <= 0 {
		c.Video.TitleSeconds = defaultTitleSeconds
	}
	if c.Video.SpacerSeconds <= 0 {
		c.Video.SpacerSeconds = defaultSpacerSeconds
	}
	if c.Video.BeepFrequency <= 0 {
		c.Video.BeepFrequency = defaultBeepFrequency
	}
}

func (c *Config) normalizeRender() {
	c.Render.Backend = strings.ToLower(strings.TrimSpace(c.Render.Backend))
	if c.Render.Backend == "" {
		c.Render.Backend = defaultBackend
	}
	c.Render.Format = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c.Render.Format, ".")))
	if c.Render.Format == "" {
		c.Render.Format = defaultOutputFormat
	}
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	c.Tools.Downloader = strings.TrimSpace(c.Tools.Downloader)
	if c.Tools.Downloader == "" {
		c.Tools.Downloader = defaultDownloaderBinary
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

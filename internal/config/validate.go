package config

import (
	"errors"
	"fmt"
)

// Backends supported by the render section.
const (
	BackendFiltergraph = "filtergraph"
	BackendPipeline    = "pipeline"
)

var supportedFormats = map[string]struct{}{
	"mp4":  {},
	"mkv":  {},
	"mov":  {},
	"webm": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.width":          c.Video.Width,
		"video.height":         c.Video.Height,
		"video.fps":            c.Video.FPS,
		"video.box_height":     c.Video.BoxHeight,
		"video.font_size":      c.Video.FontSize,
		"video.beep_frequency": c.Video.BeepFrequency,
	}); err != nil {
		return err
	}
	// yuv420p output requires even dimensions.
	if c.Video.Width%2 != 0 {
		return errors.New("video.width must be even")
	}
	if c.Video.Height%2 != 0 {
		return errors.New("video.height must be even")
	}
	if c.Video.BoxHeight >= c.Video.Height {
		return errors.New("video.box_height must be smaller than video.height")
	}
	if c.Video.FadeSeconds < 0 {
		return errors.New("video.fade_seconds must be >= 0")
	}
	if c.Video.TitleSeconds <= 0 {
		return errors.New("video.title_duration_seconds must be positive")
	}
	if c.Video.SpacerSeconds <= 0 {
		return errors.New("video.spacer_duration_seconds must be positive")
	}
	if 2*c.Video.FadeSeconds > c.Video.TitleSeconds {
		return errors.New("video.fade_seconds must leave room inside video.title_duration_seconds")
	}
	return nil
}

func (c *Config) validateRender() error {
	switch c.Render.Backend {
	case BackendFiltergraph, BackendPipeline:
	default:
		return fmt.Errorf("render.backend must be %q or %q, got %q", BackendFiltergraph, BackendPipeline, c.Render.Backend)
	}
	if _, ok := supportedFormats[c.Render.Format]; !ok {
		return fmt.Errorf("render.format %q is not supported (use mp4, mkv, mov, or webm)", c.Render.Format)
	}
	return nil
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must be set")
	}
	if c.Tools.Downloader == "" {
		return errors.New("tools.downloader must be set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

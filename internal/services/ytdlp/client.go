package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

const (
	defaultBinary = "yt-dlp"
	watchURLBase  = "https://www.youtube.com/watch?v="
)

// Sentinel errors surfaced from stderr classification.
var (
	ErrNotInstalled  = errors.New("downloader is not installed")
	ErrVideoNotFound = errors.New("video not found")
	ErrRateLimited   = errors.New("rate limited by youtube")
)

// audioFormats are containers fetched via audio extraction rather than a
// video format selector.
var audioFormats = map[string]struct{}{
	"mp3":  {},
	"m4a":  {},
	"wav":  {},
	"flac": {},
	"opus": {},
}

// Client defines downloader behaviour required by the sources stage.
type Client interface {
	Download(ctx context.Context, videoID, format, outputDir string) (string, error)
	CheckInstalled(ctx context.Context) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name. Both yt-dlp and youtube-dl
// accept the flags used here.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the yt-dlp command-line downloader.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: defaultBinary}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Download fetches one video into outputDir as <videoID>.<format> and
// returns the downloaded path.
func (c *CLI) Download(ctx context.Context, videoID, format, outputDir string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", errors.New("video id required")
	}
	if strings.TrimSpace(format) == "" {
		return "", errors.New("format required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", errors.New("output directory required")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create sources directory: %w", err)
	}

	outputTemplate := filepath.Join(outputDir, videoID+".%(ext)s")
	args := []string{
		"-o", outputTemplate,
		"--no-warnings",
		"--no-playlist",
		"--print", "after_move:filepath",
	}
	if _, audio := audioFormats[format]; audio {
		args = append(args, "-f", "bestaudio/best", "-x", "--audio-format", format)
	} else {
		selector := fmt.Sprintf("bestvideo[ext=%s][height<=1080]+bestaudio/best[ext=%s]/best", format, format)
		args = append(args, "-f", selector, "--merge-output-format", format)
	}
	args = append(args, watchURLBase+videoID)

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", classifyFailure(videoID, err, stderr.String())
	}

	if path := finalPath(stdout.String()); path != "" {
		return path, nil
	}
	// Older youtube-dl builds lack --print; fall back to the templated name.
	return filepath.Join(outputDir, videoID+"."+format), nil
}

// CheckInstalled verifies that the downloader is available.
func (c *CLI) CheckInstalled(ctx context.Context) error {
	cmd := commandContext(ctx, c.binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %q", ErrNotInstalled, c.binary)
	}
	return nil
}

func classifyFailure(videoID string, err error, stderr string) error {
	trimmed := strings.TrimSpace(stderr)
	lowered := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lowered, "video unavailable"),
		strings.Contains(lowered, "not found"),
		strings.Contains(lowered, "does not exist"):
		return fmt.Errorf("download %s: %w", videoID, ErrVideoNotFound)
	case strings.Contains(lowered, "429"), strings.Contains(lowered, "rate-limit"), strings.Contains(lowered, "rate limit"):
		return fmt.Errorf("download %s: %w", videoID, ErrRateLimited)
	case trimmed != "":
		return fmt.Errorf("download %s: %w: %s", videoID, err, trimmed)
	default:
		return fmt.Errorf("download %s: %w", videoID, err)
	}
}

// finalPath extracts the downloaded file path printed by
// --print after_move:filepath. The output may carry extra lines; the path is
// the last non-empty line that looks like one.
func finalPath(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") || strings.Contains(line, string(os.PathSeparator)) {
			return line
		}
	}
	return ""
}

var _ Client = (*CLI)(nil)

package ffmpegcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

const defaultBinary = "ffmpeg"

// errorTailLines bounds how much merged ffmpeg output is kept for error
// reporting.
const errorTailLines = 20

// ProgressUpdate captures one ffmpeg -progress block.
type ProgressUpdate struct {
	Seconds float64
	FPS     float64
	Speed   float64
	Done    bool
}

// Runner defines the behaviour render engines need from ffmpeg.
type Runner interface {
	Run(ctx context.Context, args []string, progress func(ProgressUpdate)) error
	Version(ctx context.Context) (string, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *Client) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI invocations for both render engines.
type Client struct {
	binary string
	exec   Executor
}

// New constructs an ffmpeg client using defaults.
func New(opts ...Option) *Client {
	client := &Client{binary: defaultBinary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Run executes ffmpeg with the prepared argument list. Progress blocks are
// parsed from -progress output when a callback is supplied; all other lines
// are retained for error reporting.
func (c *Client) Run(ctx context.Context, args []string, progress func(ProgressUpdate)) error {
	if len(args) == 0 {
		return errors.New("ffmpeg arguments required")
	}

	full := make([]string, 0, len(args)+4)
	full = append(full, "-hide_banner", "-nostats")
	if progress != nil {
		full = append(full, "-progress", "pipe:1")
	}
	full = append(full, args...)

	var (
		parser progressParser
		tail   []string
	)
	err := c.exec.Run(ctx, c.binary, full, func(line string) {
		update, flush, consumed := parser.feed(line)
		if flush && progress != nil {
			progress(update)
		}
		if consumed {
			return
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			tail = append(tail, trimmed)
			if len(tail) > errorTailLines {
				tail = tail[1:]
			}
		}
	})
	if err != nil {
		if len(tail) > 0 {
			return fmt.Errorf("ffmpeg run: %w: %s", err, strings.Join(tail, "; "))
		}
		return fmt.Errorf("ffmpeg run: %w", err)
	}
	return nil
}

// Version reports the installed ffmpeg version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var first string
	err := c.exec.Run(ctx, c.binary, []string{"-version"}, func(line string) {
		if first == "" {
			first = strings.TrimSpace(line)
		}
	})
	if err != nil {
		return "", fmt.Errorf("ffmpeg version: %w", err)
	}
	return ParseVersion(first)
}

// ParseVersion extracts the version token from the first line of
// "ffmpeg -version" output. A line such as
//
//	ffmpeg version N-91586-g90dc584d21 Copyright (c) 2000-2018 the FFmpeg developers
//
// yields "N-91586-g90dc584d21".
func ParseVersion(line string) (string, error) {
	const prefix = "ffmpeg version "
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("unrecognized ffmpeg version line %q", line)
	}
	version := strings.TrimPrefix(line, prefix)
	if idx := strings.Index(version, " Copyright"); idx >= 0 {
		version = version[:idx]
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return "", fmt.Errorf("unrecognized ffmpeg version line %q", line)
	}
	return version, nil
}

// progressParser accumulates key=value lines emitted by -progress until a
// block terminator arrives. ffmpeg repeats every key per block, so state
// resets after each flush.
type progressParser struct {
	update ProgressUpdate
}

func (p *progressParser) feed(line string) (update ProgressUpdate, flush bool, consumed bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return ProgressUpdate{}, false, false
	}
	switch key {
	case "fps":
		p.update.FPS = parseProgressFloat(value)
	case "out_time_us", "out_time_ms":
		// Both report microseconds.
		if micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil && micros >= 0 {
			p.update.Seconds = float64(micros) / 1e6
		}
	case "speed":
		p.update.Speed = parseProgressFloat(strings.TrimSuffix(strings.TrimSpace(value), "x"))
	case "progress":
		p.update.Done = strings.TrimSpace(value) == "end"
		update = p.update
		p.update = ProgressUpdate{}
		return update, true, true
	case "frame", "stream_0_0_q", "bitrate", "total_size", "out_time", "dup_frames", "drop_frames":
		// Remaining block keys carry nothing the engines consume.
	default:
		return ProgressUpdate{}, false, false
	}
	return ProgressUpdate{}, false, true
}

func parseProgressFloat(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return parsed
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		// Error output can echo an entire filter graph on one line.
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	// Both scan goroutines share the callback; the caller's closure is not
	// safe for concurrent use.
	var forwardMu sync.Mutex
	forward := func(line string) {
		if onLine == nil {
			fmt.Fprintln(os.Stderr, line)
			return
		}
		forwardMu.Lock()
		onLine(line)
		forwardMu.Unlock()
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

var _ Runner = (*Client)(nil)

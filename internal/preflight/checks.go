package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"popquiz/internal/deps"
	"popquiz/internal/services/ytdlp"
)

// CheckFFmpeg verifies that ffmpeg starts and reports a parseable version.
func CheckFFmpeg(ctx context.Context, binary string) Result {
	const name = "FFmpeg"
	if strings.TrimSpace(binary) == "" {
		return Result{Name: name, Detail: "missing binary name"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := deps.FFmpegVersion(checkCtx, binary)
	if err != nil {
		return Result{Name: name, Detail: summarizeToolError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("version %s", version)}
}

// CheckDownloader verifies that the video downloader is present and answers
// --version. The check is optional: rounds without web sources never start
// the downloader, so a missing binary only blocks runs that download.
func CheckDownloader(ctx context.Context, binary string) Result {
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "Downloader",
		Command:     binary,
		Description: "needed only for web sources",
		Optional:    true,
	}})
	result := binaryResult(statuses[0])
	if !result.Passed {
		return result
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := ytdlp.NewCLI(ytdlp.WithBinary(binary))
	if err := client.CheckInstalled(checkCtx); err != nil {
		result.Passed = false
		result.Detail = summarizeToolError(err)
	}
	return result
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFFprobe verifies that the ffprobe binary is present. Ffprobe is not
// started here; every source probe during a run exercises it anyway.
func CheckFFprobe(binary string) Result {
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "FFprobe",
		Command:     binary,
		Description: "required for media inspection",
	}})
	return binaryResult(statuses[0])
}

// binaryResult translates a dependency status into a check result. Failures
// carry the requirement description so the report says what the tool is for.
func binaryResult(status deps.Status) Result {
	result := Result{Name: status.Name, Optional: status.Optional, Detail: status.Detail}
	if status.Available {
		result.Passed = true
		result.Detail = status.Command
		return result
	}
	if status.Description != "" {
		result.Detail = fmt.Sprintf("%s (%s)", status.Detail, status.Description)
	}
	return result
}

// summarizeToolError produces a human-readable summary for tool check failures.
func summarizeToolError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (tool unresponsive)"
	}
	return err.Error()
}

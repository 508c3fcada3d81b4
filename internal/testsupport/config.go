package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"popquiz/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.SourcesDir = filepath.Join(base, "sources")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LedgerPath = filepath.Join(base, "logs", "ledger.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend overrides the render backend on the test config.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Backend = backend
	}
}

// WithStubbedBinaries points the config tools at freshly written stubs.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools = StubTools(b.t, filepath.Join(b.baseDir, "bin"))
	}
}

// StubTools writes executable stand-ins for ffmpeg, ffprobe, and yt-dlp into
// dir and returns a tools section pointing at them. The ffmpeg stub answers
// the version probe and the ffprobe stub reports one 640x360 video stream
// plus audio, enough for preflight and dry runs.
func StubTools(t testing.TB, dir string) config.Tools {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir stub dir: %v", err)
	}
	write := func(name, script string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
		return path
	}
	return config.Tools{
		FFmpeg: write("ffmpeg", "#!/bin/sh\necho 'ffmpeg version 6.1.1 Copyright (c) 2000-2024 the FFmpeg developers'\n"),
		FFprobe: write("ffprobe", `#!/bin/sh
echo '{"streams":[{"codec_type":"video","width":640,"height":360},{"codec_type":"audio"}],"format":{"duration":"30.0"}}'
`),
		Downloader: write("yt-dlp", "#!/bin/sh\nexit 0\n"),
	}
}

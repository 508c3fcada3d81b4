package config

const (
	defaultOutputDir        = "~/popquiz"
	defaultLogDir           = "~/.local/share/popquiz/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultWidth            = 1280
	defaultHeight           = 720
	defaultFPS              = 25
	defaultFadeSeconds      = 3
	defaultBoxHeight        = 100
	defaultFontSize         = 50
	defaultTitleSeconds     = 10
	defaultSpacerSeconds    = 4
	defaultBeepFrequency    = 1000
	defaultBackend          = "filtergraph"
	defaultOutputFormat     = "mp4"
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultDownloaderBinary = "yt-dlp"

	// outputDirEnv overrides paths.output_dir when the config leaves it empty.
	outputDirEnv = "POPQUIZ_OUTPUT_DIR"
)

// Default returns a Config populated with repository defaults. The output
// directory is left empty so normalize can honour POPQUIZ_OUTPUT_DIR.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Video: Video{
			Width:         defaultWidth,
			Height:        defaultHeight,
			FPS:           defaultFPS,
			FadeSeconds:   defaultFadeSeconds,
			BoxHeight:     defaultBoxHeight,
			FontSize:      defaultFontSize,
			TitleSeconds:  defaultTitleSeconds,
			SpacerSeconds: defaultSpacerSeconds,
			BeepFrequency: defaultBeepFrequency,
		},
		Render: Render{
			Backend: defaultBackend,
			Format:  defaultOutputFormat,
		},
		Tools: Tools{
			FFmpeg:     defaultFFmpegBinary,
			FFprobe:    defaultFFprobeBinary,
			Downloader: defaultDownloaderBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

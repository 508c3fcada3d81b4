package deps

import (
	"context"

	"popquiz/internal/services/ffmpegcli"
)

// FFmpegVersion reports the installed ffmpeg version string, e.g.
// "N-91586-g90dc584d21" for nightlies or "6.1.1" for releases. The render
// engines use it to pick filter arguments that changed across ffmpeg
// generations.
func FFmpegVersion(ctx context.Context, binary string) (string, error) {
	client := ffmpegcli.New(ffmpegcli.WithBinary(binary))
	return client.Version(ctx)
}

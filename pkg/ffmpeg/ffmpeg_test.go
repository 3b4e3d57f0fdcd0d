package ffmpeg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThumbnailCommand_Build(t *testing.T) {
	cmd := ThumbnailCommand("ffmpeg", "/tmp/video.pipe", "/tmp/out.png", 200, 960, 540, 150)
	args := cmd.Build()

	joined := strings.Join(args, " ")
	require.Contains(t, joined, "-i /tmp/video.pipe")
	require.Contains(t, joined, "select=eq(n\\,150)")
	require.Contains(t, joined, "crop=200:200:860:440")
	require.Contains(t, joined, "-frames:v 1")
	require.True(t, strings.HasSuffix(joined, "/tmp/out.png"))
}

func TestHighlightCommand_Build(t *testing.T) {
	cmd := HighlightCommand("ffmpeg", "/tmp/video.pipe", "/tmp/out.webp", 200, 960, 540, 100, 160)
	args := cmd.Build()

	joined := strings.Join(args, " ")
	require.Contains(t, joined, "between(n\\,100\\,160)")
	require.Contains(t, joined, "not(mod(n-100\\,3))")
	require.Contains(t, joined, "-c:v libwebp_anim")
	require.Contains(t, joined, "-lossless 1")
	require.Contains(t, joined, "-loop 0")
}

func TestFullVideoCommand_Build(t *testing.T) {
	cmd := FullVideoCommand("ffmpeg", "/tmp/video.pipe", "/tmp/out.mp4")
	args := cmd.Build()

	joined := strings.Join(args, " ")
	require.Contains(t, joined, "scale=512:-1:flags=neighbor")
	require.Contains(t, joined, "-pix_fmt yuv420p")
	require.Contains(t, joined, "-preset veryslow")
	require.Contains(t, joined, "-crf 23")
	require.Contains(t, joined, "-movflags +faststart")
}

func TestConcatManifest_ReplacesInput(t *testing.T) {
	cmd := NewCommand("ffmpeg", "/tmp/video.pipe", "/tmp/out.mp4", ConcatManifest("/tmp/manifest.txt"))
	args := cmd.Build()

	joined := strings.Join(args, " ")
	require.Contains(t, joined, "-f concat -safe 0 -i /tmp/manifest.txt")
	require.NotContains(t, joined, "-i /tmp/video.pipe")
}

func TestCenteredCropPixels_ClampsNegative(t *testing.T) {
	opt := CenteredCropPixels(200, 50, 50)
	cmd := &Command{}
	opt.Apply(cmd)
	require.Equal(t, []string{"crop=200:200:0:0"}, cmd.filters)
}

package ffmpeg

import "fmt"

// CropPixels adds a crop filter with pixel coordinates, matching the
// crop_center_x/crop_center_y/crop_size columns stored on the video row.
// x and y are the top-left corner of the crop box.
func CropPixels(size, x, y int32) Option {
	return Filter(fmt.Sprintf("crop=%d:%d:%d:%d", size, size, x, y))
}

// CenteredCropPixels adds a crop filter sized cropSize square, centered on
// (centerX, centerY).
func CenteredCropPixels(cropSize, centerX, centerY int32) Option {
	x := centerX - cropSize/2
	y := centerY - cropSize/2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return CropPixels(cropSize, x, y)
}

// ScaleNeighbor scales with nearest-neighbor interpolation, matching the
// original encoder's full-video rendition filter.
func ScaleNeighbor(width, height int) Option {
	return Filter(fmt.Sprintf("scale=%d:%d:flags=neighbor", width, height))
}

// ThumbnailCommand builds the command that extracts a single cropped PNG
// frame from the input video.
func ThumbnailCommand(ffmpegPath, input, output string, cropSize, centerX, centerY, frameNumber int32, extra ...Option) *Command {
	opts := []Option{
		SelectFrame(frameNumber),
		CenteredCropPixels(cropSize, centerX, centerY),
		Frames(1),
	}
	return NewCommand(ffmpegPath, input, output, append(opts, extra...)...)
}

// HighlightCommand builds the command that extracts a cropped, losslessly
// compressed animated WebP spanning [startFrame, endFrame], sampling every
// third frame and looping forever.
func HighlightCommand(ffmpegPath, input, output string, cropSize, centerX, centerY, startFrame, endFrame int32, extra ...Option) *Command {
	opts := []Option{
		SelectRange(startFrame, endFrame),
		CenteredCropPixels(cropSize, centerX, centerY),
		VideoCodec("libwebp_anim"),
		ExtraArgs("-lossless", "1", "-loop", "0"),
	}
	return NewCommand(ffmpegPath, input, output, append(opts, extra...)...)
}

// FullVideoCommand builds the command that produces the downscaled MP4
// rendition of the entire clip.
func FullVideoCommand(ffmpegPath, input, output string, extra ...Option) *Command {
	opts := []Option{
		ScaleNeighbor(512, -1),
		PixelFormat("yuv420p"),
		Preset("veryslow"),
		CRF(23),
	}
	return NewCommand(ffmpegPath, input, output, append(opts, extra...)...)
}

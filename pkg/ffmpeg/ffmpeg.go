// Package ffmpeg provides a composable API for building and executing ffmpeg
// commands against the three video renditions: thumbnail, highlight and full
// video.
package ffmpeg

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
)

// Command represents an ffmpeg command being built.
type Command struct {
	ffmpegPath string

	inputArgs    []string // how to read the input: ["-i", path] or a concat demuxer invocation
	preInput     []string // args before the input args (like -ss for input seeking)
	postInput    []string // args after the input args
	filters      []string // collected -vf filters
	audioFilters []string // collected -af filters
	output       string
}

// Option modifies a Command. Each option appends to its own argument group
// (pre-input, input, post-input, filters), and Build emits the groups in
// ffmpeg's expected order; within a group, and for the -vf filter chain,
// arguments keep the order in which the options were applied.
type Option interface {
	Apply(cmd *Command)
}

// OptionFunc is a function that implements Option.
type OptionFunc func(cmd *Command)

// Apply implements Option.
func (f OptionFunc) Apply(cmd *Command) { f(cmd) }

// NewCommand creates a command reading from a single input path and writing
// to output, applying opts in order.
func NewCommand(ffmpegPath, input, output string, opts ...Option) *Command {
	cmd := &Command{
		ffmpegPath: ffmpegPath,
		inputArgs:  []string{"-i", input},
		output:     output,
	}
	for _, opt := range opts {
		opt.Apply(cmd)
	}
	return cmd
}

// Build returns the complete ffmpeg argument list.
func (c *Command) Build() []string {
	args := []string{"-hide_banner", "-y"}
	args = append(args, c.preInput...)
	args = append(args, c.inputArgs...)
	args = append(args, c.postInput...)

	if len(c.filters) > 0 {
		args = append(args, "-vf", strings.Join(c.filters, ","))
	}
	if len(c.audioFilters) > 0 {
		args = append(args, "-af", strings.Join(c.audioFilters, ","))
	}

	ext := strings.ToLower(filepath.Ext(c.output))
	if ext == ".mp4" || ext == ".m4a" || ext == ".mov" {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, c.output)
	return args
}

// Run executes the ffmpeg command and waits for completion.
func (c *Command) Run(ctx context.Context) error {
	return run(ctx, c.ffmpegPath, c.Build())
}

// RunCapture executes the ffmpeg command and returns both stderr logs and any error.
func (c *Command) RunCapture(ctx context.Context) RunResult {
	return runCapture(ctx, c.ffmpegPath, c.Build())
}

// Start starts the command and returns a Process handle for lifecycle management.
// The caller is responsible for calling Wait() or Kill() to clean up.
func (c *Command) Start(ctx context.Context) (*Process, error) {
	return Start(ctx, c.ffmpegPath, c.Build())
}

// --- Input options ---

// ConcatManifest replaces the plain -i input with ffmpeg's concat demuxer,
// reading manifestPath (a text file of `file '<path>'` lines) so that the
// parts of a chunked upload are read back-to-back as one logical input.
func ConcatManifest(manifestPath string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.inputArgs = []string{"-f", "concat", "-safe", "0", "-i", manifestPath}
	})
}

// --- Frame-selection options ---

// SelectFrame adds a select filter that passes through only frame n,
// matching the original encoder's single-frame thumbnail extraction.
func SelectFrame(n int32) Option {
	return Filter("select=eq(n\\," + itoa32(n) + ")")
}

// SelectRange adds a select filter that passes through every third frame
// between start and end inclusive, matching the original encoder's
// highlight-animation sampling.
func SelectRange(start, end int32) Option {
	return Filter("select='between(n\\," + itoa32(start) + "\\," + itoa32(end) +
		")*not(mod(n-" + itoa32(start) + "\\,3))'")
}

// --- Video codec options ---

// VideoCodec sets the video codec (-c:v).
func VideoCodec(codec string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-c:v", codec)
	})
}

// CRF sets the constant rate factor.
func CRF(value int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-crf", itoa(value))
	})
}

// Preset sets the encoding preset (ultrafast, fast, medium, veryslow, etc.).
func Preset(name string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-preset", name)
	})
}

// PixelFormat sets the pixel format (-pix_fmt).
func PixelFormat(format string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-pix_fmt", format)
	})
}

// --- Filter options ---

// Filter adds a video filter to the filter chain.
func Filter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.filters = append(cmd.filters, f)
	})
}

// AudioFilter adds an audio filter to the filter chain.
func AudioFilter(f string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.audioFilters = append(cmd.audioFilters, f)
	})
}

// --- Output options ---

// Frames sets the number of frames to output (-frames:v).
func Frames(n int) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, "-frames:v", itoa(n))
	})
}

// LogLevel sets ffmpeg's own logging verbosity.
func LogLevel(level string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.preInput = append([]string{"-loglevel", level}, cmd.preInput...)
	})
}

// ExtraArgs adds raw arguments (escape hatch for options with no dedicated constructor).
func ExtraArgs(args ...string) Option {
	return OptionFunc(func(cmd *Command) {
		cmd.postInput = append(cmd.postInput, args...)
	})
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func itoa32(n int32) string {
	return strconv.FormatInt(int64(n), 10)
}

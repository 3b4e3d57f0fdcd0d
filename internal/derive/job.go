package derive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"maprandovideos.io/videos/internal/messaging"
	"maprandovideos.io/videos/pkg/fifo"
)

// job holds every scratch path used while deriving one rendition for one
// video: a part file and a named pipe per part, a concat manifest listing
// the pipes, and the eventual output path. Names are namespaced by video id
// and kind so concurrent jobs for different videos (or different kinds of
// the same video, run by separate worker processes) never collide, per
// §5's shared-/tmp note.
type job struct {
	dir          string
	videoID      int32
	manifestPath string
	outputPath   string

	partPaths []string
	pipes     []*fifo.Pipe
}

func newJob(scratchDir string, videoID int32, kind messaging.Kind) (*job, error) {
	dir := filepath.Join(scratchDir, fmt.Sprintf("derive-%d-%s", videoID, kind))
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &job{
		dir:          dir,
		videoID:      videoID,
		manifestPath: filepath.Join(dir, "manifest.txt"),
	}, nil
}

// addPart registers the scratch part file and named pipe for part n,
// creating the pipe immediately (unlinking any stale one left by a crashed
// prior attempt).
func (j *job) addPart(n int32) error {
	partPath := filepath.Join(j.dir, fmt.Sprintf("part-%d.avi", n))
	pipePath := filepath.Join(j.dir, fmt.Sprintf("part-%d.pipe", n))

	pipe, err := fifo.Create(pipePath)
	if err != nil {
		return fmt.Errorf("create pipe for part %d: %w", n, err)
	}

	j.partPaths = append(j.partPaths, partPath)
	j.pipes = append(j.pipes, pipe)
	return nil
}

// writeManifest writes the concat demuxer manifest listing each part's pipe
// in order, so ffmpeg reads them back-to-back as one logical input.
func (j *job) writeManifest() error {
	f, err := os.Create(j.manifestPath)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, pipe := range j.pipes {
		if _, err := fmt.Fprintf(w, "file '%s'\n", pipe.Path); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (j *job) cleanup() {
	for _, pipe := range j.pipes {
		_ = pipe.Close()
	}
	_ = os.RemoveAll(j.dir)
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func feedPart(ctx context.Context, partPath string, w *os.File) error {
	f, err := os.Open(partPath)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func jsonUnmarshal(data []byte, v *messaging.DerivationMessage) error {
	return json.Unmarshal(data, v)
}

// Package fifo manages named pipes used to stream decompressed video bytes
// from scratch part files into ffmpeg, mirroring the original encoder's use
// of unix_named_pipe::create ahead of each invocation.
package fifo

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// Pipe is a named pipe at a fixed path, owned for the lifetime of one
// derivation job. Create removes any stale pipe left behind by a crashed
// prior attempt before making a fresh one.
type Pipe struct {
	Path string
}

// Create makes a new FIFO at path, unlinking anything already there first.
func Create(path string) (*Pipe, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("fifo: remove stale pipe %s: %w", path, err)
	}
	if err := unix.Mkfifo(path, 0o600); err != nil {
		return nil, fmt.Errorf("fifo: mkfifo %s: %w", path, err)
	}
	return &Pipe{Path: path}, nil
}

// Close removes the pipe from disk.
func (p *Pipe) Close() error {
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("fifo: remove %s: %w", p.Path, err)
	}
	return nil
}

// Feed opens the pipe for writing and copies from src into it, running
// alongside the ffmpeg reader in an errgroup so the feeder is canceled the
// moment ffmpeg exits or the context is canceled. ffmpeg frequently stops
// reading before src is exhausted (a single thumbnail frame or a short
// highlight range), so the reader end closing early and producing a
// write: broken pipe error is expected, not a failure, and is suppressed.
func Feed(ctx context.Context, g *errgroup.Group, path string, src func(w *os.File) error) {
	g.Go(func() error {
		f, err := openWriteWithContext(ctx, path)
		if err != nil {
			return fmt.Errorf("fifo: open %s for writing: %w", path, err)
		}
		defer f.Close()

		err = src(f)
		if isBrokenPipe(err) {
			return nil
		}
		return err
	})
}

// openWriteWithContext opens the FIFO for writing, honoring cancellation
// while blocked waiting for a reader (ffmpeg) to open the other end.
func openWriteWithContext(ctx context.Context, path string) (*os.File, error) {
	type result struct {
		f   *os.File
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := os.OpenFile(path, os.O_WRONLY, 0o600)
		ch <- result{f, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.f, r.err
	}
}

// isBrokenPipe reports whether err represents ffmpeg having closed its end
// of the pipe before the feeder finished writing.
func isBrokenPipe(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, unix.EPIPE)
}

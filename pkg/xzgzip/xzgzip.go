// Package xzgzip transcodes between the gzip streams uploaded by clients and
// the xz streams the object store holds at rest, mirroring the original
// encoder's use of async_compression's gzip decoder on upload and xz decoder
// on read-back.
package xzgzip

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// GzipToXZ reads a gzip-compressed stream from src, re-compresses it as xz at
// the given preset level, and writes the result to dst. It is used when a
// video part arrives over HTTP gzip-encoded and must be re-homed in object
// storage as xz.
func GzipToXZ(dst io.Writer, src io.Reader, level int) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("xzgzip: open gzip reader: %w", err)
	}
	defer gz.Close()

	cfg := xz.WriterConfig{}
	if level > 0 {
		cfg.DictCap = dictCapForLevel(level)
	}
	xw, err := cfg.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("xzgzip: open xz writer: %w", err)
	}

	if _, err := io.Copy(xw, gz); err != nil {
		_ = xw.Close()
		return fmt.Errorf("xzgzip: transcode: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("xzgzip: close xz writer: %w", err)
	}
	return nil
}

// XZReader wraps src, an xz-compressed object store read, with a streaming
// xz decoder, so a part is decompressed without buffering it whole in
// memory. The derivation worker uses it to decode each part into a scratch
// file before its pipe feeder starts; the feeders themselves copy the
// already-decoded file and do no decompression.
func XZReader(src io.Reader) (io.Reader, error) {
	r, err := xz.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("xzgzip: open xz reader: %w", err)
	}
	return r, nil
}

// dictCapForLevel maps the familiar 1-9 gzip-style compression level scale
// onto xz's dictionary capacity, clamping to xz's supported range.
func dictCapForLevel(level int) int {
	switch {
	case level <= 1:
		return 1 << 20 // 1 MiB
	case level >= 7:
		return 64 << 20 // 64 MiB
	default:
		return (1 << 20) << uint(level-1)
	}
}

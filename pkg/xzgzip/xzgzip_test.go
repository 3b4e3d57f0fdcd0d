package xzgzip

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGzipToXZ_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("RIFF-fake-avi-frame-data"), 4096)

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	_, err := gw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var xzBuf bytes.Buffer
	require.NoError(t, GzipToXZ(&xzBuf, &gzBuf, 6))
	require.NotEmpty(t, xzBuf.Bytes())

	r, err := XZReader(&xzBuf)
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestGzipToXZ_RejectsNonGzipInput(t *testing.T) {
	var dst bytes.Buffer
	err := GzipToXZ(&dst, bytes.NewReader([]byte("not gzip")), 6)
	require.Error(t, err)
}

package cdn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_SelectsNoopWhenUnconfigured(t *testing.T) {
	p := New("", "")
	require.IsType(t, NoopPurger{}, p)
	require.NoError(t, p.Purge(context.Background(), "/videos/42/thumbnail.png"))
}

func TestHTTPPurger_Purge(t *testing.T) {
	var gotMethod, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(srv.URL, "secret-key")
	err := p.Purge(context.Background(), "/videos/42/thumbnail.png")
	require.NoError(t, err)
	require.Equal(t, "PURGE", gotMethod)
	require.Equal(t, "Bearer secret-key", gotAuth)
	require.Equal(t, "/videos/42/thumbnail.png", gotPath)
}

func TestHTTPPurger_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New(srv.URL, "")
	err := p.Purge(context.Background(), "/videos/1/highlight.webp")
	require.Error(t, err)
}

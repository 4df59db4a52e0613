package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/gamehost/errors"
)

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sfx/jump.wav" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("RIFF-payload"))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client()}

	data, err := c.Fetch(context.Background(), srv.URL+"/sfx/jump.wav")
	require.NoError(t, err)
	require.Equal(t, "RIFF-payload", string(data))

	_, err = c.Fetch(context.Background(), srv.URL+"/missing.wav")
	require.Error(t, err)
	require.True(t, errors.IsKind(err, errors.KindLoadFailure), "non-2xx must be a load failure: %v", err)
}

func TestFetch_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := Fetch(context.Background(), addr+"/clip.ogg")
	require.Error(t, err)
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseFetch, Kind: errors.KindLoadFailure})
}

func TestFetch_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))

	data, err := Fetch(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, "bytes", string(data))

	data, err = Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	require.Equal(t, "bytes", string(data))

	_, err = Fetch(context.Background(), filepath.Join(dir, "nope.wav"))
	require.True(t, errors.IsKind(err, errors.KindLoadFailure))
}

func TestFetch_EmptyPathAndCanceled(t *testing.T) {
	_, err := Fetch(context.Background(), "")
	require.True(t, errors.IsKind(err, errors.KindLoadFailure))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Fetch(ctx, "whatever.wav")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetcherFunc(t *testing.T) {
	var f Fetcher = FetcherFunc(func(_ context.Context, path string) ([]byte, error) {
		return []byte(path), nil
	})
	data, err := f.Fetch(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "x", string(data))
}

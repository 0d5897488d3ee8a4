package gtfsrt

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.pb")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	raw, err := NewClient(nil).Fetch(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), raw)
}

func TestFetchMissingFile(t *testing.T) {
	_, err := NewClient(nil).Fetch("/does/not/exist.pb")
	assert.Error(t, err)
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Api-Key"))
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	raw, err := NewClient(map[string]string{"Api-Key": "secret"}).Fetch(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), raw)
}

func TestFetchHTTPGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte("payload"))
		_ = zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	raw, err := NewClient(nil).Fetch(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), raw)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(nil).Fetch(srv.URL)
	var ferr *FeedFetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusForbidden, ferr.StatusCode)
}

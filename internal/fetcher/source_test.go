package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liste.pdf")
	require.NoError(t, writeTestFile(path, "%PDF"))

	local, err := Resolve(context.Background(), path, SourceOptions{})
	require.NoError(t, err)
	assert.Equal(t, path, local.Path)
	assert.False(t, local.Downloaded)

	require.NoError(t, local.Close())
	_, err = os.Stat(path)
	assert.NoError(t, err, "local input must not be removed")
}

func TestResolve_MissingLocalFile(t *testing.T) {
	_, err := Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), SourceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: input")
}

func TestResolve_Directory(t *testing.T) {
	_, err := Resolve(context.Background(), t.TempDir(), SourceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestResolve_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/liste.pdf", r.URL.Path)
		w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	local, err := Resolve(context.Background(), srv.URL+"/files/liste.pdf", SourceOptions{TempDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, local.Downloaded)
	assert.Equal(t, ".pdf", filepath.Ext(local.Path))

	data, err := os.ReadFile(local.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	require.NoError(t, local.Close())
	_, err = os.Stat(local.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_HTTPFailureRemovesTemp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := Resolve(context.Background(), srv.URL+"/liste.pdf", SourceOptions{TempDir: dir})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolve_HTTPIsAttemptedOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Resolve(context.Background(), srv.URL+"/liste.pdf", SourceOptions{TempDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcherFor_HTTPSingleAttempt(t *testing.T) {
	f, err := fetcherFor("https", SourceOptions{Timeout: 5 * time.Second})
	require.NoError(t, err)

	hf, ok := f.(*HTTPFetcher)
	require.True(t, ok)
	assert.Equal(t, 1, hf.opts.MaxRetries)
	assert.Equal(t, 5*time.Second, hf.opts.Timeout)
}

type stubFetcher struct {
	body string
	urls []string
}

func (s *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	s.urls = append(s.urls, url)
	return io.NopCloser(strings.NewReader(s.body)), nil
}

func (s *stubFetcher) DownloadToFile(ctx context.Context, url, path string) (int64, error) {
	rc, _ := s.Download(ctx, url)
	return writeFile(path, rc)
}

func TestResolve_FTPUsesOverride(t *testing.T) {
	stub := &stubFetcher{body: "%PDF-ftp"}
	local, err := Resolve(context.Background(), "ftp://ftp.example.com/liste.pdf", SourceOptions{
		TempDir:  t.TempDir(),
		Fetchers: map[string]Fetcher{"ftp": stub},
	})
	require.NoError(t, err)
	defer local.Close()

	assert.Equal(t, []string{"ftp://ftp.example.com/liste.pdf"}, stub.urls)
	data, err := os.ReadFile(local.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-ftp", string(data))
}

func TestResolve_UnsupportedScheme(t *testing.T) {
	_, err := Resolve(context.Background(), "s3://bucket/liste.pdf", SourceOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestSchemeOf(t *testing.T) {
	assert.Equal(t, "", schemeOf("liste.pdf"))
	assert.Equal(t, "", schemeOf("/data/liste.pdf"))
	assert.Equal(t, "", schemeOf(`C:\data\liste.pdf`))
	assert.Equal(t, "https", schemeOf("HTTPS://example.com/x.pdf"))
	assert.Equal(t, "ftp", schemeOf("ftp://example.com/x.pdf"))
}

package fetcher

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SourceOptions configures Resolve.
type SourceOptions struct {
	Timeout time.Duration
	// TempDir receives downloads. Empty means os.TempDir().
	TempDir string
	// Fetchers override the scheme handlers, keyed by "http", "https" or "ftp".
	Fetchers map[string]Fetcher
}

// Local is a resolved input file. Close removes it when it was downloaded.
type Local struct {
	Path       string
	Downloaded bool
}

// Close deletes downloaded copies. Local inputs are left alone.
func (l *Local) Close() error {
	if !l.Downloaded {
		return nil
	}
	if err := os.Remove(l.Path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "fetcher: remove %s", l.Path)
	}
	return nil
}

// Resolve turns src into a readable local file. http(s):// and ftp:// sources
// are downloaded into a temp file; anything else must be an existing path.
func Resolve(ctx context.Context, src string, opts SourceOptions) (*Local, error) {
	scheme := schemeOf(src)
	if scheme == "" {
		info, err := os.Stat(src)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: input %s", src)
		}
		if info.IsDir() {
			return nil, eris.Errorf("fetcher: input %s is a directory", src)
		}
		return &Local{Path: src}, nil
	}

	f, err := fetcherFor(scheme, opts)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(opts.TempDir, "praxis-*"+extOf(src))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create temp file")
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	log := zap.L().With(zap.String("source", src))
	log.Info("downloading input")

	n, err := f.DownloadToFile(ctx, src, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, eris.Wrapf(err, "fetcher: download %s", src)
	}

	log.Info("input downloaded", zap.String("path", tmpPath), zap.Int64("bytes", n))
	return &Local{Path: tmpPath, Downloaded: true}, nil
}

func fetcherFor(scheme string, opts SourceOptions) (Fetcher, error) {
	if f, ok := opts.Fetchers[scheme]; ok {
		return f, nil
	}
	switch scheme {
	case "http", "https":
		// input downloads are attempted once
		return NewHTTPFetcher(HTTPOptions{Timeout: opts.Timeout, MaxRetries: 1}), nil
	case "ftp":
		return NewFTPFetcher(FTPOptions{Timeout: opts.Timeout}), nil
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme %q", scheme)
	}
}

// schemeOf returns the lower-cased URL scheme, or "" for plain paths. Windows
// drive letters ("C:\...") are treated as paths.
func schemeOf(src string) string {
	u, err := url.Parse(src)
	if err != nil || len(u.Scheme) < 2 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func extOf(src string) string {
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		return path.Ext(u.Path)
	}
	return filepath.Ext(src)
}

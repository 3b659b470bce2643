// Package fetcher opens product feed files from local disk, HTTP, and
// FTP sources and parses CSV and XLSX payloads.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Options configures remote fetching.
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "ingest-cli/1.0"
	}
	return o
}

// Open returns a reader for the given feed location. Local paths are
// opened directly; http(s):// and ftp:// locations are downloaded.
func Open(ctx context.Context, location string, opts Options) (io.ReadCloser, error) {
	switch scheme(location) {
	case "http", "https":
		return NewHTTPFetcher(opts).Download(ctx, location)
	case "ftp":
		return NewFTPFetcher(opts).Download(ctx, location)
	default:
		f, err := os.Open(location)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", location)
		}
		return f, nil
	}
}

// Localize makes the feed available as a local file and returns its
// path. XLSX parsing needs a seekable file, so remote feeds are
// spooled to a temp file; the caller runs cleanup when done.
func Localize(ctx context.Context, location string, opts Options) (path string, cleanup func(), err error) {
	if scheme(location) == "" {
		return location, func() {}, nil
	}

	rc, err := Open(ctx, location, opts)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close() //nolint:errcheck

	tmp, err := os.CreateTemp("", "feed-*"+filepath.Ext(location))
	if err != nil {
		return "", nil, eris.Wrap(err, "fetcher: create temp file")
	}

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", nil, eris.Wrapf(err, "fetcher: spool %s", location)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", nil, eris.Wrap(err, "fetcher: close temp file")
	}

	name := tmp.Name()
	return name, func() { os.Remove(name) }, nil //nolint:errcheck
}

func scheme(location string) string {
	if !strings.Contains(location, "://") {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return u.Scheme
}

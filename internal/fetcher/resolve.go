package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ConditionalFetcher is a Fetcher that can skip unchanged downloads.
type ConditionalFetcher interface {
	Fetcher
	DownloadIfChanged(ctx context.Context, url string, etag string) (body io.ReadCloser, newETag string, changed bool, err error)
}

// Resolver turns a source location into a local file path. Local paths are
// returned as-is; http(s) and ftp locations are downloaded into CacheDir and
// reused across runs. HTTP downloads are revalidated with the stored ETag.
type Resolver struct {
	HTTP     ConditionalFetcher
	FTP      Fetcher
	CacheDir string
}

// NewResolver builds a Resolver from the two fetchers.
func NewResolver(httpF ConditionalFetcher, ftpF Fetcher, cacheDir string) *Resolver {
	return &Resolver{HTTP: httpF, FTP: ftpF, CacheDir: cacheDir}
}

// IsRemote reports whether location names an http(s) or ftp resource.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// Resolve returns a local path holding the content at location.
func (r *Resolver) Resolve(ctx context.Context, location string) (string, error) {
	if !IsRemote(location) {
		if _, err := os.Stat(location); err != nil {
			return "", eris.Wrapf(err, "fetcher: stat %s", location)
		}
		return location, nil
	}

	if err := os.MkdirAll(r.CacheDir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create cache dir")
	}
	dest := r.cachePath(location)
	log := zap.L().With(zap.String("component", "fetcher"), zap.String("location", location))

	if strings.HasPrefix(strings.ToLower(location), "ftp") {
		if _, err := os.Stat(dest); err == nil {
			log.Debug("using cached download", zap.String("path", dest))
			return dest, nil
		}
		if r.FTP == nil {
			return "", eris.Errorf("fetcher: no ftp fetcher for %s", location)
		}
		n, err := r.FTP.DownloadToFile(ctx, location, dest)
		if err != nil {
			return "", eris.Wrapf(err, "fetcher: download %s", location)
		}
		log.Info("downloaded", zap.Int64("bytes", n))
		return dest, nil
	}

	if r.HTTP == nil {
		return "", eris.Errorf("fetcher: no http fetcher for %s", location)
	}

	etag := ""
	if _, err := os.Stat(dest); err == nil {
		if b, err := os.ReadFile(dest + ".etag"); err == nil {
			etag = strings.TrimSpace(string(b))
		}
	}

	body, newETag, changed, err := r.HTTP.DownloadIfChanged(ctx, location, etag)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", location)
	}
	if !changed {
		log.Debug("not modified, using cached download", zap.String("path", dest))
		return dest, nil
	}
	defer body.Close() //nolint:errcheck

	n, err := writeFile(dest, body)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: save %s", location)
	}
	if newETag != "" {
		if err := os.WriteFile(dest+".etag", []byte(newETag), 0o644); err != nil {
			log.Warn("failed to store etag", zap.Error(err))
		}
	} else {
		os.Remove(dest + ".etag") //nolint:errcheck
	}
	log.Info("downloaded", zap.Int64("bytes", n))
	return dest, nil
}

// cachePath keys the cache by a digest of the location and keeps the
// original file name so extension-based detection still works.
func (r *Resolver) cachePath(location string) string {
	sum := sha256.Sum256([]byte(location))
	name := "download"
	if u, err := url.Parse(location); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			name = base
		}
	}
	return filepath.Join(r.CacheDir, hex.EncodeToString(sum[:8])+"-"+name)
}

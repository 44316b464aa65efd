package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves the raw bytes behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Index holds the current catalog snapshot. Readers always see a complete
// snapshot; refreshes decode a new one off to the side and swap it in.
type Index struct {
	url       string
	cachePath string
	fetcher   Fetcher

	mu    sync.RWMutex
	snap  *Snapshot
	group singleflight.Group
	log   zerolog.Logger
}

// NewIndex creates an empty index backed by the given endpoint and disk cache.
// An empty cachePath disables the disk cache.
func NewIndex(url, cachePath string, fetcher Fetcher) *Index {
	return &Index{
		url:       url,
		cachePath: cachePath,
		fetcher:   fetcher,
		snap:      NewSnapshot(nil),
		log:       logging.GetLogger("catalog"),
	}
}

// Snapshot returns the current snapshot. It is never nil.
func (i *Index) Snapshot() *Snapshot {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.snap
}

// Replace swaps in a new snapshot
func (i *Index) Replace(s *Snapshot) {
	i.mu.Lock()
	i.snap = s
	i.mu.Unlock()
}

// Package finds a package in the current snapshot
func (i *Index) Package(fullName string) (*Package, bool) {
	return i.Snapshot().Package(fullName)
}

// Version finds an exact package version in the current snapshot
func (i *Index) Version(fullName, versionNumber string) (Version, bool) {
	return i.Snapshot().Version(fullName, versionNumber)
}

// Refresh downloads the listing, swaps the new snapshot in and writes the raw
// listing to the disk cache. Concurrent callers share a single download.
func (i *Index) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, shared := i.group.Do("refresh", func() (interface{}, error) {
		done := logging.LogOperationStart(i.log, "catalog refresh")
		defer done()

		data, err := i.fetcher.Fetch(ctx, i.url)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to fetch catalog from %s", i.url)
		}

		snap, err := Decode(data)
		if err != nil {
			return nil, err
		}
		i.Replace(snap)

		if err := i.writeCache(data); err != nil {
			i.log.Warn().Err(err).Str("path", i.cachePath).Msg("Failed to write catalog cache")
		}

		i.log.Info().Int("packages", snap.Len()).Msg("Catalog refreshed")
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		i.log.Debug().Msg("Joined in-flight catalog refresh")
	}
	return v.(*Snapshot), nil
}

// Load uses the disk cache when it is younger than maxAge and refreshes
// otherwise. A stale cache is still used when the refresh fails.
func (i *Index) Load(ctx context.Context, maxAge time.Duration) (*Snapshot, error) {
	data, modTime, cacheErr := i.readCache()
	if cacheErr == nil && time.Since(modTime) <= maxAge {
		snap, err := Decode(data)
		if err == nil {
			i.Replace(snap)
			i.log.Debug().Str("path", i.cachePath).Int("packages", snap.Len()).Msg("Catalog loaded from cache")
			return snap, nil
		}
		i.log.Warn().Err(err).Msg("Discarding unreadable catalog cache")
		cacheErr = err
	}

	snap, err := i.Refresh(ctx)
	if err == nil {
		return snap, nil
	}

	if cacheErr == nil {
		if stale, decodeErr := Decode(data); decodeErr == nil {
			i.log.Warn().Err(err).Time("cachedAt", modTime).Msg("Catalog refresh failed, using stale cache")
			i.Replace(stale)
			return stale, nil
		}
	}
	return nil, err
}

func (i *Index) readCache() ([]byte, time.Time, error) {
	if i.cachePath == "" {
		return nil, time.Time{}, errors.New(errors.ErrNotFound, "catalog cache disabled")
	}
	info, err := os.Stat(i.cachePath)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(i.cachePath)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, info.ModTime(), nil
}

func (i *Index) writeCache(data []byte) error {
	if i.cachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(i.cachePath), 0755); err != nil {
		return err
	}
	tmp := i.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, i.cachePath)
}

package fetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/danisty/LethalManager/internal/errors"
	"github.com/danisty/LethalManager/internal/logging"
	"github.com/rs/zerolog"
)

// Cache stores downloaded archives on disk keyed by name. A cached file is
// reused as-is; nothing is re-validated.
type Cache struct {
	dir     string
	fetcher Fetcher
	log     zerolog.Logger
}

// NewCache creates a download cache rooted at dir
func NewCache(dir string, fetcher Fetcher) *Cache {
	return &Cache{
		dir:     dir,
		fetcher: fetcher,
		log:     logging.GetLogger("fetch"),
	}
}

// Path returns where the archive for key is stored
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+".zip")
}

// Get returns the local path of the archive for key, downloading it from url
// when it is not cached yet.
func (c *Cache) Get(ctx context.Context, key, url string) (string, error) {
	path := c.Path(key)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		c.log.Debug().Str("key", key).Str("path", path).Msg("Using cached download")
		return path, nil
	}

	c.log.Debug().Str("key", key).Str("url", url).Msg("Downloading")
	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to download %s", key)
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrIOFailure, "failed to create download directory")
	}

	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to store %s", path)
	}

	return path, nil
}

// Clear removes every cached download
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to clear download cache")
	}
	return nil
}

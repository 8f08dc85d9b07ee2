package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"photosync/internal/catalog"
	syncerrors "photosync/internal/errors"
)

// openCatalog opens the catalog database under an exclusive file
// lock. Only one writer may hold the catalog at a time; a second
// instance fails fast instead of hitting SQLite busy timeouts.
func openCatalog(path string) (*catalog.SQLiteStore, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogOpen, err).WithDetail("path", path)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, syncerrors.Wrap(syncerrors.ErrCodeCatalogLocked, err).WithDetail("path", path)
	}
	if !locked {
		return nil, nil, syncerrors.New(syncerrors.ErrCodeCatalogLocked,
			fmt.Sprintf("catalog %s is in use by another photosync instance", path), nil)
	}

	store, err := catalog.Open(path)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, err
	}

	cleanup := func() {
		_ = store.Close()
		_ = lock.Unlock()
	}
	return store, cleanup, nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"imgforge/internal/core/port"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Filesystem adapts an afero backend to the storage port of one tier.
// Writes go through a uniquely named temp file and a rename, so readers
// never observe partial content and concurrent duplicate writes stay
// harmless.
type Filesystem struct {
	fs afero.Fs
}

// New wraps an afero backend.
func New(fs afero.Fs) *Filesystem {
	return &Filesystem{fs: fs}
}

// NewLocal returns a tier rooted at the given directory on the host
// filesystem.
func NewLocal(root string) *Filesystem {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// NewMemory returns an in-memory tier, used in tests.
func NewMemory() *Filesystem {
	return New(afero.NewMemMapFs())
}

// Exists reports whether a file exists at path.
func (f *Filesystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return afero.Exists(f.fs, path)
}

// ReadStream opens the file at path for reading.
func (f *Filesystem) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fs.Open(path)
}

// Write stores data at path, creating parent directories as needed.
// Replacing an existing file is not an error.
func (f *Filesystem) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %q failed: %w", dir, err)
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.%s.tmp", path, id.String())

	if err := afero.WriteFile(f.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %q failed: %w", tmp, err)
	}

	if err := f.fs.Rename(tmp, path); err != nil {
		// A concurrent writer may have placed the target first; the
		// write contract treats that as success.
		if exists, _ := afero.Exists(f.fs, path); exists {
			if rmErr := f.fs.Remove(tmp); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", tmp).Msg("could not clean up temp file")
			}
			return nil
		}
		return fmt.Errorf("renaming %q failed: %w", tmp, err)
	}

	return nil
}

// Delete removes the file at path. A missing file is not an error.
func (f *Filesystem) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := f.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListContents lists the entries under path, recursing when deep is
// set. A missing directory yields an empty listing.
func (f *Filesystem) ListContents(ctx context.Context, path string, deep bool) ([]port.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		path = "."
	}

	exists, err := afero.DirExists(f.fs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	var entries []port.Entry

	if deep {
		err = afero.Walk(f.fs, path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if p == path {
				return nil
			}
			entries = append(entries, port.Entry{Path: filepath.ToSlash(p), IsDir: info.IsDir()})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return entries, nil
	}

	infos, err := afero.ReadDir(f.fs, path)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		entries = append(entries, port.Entry{
			Path:  filepath.ToSlash(filepath.Join(path, info.Name())),
			IsDir: info.IsDir(),
		})
	}
	return entries, nil
}

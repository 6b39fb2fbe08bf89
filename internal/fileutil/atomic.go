// Package fileutil holds filesystem helpers shared by the language stores.
package fileutil

import (
	"errors"
	"io/fs"
	"path/filepath"

	lerrors "contao-l10n-sync/internal/errors"

	"github.com/spf13/afero"
)

// WriteAtomic writes data to a temporary file next to path and renames it
// into place. Readers see either the old or the new content.
func WriteAtomic(fsys afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return lerrors.NewIO("create directory", dir, err)
	}

	tmp, err := afero.TempFile(fsys, dir, ".ctb-*"+filepath.Ext(path))
	if err != nil {
		return lerrors.NewIO("create", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fsys.Remove(tmpName)
		return lerrors.NewIO("write", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		fsys.Remove(tmpName)
		return lerrors.NewIO("close", tmpName, err)
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		fsys.Remove(tmpName)
		return lerrors.NewIO("rename", path, err)
	}
	return nil
}

// RemoveIfExists deletes path. A missing file is not an error.
func RemoveIfExists(fsys afero.Fs, path string) error {
	if err := fsys.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return lerrors.NewIO("remove", path, err)
	}
	return nil
}

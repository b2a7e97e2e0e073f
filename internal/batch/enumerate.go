package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	imgio "github.com/x956606865/reiChan-sub000/internal/io"
)

// CacheDirName is skipped when walking input directories.
const CacheDirName = ".rei_cache"

// CollectImages walks root and returns the supported images below it in
// lexicographic order. Symlinks are not followed and cache directories
// below root are not entered.
func CollectImages(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{Kind: ErrDirectoryNotFound, Path: root}
		}
		return nil, &Error{Kind: ErrDirectoryNotFound, Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Kind: ErrDirectoryNotFound, Path: root}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name() == CacheDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.Type().IsRegular() {
			return nil
		}
		if imgio.IsSupportedImage(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &Error{Kind: ErrEmptyDirectory, Path: root}
	}
	sort.Strings(files)
	return files, nil
}

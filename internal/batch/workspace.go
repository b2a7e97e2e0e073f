package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionDir returns the session workspace path for a run started at now.
func SessionDir(root string, now time.Time) string {
	return filepath.Join(root, CacheDirName, "doublepage", fmt.Sprintf("session-%s", now.Format("20060102-150405")))
}

// prepareWorkspace creates dir. An existing dir is removed first when
// overwrite is set and reused otherwise.
func prepareWorkspace(dir string, overwrite bool) (reused bool, err error) {
	if _, statErr := os.Stat(dir); statErr == nil {
		if !overwrite {
			return true, nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return false, &Error{Kind: ErrWorkspace, Path: dir, Err: err}
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, &Error{Kind: ErrWorkspace, Path: dir, Err: err}
	}
	return false, nil
}

// outputPath maps a source file into the workspace, keeping its path
// relative to the input root so same-named pages in sibling folders do not
// collide.
func outputPath(workspace, root, source, suffix string) string {
	rel, err := filepath.Rel(root, source)
	if err != nil {
		rel = filepath.Base(source)
	}
	ext := filepath.Ext(rel)
	stem := rel[:len(rel)-len(ext)]
	return filepath.Join(workspace, stem+suffix+ext)
}

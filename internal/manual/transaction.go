package manual

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/natefinch/atomic"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	imgio "github.com/x956606865/reiChan-sub000/internal/io"
)

// transaction records everything one apply touches so it can be undone.
type transaction struct {
	l      layout
	logger logrus.FieldLogger
	loader *imgio.ImageLoader
	dir    string

	created   []string
	originals []OriginalRecord
	tracked   map[string]bool
	backups   map[string]bool

	overridesBackup    string
	splitReportBackup  string
	manualReportBackup string
}

// begin creates the backup directory and copies the three workspace
// documents into it. keep names a backup directory that must survive.
func begin(l layout, ts, keep string, loader *imgio.ImageLoader, logger logrus.FieldLogger) (*transaction, error) {
	dir := l.backupDir(ts)
	for n := 1; keep != "" && dir == keep; n++ {
		dir = l.backupDir(ts + "-" + strconv.Itoa(n))
	}
	if exists(dir) {
		if err := os.RemoveAll(dir); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "outputs"), 0o755); err != nil {
		return nil, err
	}

	tx := &transaction{
		l:       l,
		logger:  logger,
		loader:  loader,
		dir:     dir,
		tracked: make(map[string]bool),
		backups: make(map[string]bool),
	}

	var err error
	if tx.splitReportBackup, err = tx.backupDocument(l.splitReport()); err != nil {
		tx.discard()
		return nil, err
	}
	if exists(l.overrides()) {
		if tx.overridesBackup, err = tx.backupDocument(l.overrides()); err != nil {
			tx.discard()
			return nil, err
		}
	}
	if exists(l.manualReport()) {
		if tx.manualReportBackup, err = tx.backupDocument(l.manualReport()); err != nil {
			tx.discard()
			return nil, err
		}
	}
	return tx, nil
}

func (tx *transaction) backupDocument(path string) (string, error) {
	dst := filepath.Join(tx.dir, filepath.Base(path))
	if err := imgio.CopyFile(path, dst); err != nil {
		return "", fmt.Errorf("backup %s: %w", filepath.Base(path), err)
	}
	return dst, nil
}

// track must be called before path is written. A file that already exists
// is copied into the backup directory; a new one is recorded as created.
func (tx *transaction) track(path string) error {
	if tx.tracked[path] {
		return nil
	}
	tx.tracked[path] = true
	if !exists(path) {
		tx.created = append(tx.created, path)
		return nil
	}
	name := filepath.Base(path)
	backup := filepath.Join(tx.dir, "outputs", name)
	for n := 1; tx.backups[backup]; n++ {
		backup = filepath.Join(tx.dir, "outputs", name+"."+strconv.Itoa(n))
	}
	if err := imgio.CopyFile(path, backup); err != nil {
		return fmt.Errorf("backup %s: %w", name, err)
	}
	tx.backups[backup] = true
	tx.originals = append(tx.originals, OriginalRecord{Path: path, Backup: backup})
	return nil
}

func (tx *transaction) save(mat gocv.Mat, path string) error {
	if err := tx.track(path); err != nil {
		return err
	}
	return tx.loader.SaveImage(mat, path)
}

func (tx *transaction) copy(src, dst string) error {
	if err := tx.track(dst); err != nil {
		return err
	}
	return imgio.CopyFile(src, dst)
}

// dropCreatedSince deletes files created after the first n, newest first.
func (tx *transaction) dropCreatedSince(n int) {
	for i := len(tx.created) - 1; i >= n; i-- {
		if err := os.Remove(tx.created[i]); err != nil && !os.IsNotExist(err) {
			tx.logger.WithError(err).WithField("path", tx.created[i]).Warn("Failed to remove output during rollback")
		}
		delete(tx.tracked, tx.created[i])
	}
	tx.created = tx.created[:n]
}

// rollback puts the workspace back the way begin found it.
func (tx *transaction) rollback() {
	tx.logger.WithField("backup_dir", tx.dir).Warn("Rolling back manual apply")
	tx.dropCreatedSince(0)

	for _, rec := range tx.originals {
		if err := restoreFile(rec.Backup, rec.Path); err != nil {
			tx.logger.WithError(err).WithField("path", rec.Path).Error("Failed to restore output")
		}
	}
	tx.restoreOrRemove(tx.overridesBackup, tx.l.overrides())
	tx.restoreOrRemove(tx.splitReportBackup, tx.l.splitReport())
	tx.restoreOrRemove(tx.manualReportBackup, tx.l.manualReport())
	tx.discard()
}

func (tx *transaction) restoreOrRemove(backup, path string) {
	var err error
	if backup != "" {
		err = restoreFile(backup, path)
	} else if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		err = rmErr
	}
	if err != nil {
		tx.logger.WithError(err).WithField("path", path).Error("Failed to restore workspace document")
	}
}

// discard removes the backup directory.
func (tx *transaction) discard() {
	if err := os.RemoveAll(tx.dir); err != nil {
		tx.logger.WithError(err).WithField("backup_dir", tx.dir).Warn("Failed to remove backup directory")
	}
}

func (tx *transaction) manifest(workspace, timestamp string) *Manifest {
	m := &Manifest{
		Workspace:               workspace,
		Timestamp:               timestamp,
		BackupDir:               tx.dir,
		CreatedPaths:            append([]string{}, tx.created...),
		OriginalRecords:         append([]OriginalRecord{}, tx.originals...),
		OverridesBackup:         tx.overridesBackup,
		SplitReportBackup:       tx.splitReportBackup,
		ManualSplitReportBackup: tx.manualReportBackup,
	}
	return m
}

// restoreFile replaces path with the bytes of backup in one step.
func restoreFile(backup, path string) error {
	f, err := os.Open(backup)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, f)
}

package manual

import "errors"

var (
	ErrNoOverrides         = errors.New("no overrides provided")
	ErrSplitReportMissing  = errors.New("split-report.json not found in workspace")
	ErrSourceMissing       = errors.New("source image not found")
	ErrManifestMissing     = errors.New("no revert history for workspace")
	ErrWorkspaceMismatch   = errors.New("revert manifest belongs to another workspace")
	ErrBackupMissing       = errors.New("backup file missing")
	ErrWorkspaceNotCreated = errors.New("workspace could not be created")
	ErrWorkspaceUnreadable = errors.New("existing workspace could not be loaded")
	ErrWorkspaceUnsafe     = errors.New("refusing to use folder as workspace")
)

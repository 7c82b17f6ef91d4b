// Package archive relocates produced snapshots into dated backup
// directories.
package archive

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cloudsight/skysnap/internal/snapshot"
)

// Mirror uploads archived snapshots to a remote blob store.
type Mirror interface {
	Save(ctx context.Context, objectName string, data []byte) error
}

// Archiver moves every file in the output directory into
// <backupBase>/<UTC-date>/. Archiving is best effort: directory creation and
// per-file move failures are logged and never raised, and nothing is retried
// within a run.
type Archiver struct {
	outputDir  string
	backupBase string
	clock      snapshot.Clock
	mirror     Mirror
	logger     *zap.Logger
}

// New returns an Archiver. mirror may be nil to disable remote mirroring.
func New(outputDir, backupBase string, clock snapshot.Clock, mirror Mirror, logger *zap.Logger) *Archiver {
	return &Archiver{
		outputDir:  outputDir,
		backupBase: backupBase,
		clock:      clock,
		mirror:     mirror,
		logger:     logger,
	}
}

// Archive moves all regular files currently in the output directory into the
// dated backup directory, creating it if absent, and returns how many files
// were moved.
func (a *Archiver) Archive(ctx context.Context) int {
	date := a.clock.Now().UTC().Format("2006-01-02")
	dest := filepath.Join(a.backupBase, date)

	if err := os.MkdirAll(dest, 0o750); err != nil {
		a.logger.Warn("Cannot create archive directory", zap.String("dir", dest), zap.Error(err))
		return 0
	}

	entries, err := os.ReadDir(a.outputDir)
	if err != nil {
		a.logger.Warn("Cannot list output directory", zap.String("dir", a.outputDir), zap.Error(err))
		return 0
	}

	moved := 0
	for _, entry := range entries {
		// The archive base may live inside the output directory; skip it
		// and anything else that is not a plain file.
		if !entry.Type().IsRegular() {
			continue
		}
		src := filepath.Join(a.outputDir, entry.Name())
		dst := filepath.Join(dest, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			a.logger.Warn("Cannot move file to archive",
				zap.String("file", src),
				zap.String("dest", dst),
				zap.Error(err))
			continue
		}
		moved++
		a.logger.Info("Archived snapshot", zap.String("file", entry.Name()), zap.String("dest", dest))
		a.mirrorFile(ctx, date, entry.Name(), dst)
	}
	return moved
}

func (a *Archiver) mirrorFile(ctx context.Context, date, name, path string) {
	if a.mirror == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Warn("Cannot read archived file for mirroring", zap.String("file", path), zap.Error(err))
		return
	}
	object := date + "/" + name
	if err := a.mirror.Save(ctx, object, data); err != nil {
		a.logger.Warn("Mirror upload failed", zap.String("object", object), zap.Error(err))
		return
	}
	a.logger.Debug("Mirrored snapshot", zap.String("object", object))
}

package snapshot

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Pipeline downloads, crops and saves images for scheduled sources. Every
// failure is contained: Collect never panics or returns a raised error, it
// folds the failure into the Outcome so the scheduler can continue with the
// next source. No partial or corrupt file is left at the target path on any
// failure path.
type Pipeline struct {
	fetcher   Fetcher
	outputDir string
	logger    *zap.Logger
}

// NewPipeline returns a Pipeline writing into outputDir, creating it if
// needed.
func NewPipeline(fetcher Fetcher, outputDir string, logger *zap.Logger) (*Pipeline, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", outputDir, err)
	}
	return &Pipeline{
		fetcher:   fetcher,
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// Collect runs the fetch-crop-save pipeline for src at the default target
// path: <outputDir>/<display form>.png.
func (p *Pipeline) Collect(ctx context.Context, src *ScheduledSource) Outcome {
	return p.CollectTo(ctx, src, filepath.Join(p.outputDir, src.DisplayForm()+".png"))
}

// CollectTo is Collect with an explicit target path.
func (p *Pipeline) CollectTo(ctx context.Context, src *ScheduledSource, path string) Outcome {
	start := time.Now()
	TotalAttempts.Inc()
	log := p.logger.With(zap.String("source", src.DisplayForm()), zap.String("path", path))

	outcome := func(err error) Outcome {
		return Outcome{
			Source:   src.DisplayForm(),
			Path:     path,
			Err:      err,
			Duration: time.Since(start),
		}
	}

	if err := RemoveFile(path); err != nil {
		log.Warn("Cannot clear target path", zap.Error(err))
		return outcome(err)
	}

	log.Info("Starting download", zap.String("url", src.URL))
	body, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		log.Warn("Download failed", zap.Error(err))
		TotalDownloadErrors.Inc()
		p.discard(path, log)
		return outcome(fmt.Errorf("%w: %s: %w", ErrDownload, src.URL, err))
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		log.Warn("Cannot write downloaded image", zap.Error(err))
		p.discard(path, log)
		return outcome(fmt.Errorf("%w: write %s: %w", ErrFilesystem, path, err))
	}
	log.Info("Download complete", zap.Int("bytes", len(body)))

	img, err := imaging.Open(path)
	if err != nil {
		log.Warn("Downloaded file is not a recognizable image", zap.Error(err))
		TotalImageErrors.Inc()
		p.discard(path, log)
		return outcome(fmt.Errorf("%w: decode %s: %w", ErrImage, path, err))
	}

	rect := image.Rect(src.Crop.Left, src.Crop.Top, src.Crop.Right, src.Crop.Bottom)
	log.Debug("Cropping image",
		zap.Stringer("source_bounds", img.Bounds()),
		zap.Stringer("crop", rect))
	cropped := imaging.Crop(img, rect)
	if cropped.Bounds().Empty() {
		log.Warn("Crop box does not intersect the image",
			zap.Stringer("source_bounds", img.Bounds()),
			zap.Stringer("crop", rect))
		TotalImageErrors.Inc()
		p.discard(path, log)
		return outcome(fmt.Errorf("%w: crop box %s outside image bounds %s", ErrImage, src.Crop, img.Bounds()))
	}
	if err := imaging.Save(cropped, path); err != nil {
		log.Warn("Cannot save cropped image", zap.Error(err))
		TotalImageErrors.Inc()
		p.discard(path, log)
		return outcome(fmt.Errorf("%w: save %s: %w", ErrImage, path, err))
	}

	TotalSnapshots.Inc()
	log.Info("Snapshot saved",
		zap.Int("width", cropped.Bounds().Dx()),
		zap.Int("height", cropped.Bounds().Dy()))
	return outcome(nil)
}

// discard removes whatever was written at path after a failure. Best effort;
// RemoveFile already tolerates an absent file.
func (p *Pipeline) discard(path string, log *zap.Logger) {
	if err := RemoveFile(path); err != nil {
		log.Warn("Cannot remove partial file", zap.Error(err))
	}
}

// RemoveFile deletes the file at path. Removal is idempotent: an absent file
// is a success, failure is reported only when an existing path cannot be
// removed (a directory, permission denied).
func RemoveFile(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("%w: remove %s: %w", ErrFilesystem, path, err)
}

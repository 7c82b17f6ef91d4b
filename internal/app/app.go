// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cloudsight/skysnap/internal/archive"
	"github.com/cloudsight/skysnap/internal/config"
	"github.com/cloudsight/skysnap/internal/publisher/pubsub"
	"github.com/cloudsight/skysnap/internal/snapshot"
	"github.com/cloudsight/skysnap/internal/storage/gcs"
)

// App holds the shared services for one process: the logger plus the optional
// archive mirror and event publisher. It is built once at startup and closed
// by a Cobra hook after the command finishes.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	gcsMirror *gcs.Mirror
	psClient  *pubsub.Publisher
}

// New creates the App from configuration, failing fast if any configured
// provider cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	switch cfg.Storage.Provider {
	case "gcs":
		logger.Info("Using GCS archive mirror", zap.String("bucket", cfg.Storage.GCSBucket))
		mirror, err := gcs.New(ctx, cfg.Storage.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("initialize storage: %w", err)
		}
		a.gcsMirror = mirror
	case "noop":
		logger.Info("Archive mirroring disabled")
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}

	switch cfg.Publisher.Provider {
	case "pubsub":
		logger.Info("Using Pub/Sub event publisher",
			zap.String("project", cfg.Publisher.ProjectID),
			zap.String("topic", cfg.Publisher.TopicName))
		pub, err := pubsub.New(ctx, cfg.Publisher.ProjectID, cfg.Publisher.TopicName)
		if err != nil {
			if a.gcsMirror != nil {
				_ = a.gcsMirror.Close()
			}
			return nil, fmt.Errorf("initialize publisher: %w", err)
		}
		a.psClient = pub
	case "noop":
		logger.Info("Event publishing disabled")
	default:
		return nil, fmt.Errorf("unknown publisher provider: %s", cfg.Publisher.Provider)
	}

	return a, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Mirror returns the archive mirror, or nil when mirroring is disabled.
func (a *App) Mirror() archive.Mirror {
	if a.gcsMirror == nil {
		return nil
	}
	return a.gcsMirror
}

// Publisher returns the event publisher, or nil when publishing is disabled.
func (a *App) Publisher() snapshot.Publisher {
	if a.psClient == nil {
		return nil
	}
	return a.psClient
}

// Close gracefully shuts down all services in the container.
func (a *App) Close() {
	if a.psClient != nil {
		if err := a.psClient.Close(); err != nil {
			a.logger.Warn("Error closing publisher", zap.Error(err))
		}
	}
	if a.gcsMirror != nil {
		if err := a.gcsMirror.Close(); err != nil {
			a.logger.Warn("Error closing archive mirror", zap.Error(err))
		}
	}
	// Flush buffered log lines before exit; best effort.
	_ = a.logger.Sync()
}

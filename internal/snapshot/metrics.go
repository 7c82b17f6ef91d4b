package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalAttempts tracks the number of collection attempts.
	TotalAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skysnap_collect_attempts_total",
		Help: "The total number of source collection attempts.",
	})
	// TotalSnapshots tracks the number of cropped images successfully saved.
	TotalSnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skysnap_snapshots_total",
		Help: "The total number of cropped snapshots saved.",
	})
	// TotalDownloadErrors tracks failed downloads (transport, HTTP status, truncation).
	TotalDownloadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skysnap_download_errors_total",
		Help: "The total number of failed image downloads.",
	})
	// TotalImageErrors tracks decode, crop and encode failures.
	TotalImageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skysnap_image_errors_total",
		Help: "The total number of image decode/crop/encode failures.",
	})
)

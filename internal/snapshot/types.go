// Package snapshot defines the core types and the fetch-crop pipeline for
// scheduled webcam sources.
package snapshot

import (
	"context"
	"fmt"
	"time"
)

// CropBox is the rectangular region kept from a downloaded image, in source
// pixel coordinates. Right and Bottom are exclusive.
type CropBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the horizontal extent of the box.
func (b CropBox) Width() int {
	return b.Right - b.Left
}

// Height returns the vertical extent of the box.
func (b CropBox) Height() int {
	return b.Bottom - b.Top
}

// Validate rejects inverted or negative boxes.
func (b CropBox) Validate() error {
	if b.Left < 0 || b.Top < 0 {
		return fmt.Errorf("crop box origin (%d,%d) must be non-negative", b.Left, b.Top)
	}
	if b.Right <= b.Left || b.Bottom <= b.Top {
		return fmt.Errorf("crop box (%d,%d,%d,%d) must have positive width and height",
			b.Left, b.Top, b.Right, b.Bottom)
	}
	return nil
}

func (b CropBox) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.Left, b.Top, b.Right, b.Bottom)
}

// SourceDefinition is one webcam endpoint as loaded from configuration.
// Definitions are immutable for the lifetime of a run.
type SourceDefinition struct {
	Name  string
	URL   string
	Crop  CropBox
	Times []string
}

// ScheduledSource is one (definition, trigger time) pair. Target is the next
// UTC instant at which the trigger time occurs, computed against a reference
// now by ComputeTarget.
type ScheduledSource struct {
	Name   string
	URL    string
	Crop   CropBox
	Hour   int
	Minute int
	Target time.Time
}

// Outcome is the result of one pipeline run for one scheduled source.
// A nil Err means the cropped file at Path was durably written.
type Outcome struct {
	Source   string
	Path     string
	Err      error
	Duration time.Duration
}

// OK reports whether the collection succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Event is published after each collection attempt when a publisher is
// configured.
type Event struct {
	RunID  string    `json:"run_id"`
	Source string    `json:"source"`
	Target time.Time `json:"target"`
	Path   string    `json:"path,omitempty"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Fetcher downloads the resource at a URL and returns its body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Publisher pushes collection events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

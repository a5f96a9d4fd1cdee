// Package events defines the notifications published after trip imports.
package events

import (
	"time"

	"github.com/corner-25/test-umc-sub000/core/model"
)

// IngestEvent is published once per pipeline run. Err is set when the run
// failed; Batch and Trips are then empty.
type IngestEvent struct {
	Source string
	Batch  model.Batch
	Trips  []model.Trip
	Took   time.Duration
	Err    error
}

// OK reports whether the run stored a batch.
func (e IngestEvent) OK() bool { return e.Err == nil }

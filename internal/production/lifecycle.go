// Package production runs batches through their lifecycle and exposes the
// engine's operations to the HTTP and CLI surfaces.
package production

import (
	"strings"

	"bakeline/internal/apperrors"
	"bakeline/models"
)

// Event is a lifecycle trigger applied to a batch.
type Event string

const (
	EventStart    Event = "start"
	EventPause    Event = "pause"
	EventResume   Event = "resume"
	EventComplete Event = "complete"
	EventCancel   Event = "cancel"
)

// Audit descriptions written for each lifecycle step.
const (
	DescriptionCreated   = "created"
	DescriptionStarted   = "started"
	DescriptionPaused    = "paused"
	DescriptionResumed   = "resumed"
	DescriptionCompleted = "completed"
	DescriptionCancelled = "cancelled"
)

var transitions = map[models.ProcessStatus]map[Event]models.ProcessStatus{
	models.StatusPending: {
		EventStart:  models.StatusInProgress,
		EventCancel: models.StatusCancelled,
	},
	models.StatusInProgress: {
		EventPause:    models.StatusPaused,
		EventComplete: models.StatusCompleted,
		EventCancel:   models.StatusCancelled,
	},
	models.StatusPaused: {
		EventResume: models.StatusInProgress,
		EventCancel: models.StatusCancelled,
	},
}

var descriptions = map[Event]string{
	EventStart:    DescriptionStarted,
	EventPause:    DescriptionPaused,
	EventResume:   DescriptionResumed,
	EventComplete: DescriptionCompleted,
	EventCancel:   DescriptionCancelled,
}

// Events lists every lifecycle event.
func Events() []Event {
	return []Event{EventStart, EventPause, EventResume, EventComplete, EventCancel}
}

// ParseEvent accepts an event name, case-insensitive.
func ParseEvent(value string) (Event, bool) {
	ev := Event(strings.ToLower(strings.TrimSpace(value)))
	_, ok := descriptions[ev]
	return ev, ok
}

// Next returns the status reached by applying ev in status from.
func Next(from models.ProcessStatus, ev Event) (models.ProcessStatus, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, &apperrors.InvalidTransitionError{From: string(from), Event: string(ev)}
	}
	return to, nil
}

// Description is the audit text recorded for ev.
func (ev Event) Description() string {
	return descriptions[ev]
}

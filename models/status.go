package models

import "strings"

// ProcessStatus is the stored lifecycle state of a batch. Stored values are
// always the English identifiers below; translations live in internal/i18n.
type ProcessStatus string

const (
	StatusPending    ProcessStatus = "pending"
	StatusInProgress ProcessStatus = "in_progress"
	StatusPaused     ProcessStatus = "paused"
	StatusCompleted  ProcessStatus = "completed"
	StatusCancelled  ProcessStatus = "cancelled"
)

// Terminal reports whether no transition can leave the status.
func (s ProcessStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the known statuses.
func (s ProcessStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPaused, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ActiveStatuses are the non-terminal statuses.
func ActiveStatuses() []ProcessStatus {
	return []ProcessStatus{StatusPending, StatusInProgress, StatusPaused}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NormalizePriority maps an input value onto a known priority, defaulting to
// normal when blank. The boolean is false for unrecognised values.
func NormalizePriority(value string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return PriorityNormal, true
	case PriorityLow:
		return PriorityLow, true
	case PriorityNormal:
		return PriorityNormal, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityUrgent:
		return PriorityUrgent, true
	}
	return "", false
}

type ProcessIngredientStatus string

const (
	IngredientPending   ProcessIngredientStatus = "pending"
	IngredientCompleted ProcessIngredientStatus = "completed"
)

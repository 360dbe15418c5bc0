// Package i18n renders stored status and priority identifiers for display
// and parses display labels back. Logic never branches on a label.
package i18n

import (
	"strings"

	"golang.org/x/text/language"

	"bakeline/models"
)

// Supported lists the display languages; the first is the fallback.
var Supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(Supported)

var statusLabels = map[language.Tag]map[models.ProcessStatus]string{
	language.Spanish: {
		models.StatusPending:    "Pendiente",
		models.StatusInProgress: "En Proceso",
		models.StatusPaused:     "Pausado",
		models.StatusCompleted:  "Completado",
		models.StatusCancelled:  "Cancelado",
	},
	language.English: {
		models.StatusPending:    "Pending",
		models.StatusInProgress: "In progress",
		models.StatusPaused:     "Paused",
		models.StatusCompleted:  "Completed",
		models.StatusCancelled:  "Cancelled",
	},
}

var priorityLabels = map[language.Tag]map[models.Priority]string{
	language.Spanish: {
		models.PriorityLow:    "Baja",
		models.PriorityNormal: "Normal",
		models.PriorityHigh:   "Alta",
		models.PriorityUrgent: "Urgente",
	},
	language.English: {
		models.PriorityLow:    "Low",
		models.PriorityNormal: "Normal",
		models.PriorityHigh:   "High",
		models.PriorityUrgent: "Urgent",
	},
}

// Older screens wrote this variant.
var statusAliases = map[string]models.ProcessStatus{
	"en progreso": models.StatusInProgress,
}

// Match picks the supported language closest to an Accept-Language header.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, index, _ := matcher.Match(tags...)
	return Supported[index]
}

// StatusLabel returns the display label of status, or the identifier itself
// when unknown.
func StatusLabel(tag language.Tag, status models.ProcessStatus) string {
	if label, ok := labelsFor(statusLabels, tag)[status]; ok {
		return label
	}
	return string(status)
}

func PriorityLabel(tag language.Tag, priority models.Priority) string {
	if label, ok := labelsFor(priorityLabels, tag)[priority]; ok {
		return label
	}
	return string(priority)
}

// ParseStatus accepts a stored identifier or a label in any supported
// language, case-insensitive.
func ParseStatus(value string) (models.ProcessStatus, bool) {
	key := fold(value)
	if status := models.ProcessStatus(key); status.Valid() {
		return status, true
	}
	if status, ok := statusAliases[key]; ok {
		return status, true
	}
	for _, labels := range statusLabels {
		for status, label := range labels {
			if fold(label) == key {
				return status, true
			}
		}
	}
	return "", false
}

// ParsePriority accepts a stored identifier or a label in any supported
// language. Blank means normal.
func ParsePriority(value string) (models.Priority, bool) {
	if priority, ok := models.NormalizePriority(value); ok {
		return priority, true
	}
	key := fold(value)
	for _, labels := range priorityLabels {
		for priority, label := range labels {
			if fold(label) == key {
				return priority, true
			}
		}
	}
	return "", false
}

func labelsFor[K comparable](table map[language.Tag]map[K]string, tag language.Tag) map[K]string {
	base, _ := tag.Base()
	for candidate, labels := range table {
		if cb, _ := candidate.Base(); cb == base {
			return labels
		}
	}
	return table[Supported[0]]
}

func fold(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

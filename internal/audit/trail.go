// Package audit stores the append-only history of a batch: lifecycle events
// and quality checks.
package audit

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	applog "bakeline/internal/log"
	"bakeline/models"
)

// Quality check outcomes recorded by the floor.
const (
	CheckOK      = "ok"
	CheckWarning = "warning"
	CheckFailed  = "failed"
)

type Trail struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTrail(db *gorm.DB) *Trail {
	return &Trail{db: db, now: time.Now}
}

// WithTx returns a Trail that writes inside tx.
func (t *Trail) WithTx(tx *gorm.DB) *Trail {
	return &Trail{db: tx, now: t.now}
}

// AppendEvent records one event against a process. A zero time means now.
func (t *Trail) AppendEvent(ctx context.Context, processID uint, at time.Time, description, status string) (models.ProcessEvent, error) {
	if at.IsZero() {
		at = t.now()
	}
	event := models.ProcessEvent{
		ProcessID:   processID,
		EventTime:   at.UTC(),
		Description: description,
		Status:      status,
	}
	if err := t.db.WithContext(ctx).Create(&event).Error; err != nil {
		return models.ProcessEvent{}, apperrors.Persistence("append process event", err)
	}
	applog.Debug(ctx, "process event recorded", "process_id", processID, "description", description, "status", status)
	return event, nil
}

// AppendQualityCheck records a measurement taken now.
func (t *Trail) AppendQualityCheck(ctx context.Context, processID uint, parameter, value, unit, status string) (models.QualityCheck, error) {
	parameter = strings.TrimSpace(parameter)
	if parameter == "" {
		return models.QualityCheck{}, &apperrors.InvalidQuantityError{Field: "parameter", Value: parameter, Reason: "is required"}
	}
	if strings.TrimSpace(status) == "" {
		status = CheckOK
	}

	check := models.QualityCheck{
		ProcessID: processID,
		Parameter: parameter,
		Value:     value,
		Unit:      unit,
		Status:    status,
		CheckTime: t.now().UTC(),
	}
	if err := t.db.WithContext(ctx).Create(&check).Error; err != nil {
		return models.QualityCheck{}, apperrors.Persistence("append quality check", err)
	}
	return check, nil
}

// ListEvents returns a process's events, most recent first.
func (t *Trail) ListEvents(ctx context.Context, processID uint) ([]models.ProcessEvent, error) {
	var events []models.ProcessEvent
	err := t.db.WithContext(ctx).
		Where("process_id = ?", processID).
		Order("event_time DESC").Order("id DESC").
		Find(&events).Error
	if err != nil {
		return nil, apperrors.Persistence("list process events", err)
	}
	return events, nil
}

// ListQualityChecks returns a process's checks, most recent first.
func (t *Trail) ListQualityChecks(ctx context.Context, processID uint) ([]models.QualityCheck, error) {
	var checks []models.QualityCheck
	err := t.db.WithContext(ctx).
		Where("process_id = ?", processID).
		Order("check_time DESC").Order("id DESC").
		Find(&checks).Error
	if err != nil {
		return nil, apperrors.Persistence("list quality checks", err)
	}
	return checks, nil
}

// DeleteEvent removes one event from a batch's trail. Administrative cleanup
// only; lifecycle code never calls it.
func (t *Trail) DeleteEvent(ctx context.Context, processID, id uint) error {
	result := t.db.WithContext(ctx).
		Where("id = ? AND process_id = ?", id, processID).
		Delete(&models.ProcessEvent{})
	if result.Error != nil {
		return apperrors.Persistence("delete process event", result.Error)
	}
	if result.RowsAffected == 0 {
		return &apperrors.NotFoundError{Entity: "process event", ID: id}
	}
	applog.Info(ctx, "process event deleted", "process_id", processID, "event_id", id)
	return nil
}

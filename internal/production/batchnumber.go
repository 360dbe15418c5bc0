package production

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"bakeline/internal/apperrors"
	"bakeline/models"
)

const maxBatchSuffix = 100

// batchNumber formats PREFIX-YYYYMMDD-HHMMSS.
func batchNumber(prefix string, at time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "BATCH"
	}
	return fmt.Sprintf("%s-%s", prefix, at.Format("20060102-150405"))
}

// reserveBatchNumber returns requested when it is free, or a generated
// number with a -N suffix appended until one is free.
func reserveBatchNumber(tx *gorm.DB, requested, prefix string, at time.Time) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested != "" {
		taken, err := batchNumberTaken(tx, requested)
		if err != nil {
			return "", err
		}
		if taken {
			return "", &apperrors.ConflictError{Entity: "batch", Key: requested}
		}
		return requested, nil
	}

	base := batchNumber(prefix, at)
	candidate := base
	for n := 2; n <= maxBatchSuffix; n++ {
		taken, err := batchNumberTaken(tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return "", &apperrors.ConflictError{Entity: "batch", Key: base}
}

func batchNumberTaken(tx *gorm.DB, number string) (bool, error) {
	var existing models.ProductionProcess
	err := tx.Select("id").Where("batch_number = ?", number).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Persistence("check batch number", err)
	}
	return true, nil
}

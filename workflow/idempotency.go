package workflow

import (
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/models"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// BeginIdempotency inserts IN_PROGRESS for the request key. On a duplicate:
// a SUCCEEDED row is returned for replay, a fresh IN_PROGRESS row asks the
// caller to retry later, and a stale or FAILED row is reclaimed.
func BeginIdempotency(tx *gorm.DB, warehouseId, operation, key string) (replay *models.IdempotencyKey, err error) {
	row := models.IdempotencyKey{
		ID:          uuid.NewString(),
		WarehouseId: warehouseId,
		Key:         key,
		Operation:   operation,
		Status:      models.IdempotencyStatusInProgress,
	}
	if err := tx.Create(&row).Error; err == nil {
		return nil, nil
	} else if !isDuplicateKeyErr(err) {
		return nil, err
	}

	var existing models.IdempotencyKey
	if err := tx.Where("warehouse_id = ? AND `key` = ?", warehouseId, key).
		First(&existing).Error; err != nil {
		return nil, err
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return &existing, nil
	case models.IdempotencyStatusInProgress:
		// Another request holds the key. If it is stale, reclaim the row.
		if time.Since(existing.UpdatedAt) < 5*time.Minute {
			return nil, ErrIdempotencyInProgress
		}
		return nil, tx.Model(&models.IdempotencyKey{}).
			Where("id = ?", existing.ID).
			Update("status", models.IdempotencyStatusInProgress).Error
	default:
		return nil, tx.Model(&models.IdempotencyKey{}).
			Where("id = ?", existing.ID).
			Update("status", models.IdempotencyStatusInProgress).Error
	}
}

// MarkIdempotencySucceeded records the response to replay on retries.
func MarkIdempotencySucceeded(tx *gorm.DB, warehouseId, key string, statusCode int, responseBody []byte) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("warehouse_id = ? AND `key` = ?", warehouseId, key).
		Updates(map[string]interface{}{
			"status":        models.IdempotencyStatusSucceeded,
			"status_code":   statusCode,
			"response_body": responseBody,
		}).Error
}

func MarkIdempotencyFailed(tx *gorm.DB, warehouseId, key string) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("warehouse_id = ? AND `key` = ?", warehouseId, key).
		Update("status", models.IdempotencyStatusFailed).Error
}

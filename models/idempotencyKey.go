package models

import (
	"time"
)

// IdempotencyStatus reflects whether the original request is still running,
// finished, or failed (in which case a retry may run again).
type IdempotencyStatus string

const (
	IdempotencyStatusInProgress IdempotencyStatus = "IN_PROGRESS"
	IdempotencyStatusSucceeded  IdempotencyStatus = "SUCCEEDED"
	IdempotencyStatusFailed     IdempotencyStatus = "FAILED"
)

// IdempotencyKey dedupes retried mutations. The unique index on
// (warehouse_id, key) makes the second insert fail with a duplicate error,
// which the workflow layer translates into a replay of the stored response.
type IdempotencyKey struct {
	ID          string            `gorm:"size:36;primary_key" json:"id"`
	WarehouseId string            `gorm:"size:36;index:idx_idem_wh_key,priority:1,unique;not null" json:"warehouse_id"`
	Key         string            `gorm:"size:255;index:idx_idem_wh_key,priority:2,unique;not null" json:"key"`
	Operation   string            `gorm:"size:100;not null" json:"operation"`
	Status      IdempotencyStatus `gorm:"type:enum('IN_PROGRESS','SUCCEEDED','FAILED');not null;default:IN_PROGRESS" json:"status"`
	// ResponseBody is the serialized success payload replayed to retries.
	ResponseBody []byte    `gorm:"type:mediumblob" json:"-"`
	StatusCode   int       `json:"status_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentSequence hands out gapless per-warehouse document numbers under a
// row lock, so concurrent creates never collide.
type DocumentSequence struct {
	WarehouseId string    `gorm:"size:36;primaryKey" json:"warehouse_id"`
	DocType     string    `gorm:"size:20;primaryKey" json:"doc_type"`
	NextValue   int64     `gorm:"not null;default:1" json:"next_value"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func nextSequence(tx *gorm.DB, warehouseId string, docType string) (int64, error) {
	seq := DocumentSequence{WarehouseId: warehouseId, DocType: docType, NextValue: 1}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND doc_type = ?", warehouseId, docType).
		FirstOrCreate(&seq).Error; err != nil {
		return 0, err
	}
	n := seq.NextValue
	if err := tx.Model(&DocumentSequence{}).
		Where("warehouse_id = ? AND doc_type = ?", warehouseId, docType).
		Update("next_value", gorm.Expr("next_value + 1")).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// NextPONumber formats PO-<year>-<seq>, e.g. PO-2026-000042.
func NextPONumber(tx *gorm.DB, warehouseId string) (string, error) {
	n, err := nextSequence(tx, warehouseId, "PO")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%d-%06d", time.Now().UTC().Year(), n), nil
}

// NextASNNumber formats ASN-<seq>, e.g. ASN-00000042.
func NextASNNumber(tx *gorm.DB, warehouseId string) (string, error) {
	n, err := nextSequence(tx, warehouseId, "ASN")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ASN-%08d", n), nil
}

// NextReceiptNumber formats RCV-<year>-<seq>, e.g. RCV-2026-000042.
func NextReceiptNumber(tx *gorm.DB, warehouseId string) (string, error) {
	n, err := nextSequence(tx, warehouseId, "RCV")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RCV-%d-%06d", time.Now().UTC().Year(), n), nil
}

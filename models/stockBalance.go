package models

import (
	"context"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockBalance is the materialized per-location quantity, maintained in the
// same transaction as every ledger entry. RebuildStockBalances re-derives it
// from the ledger when the two are suspected to disagree.
type StockBalance struct {
	ID          string          `gorm:"size:36;primary_key" json:"id"`
	WarehouseId string          `gorm:"size:36;index:idx_stock_unique,priority:1,unique;not null" json:"warehouse_id"`
	ProductId   string          `gorm:"size:36;index:idx_stock_unique,priority:2,unique;not null" json:"product_id"`
	LocationId  string          `gorm:"size:36;index:idx_stock_unique,priority:3,unique;not null" json:"location_id"`
	LotNumber   string          `gorm:"size:100;index:idx_stock_unique,priority:4,unique;not null;default:''" json:"lot_number"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity"`
}

// ApplyLedgerEntry posts the entry and folds its delta into the matching
// balance row under a row lock. Must run inside the caller's transaction,
// which already holds the warehouse posting lock.
func ApplyLedgerEntry(tx *gorm.DB, entry *InventoryLedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := tx.Create(entry).Error; err != nil {
		return err
	}

	balance := StockBalance{
		ID:          uuid.NewString(),
		WarehouseId: entry.WarehouseId,
		ProductId:   entry.ProductId,
		LocationId:  entry.LocationId,
		LotNumber:   entry.LotNumber,
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND product_id = ? AND location_id = ? AND lot_number = ?",
			entry.WarehouseId, entry.ProductId, entry.LocationId, entry.LotNumber).
		FirstOrCreate(&balance).Error; err != nil {
		return err
	}
	return tx.Model(&StockBalance{}).
		Where("id = ?", balance.ID).
		Update("quantity", gorm.Expr("quantity + ?", entry.Quantity)).Error
}

// LocationOccupancy sums all balances in a location. Capacity checks read
// this inside the posting transaction.
func LocationOccupancy(tx *gorm.DB, locationId string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&StockBalance{}).
		Select("SUM(quantity)").
		Where("location_id = ?", locationId).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

type StockFilter struct {
	WarehouseId *string
	ProductId   *string
	LocationId  *string
	LotNumber   *string
	// NonZero drops empty balance rows from the listing.
	NonZero bool
}

func ListStockBalances(ctx context.Context, filter StockFilter, params PageParams) (*Paginated[StockBalance], error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&StockBalance{})
	if filter.WarehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *filter.WarehouseId)
	}
	if filter.ProductId != nil {
		dbCtx = dbCtx.Where("product_id = ?", *filter.ProductId)
	}
	if filter.LocationId != nil {
		dbCtx = dbCtx.Where("location_id = ?", *filter.LocationId)
	}
	if filter.LotNumber != nil {
		dbCtx = dbCtx.Where("lot_number = ?", *filter.LotNumber)
	}
	if filter.NonZero {
		dbCtx = dbCtx.Where("quantity <> 0")
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, err
	}

	var results []*StockBalance
	if err := dbCtx.Order("warehouse_id, product_id, location_id").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return NewPaginated(results, params, total), nil
}

// RebuildStockBalances wipes the materialized rows and re-aggregates them
// from the ledger. Used by the inventory-rebuild command during maintenance
// windows; callers must hold the posting lock for every affected warehouse.
func RebuildStockBalances(ctx context.Context, warehouseId string) (int, error) {
	db := config.GetDB()
	rebuilt := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("warehouse_id = ?", warehouseId).Delete(&StockBalance{}).Error; err != nil {
			return err
		}
		type aggRow struct {
			ProductId  string
			LocationId string
			LotNumber  string
			Quantity   decimal.Decimal
		}
		var rows []aggRow
		if err := tx.Model(&InventoryLedgerEntry{}).
			Select("product_id, location_id, lot_number, SUM(quantity) AS quantity").
			Where("warehouse_id = ?", warehouseId).
			Group("product_id, location_id, lot_number").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			balance := StockBalance{
				ID:          uuid.NewString(),
				WarehouseId: warehouseId,
				ProductId:   row.ProductId,
				LocationId:  row.LocationId,
				LotNumber:   row.LotNumber,
				Quantity:    row.Quantity,
			}
			if err := tx.Create(&balance).Error; err != nil {
				return err
			}
			rebuilt++
		}
		return nil
	})
	return rebuilt, err
}

package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"github.com/shopspring/decimal"
)

// InventoryLedgerEntry is append-only. Corrections are posted as REVERSAL
// entries; rows are never updated or deleted.
type InventoryLedgerEntry struct {
	ID          string          `gorm:"size:36;primary_key" json:"id"`
	WarehouseId string          `gorm:"size:36;index:idx_ledger_wh_product,priority:1;not null" json:"warehouse_id"`
	ProductId   string          `gorm:"size:36;index:idx_ledger_wh_product,priority:2;not null" json:"product_id"`
	LocationId  string          `gorm:"size:36;index;not null" json:"location_id"`
	EntryType   LedgerEntryType `gorm:"type:enum('RECEIPT','PUTAWAY_OUT','PUTAWAY_IN','REVERSAL');not null" json:"entry_type"`
	// Quantity is signed: inbound entries positive, outbound negative.
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Uom           string          `gorm:"size:10;not null;default:EA" json:"uom"`
	LotNumber     string          `gorm:"size:100" json:"lot_number"`
	ReceiptId     *string         `gorm:"size:36;index" json:"receipt_id"`
	ReceiptLineId *string         `gorm:"size:36" json:"receipt_line_id"`
	// ReversesId links a REVERSAL back to the entry it undoes.
	ReversesId *string   `gorm:"size:36" json:"reverses_id"`
	Reference  string    `gorm:"size:100" json:"reference"`
	PostedBy   string    `gorm:"size:255" json:"posted_by"`
	PostedAt   time.Time `gorm:"autoCreateTime;index" json:"posted_at"`
}

type LedgerFilter struct {
	WarehouseId *string
	ProductId   *string
	LocationId  *string
	EntryType   *LedgerEntryType
	ReceiptId   *string
	From        *time.Time
	To          *time.Time
}

func ListLedgerEntries(ctx context.Context, filter LedgerFilter, params PageParams) (*Paginated[InventoryLedgerEntry], error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&InventoryLedgerEntry{})
	if filter.WarehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *filter.WarehouseId)
	}
	if filter.ProductId != nil {
		dbCtx = dbCtx.Where("product_id = ?", *filter.ProductId)
	}
	if filter.LocationId != nil {
		dbCtx = dbCtx.Where("location_id = ?", *filter.LocationId)
	}
	if filter.EntryType != nil {
		dbCtx = dbCtx.Where("entry_type = ?", *filter.EntryType)
	}
	if filter.ReceiptId != nil {
		dbCtx = dbCtx.Where("receipt_id = ?", *filter.ReceiptId)
	}
	if filter.From != nil {
		dbCtx = dbCtx.Where("posted_at >= ?", *filter.From)
	}
	if filter.To != nil {
		dbCtx = dbCtx.Where("posted_at <= ?", *filter.To)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, err
	}

	var results []*InventoryLedgerEntry
	if err := dbCtx.Order("posted_at DESC, id DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return NewPaginated(results, params, total), nil
}

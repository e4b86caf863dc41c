package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/shopspring/decimal"
)

// Receipt is one receiving session. At most one non-terminal session may
// exist per ASN at any time.
type Receipt struct {
	ID              string  `gorm:"size:36;primary_key" json:"id"`
	ReceiptNumber   string  `gorm:"size:50;uniqueIndex;not null" json:"receipt_number"`
	WarehouseId     string  `gorm:"size:36;index;not null" json:"warehouse_id"`
	AsnId           *string `gorm:"size:36;index" json:"asn_id"`
	PurchaseOrderId *string `gorm:"size:36;index" json:"purchase_order_id"`
	DockId          *string `gorm:"size:36" json:"dock_id"`
	// ReceivingLocationId is where completed quantities land before putaway.
	ReceivingLocationId *string       `gorm:"size:36" json:"receiving_location_id"`
	Type                ReceiptType   `gorm:"type:enum('ASN_RECEIPT','PO_RECEIPT','ADHOC');not null;default:ASN_RECEIPT" json:"type"`
	Status              ReceiptStatus `gorm:"type:enum('SCHEDULED','ARRIVED','RECEIVING','COMPLETED','CANCELLED');not null;default:RECEIVING" json:"status"`
	CarrierName         string        `gorm:"size:255" json:"carrier_name"`
	TrackingNumber      string        `gorm:"size:100" json:"tracking_number"`
	BolNumber           string        `gorm:"size:100" json:"bol_number"`
	ReceivedBy          string        `gorm:"size:255" json:"received_by"`
	Notes               string        `gorm:"type:text" json:"notes"`
	StartedAt           *time.Time    `json:"started_at"`
	CompletedAt         *time.Time    `json:"completed_at"`
	CancelledAt         *time.Time    `json:"cancelled_at"`
	CancelReason        string        `gorm:"size:500" json:"cancel_reason"`
	Version             int           `gorm:"not null;default:0" json:"version"`
	Lines               []ReceiptLine `gorm:"foreignKey:ReceiptId" json:"lines"`
	CreatedAt           time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type ReceiptLine struct {
	ID               string          `gorm:"size:36;primary_key" json:"id"`
	ReceiptId        string          `gorm:"size:36;index:idx_receipt_line,priority:1;not null" json:"receipt_id"`
	LineNumber       int             `gorm:"index:idx_receipt_line,priority:2,unique;not null" json:"line_number"`
	ProductId        string          `gorm:"size:36;index;not null" json:"product_id"`
	AsnLineId        *string         `gorm:"size:36;index" json:"asn_line_id"`
	Uom              string          `gorm:"size:10;not null;default:EA" json:"uom"`
	QuantityExpected decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_expected"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_received"`
	QuantityDamaged  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_damaged"`
	QuantityRejected decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_rejected"`
	// QuantityPutAway tracks how much of this line has moved from the
	// receiving location into storage.
	QuantityPutAway decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"quantity_put_away"`
	// PutawayLocationId records the first storage location this line was
	// put away to. Split putaways keep the first.
	PutawayLocationId *string    `gorm:"size:36" json:"putaway_location_id"`
	LotNumber         string     `gorm:"size:100" json:"lot_number"`
	ExpirationDate    *time.Time `json:"expiration_date"`
	Notes             string     `gorm:"size:500" json:"notes"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GoodQuantity is what actually lands in stock: received minus damaged and
// rejected units.
func (l *ReceiptLine) GoodQuantity() decimal.Decimal {
	return l.QuantityReceived.Sub(l.QuantityDamaged).Sub(l.QuantityRejected)
}

// PutawayRemaining is the good quantity not yet moved to a storage location.
func (l *ReceiptLine) PutawayRemaining() decimal.Decimal {
	return l.GoodQuantity().Sub(l.QuantityPutAway)
}

// DeriveStatus is computed, never stored. Zero expected means the line was
// ad-hoc and any receipt completes it.
func (l *ReceiptLine) DeriveStatus() ReceiptLineStatus {
	switch {
	case l.QuantityReceived.IsZero():
		return ReceiptLineStatusPending
	case l.QuantityReceived.GreaterThan(l.QuantityExpected) && !l.QuantityExpected.IsZero():
		return ReceiptLineStatusOverReceived
	case l.QuantityReceived.GreaterThanOrEqual(l.QuantityExpected):
		return ReceiptLineStatusComplete
	default:
		return ReceiptLineStatusPartial
	}
}

func GetReceipt(ctx context.Context, id string) (*Receipt, error) {
	return utils.FetchSingleModel[Receipt](ctx, id, "Lines")
}

// ActiveReceiptForASN returns the open session for an ASN, or
// gorm.ErrRecordNotFound when none exists.
func ActiveReceiptForASN(ctx context.Context, asnId string) (*Receipt, error) {
	db := config.GetDB()
	var receipt Receipt
	err := db.WithContext(ctx).Preload("Lines").
		Where("asn_id = ? AND status NOT IN ?", asnId,
			[]ReceiptStatus{ReceiptStatusCompleted, ReceiptStatusCancelled}).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

type ReceiptFilter struct {
	Status      *ReceiptStatus
	WarehouseId *string
	AsnId       *string
	From        *time.Time
	To          *time.Time
}

func ListReceipts(ctx context.Context, filter ReceiptFilter, params PageParams) (*Paginated[Receipt], error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&Receipt{})
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.WarehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *filter.WarehouseId)
	}
	if filter.AsnId != nil {
		dbCtx = dbCtx.Where("asn_id = ?", *filter.AsnId)
	}
	if filter.From != nil {
		dbCtx = dbCtx.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		dbCtx = dbCtx.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, err
	}

	var results []*Receipt
	if err := dbCtx.Preload("Lines").
		Order("created_at DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return NewPaginated(results, params, total), nil
}

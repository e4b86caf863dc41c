package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseOrder struct {
	ID            string              `gorm:"size:36;primary_key" json:"id"`
	PoNumber      string              `gorm:"size:50;uniqueIndex;not null" json:"po_number"`
	VendorId      string              `gorm:"size:36;index;not null" json:"vendor_id" binding:"required"`
	WarehouseId   string              `gorm:"size:36;index;not null" json:"warehouse_id" binding:"required"`
	Status        PurchaseOrderStatus `gorm:"type:enum('DRAFT','PENDING_APPROVAL','APPROVED','SUBMITTED','CONFIRMED','OPEN','PARTIAL','RECEIVED','CLOSED','ON_HOLD','CANCELLED');not null;default:DRAFT" json:"status"`
	OrderDate     time.Time           `gorm:"not null" json:"order_date"`
	ExpectedDate  *time.Time          `json:"expected_date"`
	ShipToName    string              `gorm:"size:255" json:"ship_to_name"`
	ShipToAddress string              `gorm:"type:text" json:"ship_to_address"`
	Notes         string              `gorm:"type:text" json:"notes"`
	Subtotal      decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	TotalAmount   decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	TotalUnits    decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_units"`
	CloseReason   string              `gorm:"type:text" json:"close_reason"`
	ClosedAt      *time.Time          `json:"closed_at"`
	// Version is the optimistic-lock column; every mutation must bump it.
	Version   int       `gorm:"not null;default:0" json:"version"`
	Lines     []POLine  `gorm:"foreignKey:PurchaseOrderId" json:"lines"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type POLine struct {
	ID              string          `gorm:"size:36;primary_key" json:"id"`
	PurchaseOrderId string          `gorm:"size:36;index:idx_po_line,priority:1;not null" json:"purchase_order_id"`
	LineNumber      int             `gorm:"index:idx_po_line,priority:2,unique;not null" json:"line_number"`
	ProductId       string          `gorm:"size:36;index;not null" json:"product_id"`
	Uom             string          `gorm:"size:10;not null;default:EA" json:"uom"`
	QtyOrdered      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty_ordered"`
	QtyReceived     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty_received"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
	Notes           string          `gorm:"size:255" json:"notes"`
}

// QtyOpen is derived, never stored: ordered minus received (negative when
// over-received).
func (l POLine) QtyOpen() decimal.Decimal {
	return l.QtyOrdered.Sub(l.QtyReceived)
}

func (l POLine) HasOpenQty() bool {
	return l.QtyOpen().GreaterThan(decimal.Zero)
}

type NewPurchaseOrder struct {
	VendorId      string      `json:"vendor_id" binding:"required"`
	WarehouseId   string      `json:"warehouse_id" binding:"required"`
	OrderDate     *time.Time  `json:"order_date"`
	ExpectedDate  *time.Time  `json:"expected_date"`
	ShipToName    string      `json:"ship_to_name"`
	ShipToAddress string      `json:"ship_to_address"`
	Notes         string      `json:"notes"`
	Lines         []NewPOLine `json:"lines" binding:"required" validate:"required,min=1,dive"`
}

type NewPOLine struct {
	ProductId string          `json:"product_id" validate:"required"`
	Uom       string          `json:"uom"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Notes     string          `json:"notes"`
}

func (input *NewPurchaseOrder) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Vendor](ctx, "", input.VendorId); err != nil {
		return utils.NewValidationError("vendor not found")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, "", input.WarehouseId); err != nil {
		return utils.NewValidationError("warehouse not found")
	}
	productIds := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return utils.NewValidationError("line quantity must be positive")
		}
		productIds = append(productIds, line.ProductId)
	}
	if err := utils.ValidateResourcesId[Product](ctx, "", productIds); err != nil {
		return utils.NewValidationError("product not found")
	}
	return nil
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	orderDate := time.Now().UTC()
	if input.OrderDate != nil {
		orderDate = *input.OrderDate
	}

	var subtotal, totalUnits decimal.Decimal
	lines := make([]POLine, 0, len(input.Lines))
	for i, line := range input.Lines {
		uom := line.Uom
		if uom == "" {
			uom = "EA"
		}
		lineTotal := line.UnitCost.Mul(line.Quantity)
		subtotal = subtotal.Add(lineTotal)
		totalUnits = totalUnits.Add(line.Quantity)
		lines = append(lines, POLine{
			ID:         uuid.NewString(),
			LineNumber: i + 1,
			ProductId:  line.ProductId,
			Uom:        uom,
			QtyOrdered: line.Quantity,
			UnitCost:   line.UnitCost,
			LineTotal:  lineTotal,
			Notes:      line.Notes,
		})
	}

	purchaseOrder := PurchaseOrder{
		ID:            uuid.NewString(),
		VendorId:      input.VendorId,
		WarehouseId:   input.WarehouseId,
		Status:        PurchaseOrderStatusDraft,
		OrderDate:     orderDate,
		ExpectedDate:  input.ExpectedDate,
		ShipToName:    input.ShipToName,
		ShipToAddress: input.ShipToAddress,
		Notes:         input.Notes,
		Subtotal:      subtotal,
		TotalAmount:   subtotal,
		TotalUnits:    totalUnits,
		Lines:         lines,
	}

	db := config.GetDB()
	// always rollback on early-return or panic to avoid leaking DB locks
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	poNumber, err := NextPONumber(tx, input.WarehouseId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	purchaseOrder.PoNumber = poNumber

	if err := tx.Create(&purchaseOrder).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchaseOrder, nil
}

// UpdatePurchaseOrder replaces header fields and lines. Only legal while the
// order is still DRAFT; everything after that goes through lifecycle actions.
func UpdatePurchaseOrder(ctx context.Context, id string, input *NewPurchaseOrder) (*PurchaseOrder, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	purchaseOrder, err := utils.FetchSingleModel[PurchaseOrder](ctx, id, "Lines")
	if err != nil {
		return nil, err
	}
	if purchaseOrder.Status != PurchaseOrderStatusDraft {
		return nil, utils.NewStateError("purchase order %s is %s; only DRAFT orders can be edited", purchaseOrder.PoNumber, purchaseOrder.Status)
	}

	var subtotal, totalUnits decimal.Decimal
	lines := make([]POLine, 0, len(input.Lines))
	for i, line := range input.Lines {
		uom := line.Uom
		if uom == "" {
			uom = "EA"
		}
		lineTotal := line.UnitCost.Mul(line.Quantity)
		subtotal = subtotal.Add(lineTotal)
		totalUnits = totalUnits.Add(line.Quantity)
		lines = append(lines, POLine{
			ID:              uuid.NewString(),
			PurchaseOrderId: purchaseOrder.ID,
			LineNumber:      i + 1,
			ProductId:       line.ProductId,
			Uom:             uom,
			QtyOrdered:      line.Quantity,
			UnitCost:        line.UnitCost,
			LineTotal:       lineTotal,
			Notes:           line.Notes,
		})
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	result := tx.Model(&PurchaseOrder{}).
		Where("id = ? AND version = ?", purchaseOrder.ID, purchaseOrder.Version).
		Updates(map[string]interface{}{
			"vendor_id":       input.VendorId,
			"expected_date":   input.ExpectedDate,
			"ship_to_name":    input.ShipToName,
			"ship_to_address": input.ShipToAddress,
			"notes":           input.Notes,
			"subtotal":        subtotal,
			"total_amount":    subtotal,
			"total_units":     totalUnits,
			"version":         gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewConflictError("purchase order %s was modified concurrently; retry with fresh state", purchaseOrder.PoNumber)
	}

	if err := tx.Where("purchase_order_id = ?", purchaseOrder.ID).Delete(&POLine{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Create(&lines).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return utils.FetchSingleModel[PurchaseOrder](ctx, id, "Lines")
}

func GetPurchaseOrder(ctx context.Context, id string) (*PurchaseOrder, error) {
	return utils.FetchSingleModel[PurchaseOrder](ctx, id, "Lines")
}

type PurchaseOrderFilter struct {
	Status      *PurchaseOrderStatus
	VendorId    *string
	WarehouseId *string
	Search      *string
	DateFrom    *time.Time
	DateTo      *time.Time
}

func ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter, params PageParams) (*Paginated[PurchaseOrder], error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&PurchaseOrder{})
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.VendorId != nil {
		dbCtx = dbCtx.Where("vendor_id = ?", *filter.VendorId)
	}
	if filter.WarehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *filter.WarehouseId)
	}
	if filter.Search != nil && len(*filter.Search) > 0 {
		dbCtx = dbCtx.Where("po_number LIKE ?", "%"+*filter.Search+"%")
	}
	if filter.DateFrom != nil {
		dbCtx = dbCtx.Where("order_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		dbCtx = dbCtx.Where("order_date <= ?", *filter.DateTo)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, err
	}

	var results []*PurchaseOrder
	if err := dbCtx.Preload("Lines").
		Order("order_date DESC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return NewPaginated(results, params, total), nil
}

// DeriveReceivingStatus recomputes the aggregate status from line quantities.
// OPEN flips to PARTIAL the instant anything is received while open quantity
// remains; PARTIAL flips to RECEIVED once nothing is open. Statuses outside
// the receiving phase are returned unchanged.
func (po *PurchaseOrder) DeriveReceivingStatus() PurchaseOrderStatus {
	if po.Status != PurchaseOrderStatusOpen && po.Status != PurchaseOrderStatusPartial {
		return po.Status
	}
	anyReceived := false
	anyOpen := false
	for _, line := range po.Lines {
		if line.QtyReceived.GreaterThan(decimal.Zero) {
			anyReceived = true
		}
		if line.HasOpenQty() {
			anyOpen = true
		}
	}
	if !anyOpen {
		return PurchaseOrderStatusReceived
	}
	if anyReceived {
		return PurchaseOrderStatusPartial
	}
	return PurchaseOrderStatusOpen
}

// HasVariance reports whether any line deviates from its ordered quantity.
func (po *PurchaseOrder) HasVariance() bool {
	for _, line := range po.Lines {
		if !line.QtyReceived.Equal(line.QtyOrdered) {
			return true
		}
	}
	return false
}

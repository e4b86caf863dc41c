package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ASN struct {
	ID                 string          `gorm:"size:36;primary_key" json:"id"`
	AsnNumber          string          `gorm:"size:50;uniqueIndex;not null" json:"asn_number"`
	VendorId           string          `gorm:"size:36;index;not null" json:"vendor_id" binding:"required"`
	WarehouseId        string          `gorm:"size:36;index;not null" json:"warehouse_id" binding:"required"`
	CarrierName        string          `gorm:"size:255" json:"carrier_name"`
	PurchaseOrderId    *string         `gorm:"size:36;index" json:"purchase_order_id"`
	Status             ASNStatus       `gorm:"type:enum('PENDING','VALIDATED','SCHEDULED','IN_TRANSIT','ARRIVED','RECEIVING','RECEIVED','CLOSED','CANCELLED');not null;default:PENDING" json:"status"`
	ExpectedArrival    *time.Time      `json:"expected_arrival"`
	BolNumber          string          `gorm:"size:100" json:"bol_number"`
	ProNumber          string          `gorm:"size:100" json:"pro_number"`
	SealNumber         string          `gorm:"size:100" json:"seal_number"`
	TrailerNumber      string          `gorm:"size:100" json:"trailer_number"`
	TotalPallets       int             `gorm:"default:0" json:"total_pallets"`
	TotalCases         int             `gorm:"default:0" json:"total_cases"`
	TotalWeight        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_weight"`
	Notes              string          `gorm:"type:text" json:"notes"`
	ValidatedAt        *time.Time      `json:"validated_at"`
	ArrivedAt          *time.Time      `json:"arrived_at"`
	ReceivingStartedAt *time.Time      `json:"receiving_started_at"`
	ReceivedAt         *time.Time      `json:"received_at"`
	ClosedAt           *time.Time      `json:"closed_at"`
	// SLAFlaggedAt is set by the SLA monitor when the ASN stays in RECEIVING
	// past the configured window. Observability only; nothing is cancelled.
	SLAFlaggedAt *time.Time `json:"sla_flagged_at"`
	Version      int        `gorm:"not null;default:0" json:"version"`
	Lines        []ASNLine  `gorm:"foreignKey:AsnId" json:"lines"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type ASNLine struct {
	ID               string          `gorm:"size:36;primary_key" json:"id"`
	AsnId            string          `gorm:"size:36;index:idx_asn_line,priority:1;not null" json:"asn_id"`
	LineNumber       int             `gorm:"index:idx_asn_line,priority:2,unique;not null" json:"line_number"`
	ProductId        string          `gorm:"size:36;index;not null" json:"product_id"`
	Uom              string          `gorm:"size:10;not null;default:EA" json:"uom"`
	QuantityExpected decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_expected"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity_received"`
	LotNumber        string          `gorm:"size:100" json:"lot_number"`
	ExpirationDate   *time.Time      `json:"expiration_date"`
	// PoLineNumber cross-references the PO line used for reconciliation.
	PoLineNumber *int `json:"po_line_number"`
}

type NewASN struct {
	VendorId        string          `json:"vendor_id" binding:"required"`
	WarehouseId     string          `json:"warehouse_id" binding:"required"`
	CarrierName     string          `json:"carrier_name"`
	PurchaseOrderId *string         `json:"purchase_order_id"`
	ExpectedArrival *time.Time      `json:"expected_arrival"`
	BolNumber       string          `json:"bol_number"`
	ProNumber       string          `json:"pro_number"`
	SealNumber      string          `json:"seal_number"`
	TrailerNumber   string          `json:"trailer_number"`
	TotalPallets    int             `json:"total_pallets"`
	TotalCases      int             `json:"total_cases"`
	TotalWeight     decimal.Decimal `json:"total_weight"`
	Notes           string          `json:"notes"`
	Lines           []NewASNLine    `json:"lines" binding:"required" validate:"required,min=1,dive"`
}

type NewASNLine struct {
	ProductId      string          `json:"product_id" validate:"required"`
	Uom            string          `json:"uom"`
	Quantity       decimal.Decimal `json:"quantity" validate:"required"`
	LotNumber      string          `json:"lot_number"`
	ExpirationDate *time.Time      `json:"expiration_date"`
	PoLineNumber   *int            `json:"po_line_number"`
}

// UpdateASN carries the PATCH-able header fields; nil means "leave unchanged".
type UpdateASN struct {
	ExpectedArrival *time.Time       `json:"expected_arrival"`
	CarrierName     *string          `json:"carrier_name"`
	BolNumber       *string          `json:"bol_number"`
	ProNumber       *string          `json:"pro_number"`
	SealNumber      *string          `json:"seal_number"`
	TrailerNumber   *string          `json:"trailer_number"`
	TotalPallets    *int             `json:"total_pallets"`
	TotalCases      *int             `json:"total_cases"`
	TotalWeight     *decimal.Decimal `json:"total_weight"`
	Notes           *string          `json:"notes"`
}

// ASNProgress is the receiving progress block the dashboard renders.
type ASNProgress struct {
	TotalExpected   decimal.Decimal `json:"total_expected"`
	TotalReceived   decimal.Decimal `json:"total_received"`
	PercentComplete int             `json:"percent_complete"`
}

func (asn *ASN) Progress() ASNProgress {
	var expected, received decimal.Decimal
	for _, line := range asn.Lines {
		expected = expected.Add(line.QuantityExpected)
		received = received.Add(line.QuantityReceived)
	}
	percent := 0
	if expected.GreaterThan(decimal.Zero) {
		percent = int(received.Div(expected).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	}
	return ASNProgress{TotalExpected: expected, TotalReceived: received, PercentComplete: percent}
}

// HasVariance reports whether any line's received quantity deviates from its
// expected quantity.
func (asn *ASN) HasVariance() bool {
	for _, line := range asn.Lines {
		if !line.QuantityReceived.Equal(line.QuantityExpected) {
			return true
		}
	}
	return false
}

func (input *NewASN) validate(ctx context.Context) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Vendor](ctx, "", input.VendorId); err != nil {
		return utils.NewValidationError("vendor not found")
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, "", input.WarehouseId); err != nil {
		return utils.NewValidationError("warehouse not found")
	}
	if input.PurchaseOrderId != nil {
		if err := utils.ValidateResourceId[PurchaseOrder](ctx, "", *input.PurchaseOrderId); err != nil {
			return utils.NewValidationError("purchase order not found")
		}
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

func CreateASN(ctx context.Context, input *NewASN) (*ASN, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	lines := make([]ASNLine, 0, len(input.Lines))
	for i, line := range input.Lines {
		uom := line.Uom
		if uom == "" {
			uom = "EA"
		}
		lines = append(lines, ASNLine{
			ID:               uuid.NewString(),
			LineNumber:       i + 1,
			ProductId:        line.ProductId,
			Uom:              uom,
			QuantityExpected: line.Quantity,
			LotNumber:        line.LotNumber,
			ExpirationDate:   line.ExpirationDate,
			PoLineNumber:     line.PoLineNumber,
		})
	}

	asn := ASN{
		ID:              uuid.NewString(),
		VendorId:        input.VendorId,
		WarehouseId:     input.WarehouseId,
		CarrierName:     input.CarrierName,
		PurchaseOrderId: input.PurchaseOrderId,
		Status:          ASNStatusPending,
		ExpectedArrival: input.ExpectedArrival,
		BolNumber:       input.BolNumber,
		ProNumber:       input.ProNumber,
		SealNumber:      input.SealNumber,
		TrailerNumber:   input.TrailerNumber,
		TotalPallets:    input.TotalPallets,
		TotalCases:      input.TotalCases,
		TotalWeight:     input.TotalWeight,
		Notes:           input.Notes,
		Lines:           lines,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	asnNumber, err := NextASNNumber(tx, input.WarehouseId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	asn.AsnNumber = asnNumber

	if err := tx.Create(&asn).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &asn, nil
}

func PatchASN(ctx context.Context, id string, input *UpdateASN) (*ASN, error) {
	asn, err := utils.FetchSingleModel[ASN](ctx, id, "Lines")
	if err != nil {
		return nil, err
	}
	if asn.Status.IsTerminal() {
		return nil, utils.NewStateError("asn %s is %s and can no longer be edited", asn.AsnNumber, asn.Status)
	}

	updates := map[string]interface{}{}
	if input.ExpectedArrival != nil {
		updates["expected_arrival"] = *input.ExpectedArrival
	}
	if input.CarrierName != nil {
		updates["carrier_name"] = *input.CarrierName
	}
	if input.BolNumber != nil {
		updates["bol_number"] = *input.BolNumber
	}
	if input.ProNumber != nil {
		updates["pro_number"] = *input.ProNumber
	}
	if input.SealNumber != nil {
		updates["seal_number"] = *input.SealNumber
	}
	if input.TrailerNumber != nil {
		updates["trailer_number"] = *input.TrailerNumber
	}
	if input.TotalPallets != nil {
		updates["total_pallets"] = *input.TotalPallets
	}
	if input.TotalCases != nil {
		updates["total_cases"] = *input.TotalCases
	}
	if input.TotalWeight != nil {
		updates["total_weight"] = *input.TotalWeight
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if len(updates) == 0 {
		return asn, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&ASN{}).Where("id = ?", asn.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return utils.FetchSingleModel[ASN](ctx, id, "Lines")
}

func GetASN(ctx context.Context, id string) (*ASN, error) {
	return utils.FetchSingleModel[ASN](ctx, id, "Lines")
}

type ASNFilter struct {
	Status          *ASNStatus
	VendorId        *string
	WarehouseId     *string
	Search          *string
	ExpectedFrom    *time.Time
	ExpectedTo      *time.Time
	PurchaseOrderId *string
}

func ListASNs(ctx context.Context, filter ASNFilter, params PageParams) (*Paginated[ASN], error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&ASN{})
	if filter.Status != nil {
		dbCtx = dbCtx.Where("status = ?", *filter.Status)
	}
	if filter.VendorId != nil {
		dbCtx = dbCtx.Where("vendor_id = ?", *filter.VendorId)
	}
	if filter.WarehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *filter.WarehouseId)
	}
	if filter.PurchaseOrderId != nil {
		dbCtx = dbCtx.Where("purchase_order_id = ?", *filter.PurchaseOrderId)
	}
	if filter.Search != nil && len(*filter.Search) > 0 {
		search := "%" + *filter.Search + "%"
		dbCtx = dbCtx.Where("asn_number LIKE ? OR bol_number LIKE ? OR pro_number LIKE ?", search, search, search)
	}
	if filter.ExpectedFrom != nil {
		dbCtx = dbCtx.Where("expected_arrival >= ?", *filter.ExpectedFrom)
	}
	if filter.ExpectedTo != nil {
		dbCtx = dbCtx.Where("expected_arrival <= ?", *filter.ExpectedTo)
	}

	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, err
	}

	var results []*ASN
	if err := dbCtx.Preload("Lines").
		Order("expected_arrival ASC").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return NewPaginated(results, params, total), nil
}

// ASNStatusCounts backs the /stats/summary endpoint.
func ASNStatusCounts(ctx context.Context, warehouseId *string) (map[ASNStatus]int64, error) {
	db := config.GetDB()
	type row struct {
		Status ASNStatus
		Count  int64
	}
	var rows []row
	dbCtx := db.WithContext(ctx).Model(&ASN{}).Select("status, COUNT(id) AS count").Group("status")
	if warehouseId != nil {
		dbCtx = dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if err := dbCtx.Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[ASNStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

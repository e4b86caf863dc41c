package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type NewReceiptInput struct {
	AsnId               *string          `json:"asn_id"`
	PurchaseOrderId     *string          `json:"purchase_order_id"`
	DockId              *string          `json:"dock_id"`
	ReceivingLocationId *string          `json:"receiving_location_id"`
	CarrierName         string           `json:"carrier_name"`
	TrackingNumber      string           `json:"tracking_number"`
	BolNumber           string           `json:"bol_number"`
	ReceivedBy          string           `json:"received_by"`
	Notes               string           `json:"notes"`
	Lines               []AdhocLineInput `json:"lines"`
}

type AdhocLineInput struct {
	ProductId        string          `json:"product_id" validate:"required"`
	Uom              string          `json:"uom"`
	QuantityExpected decimal.Decimal `json:"quantity_expected"`
	LotNumber        string          `json:"lot_number"`
	ExpirationDate   *time.Time      `json:"expiration_date"`
}

// CreateReceipt schedules a session ahead of arrival. ASN-backed sessions
// seed their lines from the ASN; ad-hoc sessions declare lines inline.
func CreateReceipt(ctx context.Context, input *NewReceiptInput) (*models.Receipt, error) {
	warehouseId, ok := utils.GetWarehouseIdFromContext(ctx)
	if !ok || warehouseId == "" {
		return nil, utils.NewValidationError("warehouse id is required")
	}

	receiptType := models.ReceiptTypeAdhoc
	var lines []models.ReceiptLine
	poId := input.PurchaseOrderId

	switch {
	case input.AsnId != nil:
		receiptType = models.ReceiptTypeASN
		asn, err := models.GetASN(ctx, *input.AsnId)
		if err != nil {
			return nil, utils.NewValidationError("asn not found")
		}
		if asn.Status.IsTerminal() {
			return nil, utils.NewStateError("asn %s is %s and cannot be received against", asn.AsnNumber, asn.Status)
		}
		if _, err := models.ActiveReceiptForASN(ctx, *input.AsnId); err == nil {
			return nil, utils.NewConflictError("a receiving session is already active for asn %s", asn.AsnNumber)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if poId == nil {
			poId = asn.PurchaseOrderId
		}
		if input.CarrierName == "" {
			input.CarrierName = asn.CarrierName
		}
		if input.BolNumber == "" {
			input.BolNumber = asn.BolNumber
		}
		for i, asnLine := range asn.Lines {
			asnLineId := asnLine.ID
			lines = append(lines, models.ReceiptLine{
				ID:               uuid.NewString(),
				LineNumber:       i + 1,
				ProductId:        asnLine.ProductId,
				AsnLineId:        &asnLineId,
				Uom:              asnLine.Uom,
				QuantityExpected: asnLine.QuantityExpected,
				LotNumber:        asnLine.LotNumber,
				ExpirationDate:   asnLine.ExpirationDate,
			})
		}

	case input.PurchaseOrderId != nil:
		receiptType = models.ReceiptTypePO
		po, err := models.GetPurchaseOrder(ctx, *input.PurchaseOrderId)
		if err != nil {
			return nil, utils.NewValidationError("purchase order not found")
		}
		if po.Status.IsTerminal() {
			return nil, utils.NewStateError("purchase order %s is %s and cannot be received against", po.PoNumber, po.Status)
		}
		for i, poLine := range po.Lines {
			lines = append(lines, models.ReceiptLine{
				ID:               uuid.NewString(),
				LineNumber:       i + 1,
				ProductId:        poLine.ProductId,
				Uom:              poLine.Uom,
				QuantityExpected: poLine.QtyOpen(),
			})
		}

	default:
		if len(input.Lines) == 0 {
			return nil, utils.NewValidationError("an ad-hoc receipt needs at least one line")
		}
		for i, l := range input.Lines {
			if err := utils.ValidateResourceId[models.Product](ctx, "", l.ProductId); err != nil {
				return nil, utils.NewValidationError("product not found")
			}
			uom := l.Uom
			if uom == "" {
				uom = "EA"
			}
			lines = append(lines, models.ReceiptLine{
				ID:               uuid.NewString(),
				LineNumber:       i + 1,
				ProductId:        l.ProductId,
				Uom:              uom,
				QuantityExpected: l.QuantityExpected,
				LotNumber:        l.LotNumber,
				ExpirationDate:   l.ExpirationDate,
			})
		}
	}

	receivedBy := input.ReceivedBy
	if receivedBy == "" {
		receivedBy, _ = utils.GetUserNameFromContext(ctx)
	}

	receipt := models.Receipt{
		ID:                  uuid.NewString(),
		WarehouseId:         warehouseId,
		AsnId:               input.AsnId,
		PurchaseOrderId:     poId,
		DockId:              input.DockId,
		ReceivingLocationId: input.ReceivingLocationId,
		Type:                receiptType,
		Status:              models.ReceiptStatusScheduled,
		CarrierName:         input.CarrierName,
		TrackingNumber:      input.TrackingNumber,
		BolNumber:           input.BolNumber,
		ReceivedBy:          receivedBy,
		Notes:               input.Notes,
		Lines:               lines,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	receiptNumber, err := models.NextReceiptNumber(tx, warehouseId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	receipt.ReceiptNumber = receiptNumber

	if err := tx.Create(&receipt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// CheckInReceipt marks the truck at the door and optionally assigns a dock.
func CheckInReceipt(ctx context.Context, receiptId string, dockId *string) (*models.Receipt, error) {
	receipt, err := models.GetReceipt(ctx, receiptId)
	if err != nil {
		return nil, err
	}
	newStatus, err := receipt.Status.Transition(models.ReceiptStatusArrived)
	if err != nil {
		return nil, err
	}

	if dockId != nil {
		dock, err := models.GetDock(ctx, *dockId)
		if err != nil {
			return nil, utils.NewValidationError("dock not found")
		}
		if !dock.CanReceive() {
			return nil, utils.NewValidationError("dock %s cannot accept inbound freight", dock.Code)
		}
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	updates := map[string]interface{}{
		"status":  newStatus,
		"version": gorm.Expr("version + 1"),
	}
	if dockId != nil {
		updates["dock_id"] = *dockId
	}
	result := tx.Model(&models.Receipt{}).
		Where("id = ? AND version = ?", receipt.ID, receipt.Version).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewConflictError("receipt %s was modified concurrently", receipt.ReceiptNumber)
	}
	if dockId != nil {
		if err := models.OccupyDock(tx, *dockId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return models.GetReceipt(ctx, receiptId)
}

// StartReceipt flips a scheduled or arrived session to RECEIVING, moving the
// backing ASN with it.
func StartReceipt(ctx context.Context, receiptId string) (*models.Receipt, error) {
	receipt, err := models.GetReceipt(ctx, receiptId)
	if err != nil {
		return nil, err
	}
	newStatus, err := receipt.Status.Transition(models.ReceiptStatusReceiving)
	if err != nil {
		return nil, err
	}

	var asn *models.ASN
	if receipt.AsnId != nil {
		asn, err = models.GetASN(ctx, *receipt.AsnId)
		if err != nil {
			return nil, err
		}
		if asn.Status != models.ASNStatusReceiving && !asn.Status.CanStartReceiving() {
			return nil, utils.NewStateError("cannot start receiving for asn %s in status %s", asn.AsnNumber, asn.Status)
		}

		release, err := acquireSessionGuard(ctx, *receipt.AsnId)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	now := time.Now().UTC()
	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	result := tx.Model(&models.Receipt{}).
		Where("id = ? AND version = ?", receipt.ID, receipt.Version).
		Updates(map[string]interface{}{
			"status":     newStatus,
			"started_at": &now,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewConflictError("receipt %s was modified concurrently", receipt.ReceiptNumber)
	}

	if asn != nil && asn.Status != models.ASNStatusReceiving {
		result := tx.Model(&models.ASN{}).
			Where("id = ? AND version = ?", asn.ID, asn.Version).
			Updates(map[string]interface{}{
				"status":               models.ASNStatusReceiving,
				"receiving_started_at": &now,
				"version":              gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			tx.Rollback()
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			return nil, utils.NewConflictError("asn %s was modified concurrently", asn.AsnNumber)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return models.GetReceipt(ctx, receiptId)
}

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

type StartReceivingInput struct {
	DockId              *string `json:"dock_id"`
	ReceivingLocationId *string `json:"receiving_location_id"`
	ReceivedBy          string  `json:"received_by"`
	Notes               string  `json:"notes"`
}

type ReceiveEventInput struct {
	// LineId targets an existing receipt line. Leave empty and set ProductId
	// to append an ad-hoc line.
	LineId           string          `json:"line_id"`
	ProductId        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityDamaged  decimal.Decimal `json:"quantity_damaged"`
	QuantityRejected decimal.Decimal `json:"quantity_rejected"`
	LotNumber        string          `json:"lot_number"`
	ExpirationDate   *time.Time      `json:"expiration_date"`
}

type ReceiveLinesInput struct {
	Version int                 `json:"version"`
	Lines   []ReceiveEventInput `json:"lines" validate:"required,min=1,dive"`
}

type CompleteReceiptInput struct {
	Version             int     `json:"version"`
	AcceptVariance      bool    `json:"accept_variance"`
	ReceivingLocationId *string `json:"receiving_location_id"`
	Notes               string  `json:"notes"`
}

// StartReceiving opens the single active receiving session for an ASN and
// moves the ASN to RECEIVING in the same transaction.
func StartReceiving(ctx context.Context, asnId string, input *StartReceivingInput) (*models.Receipt, error) {
	release, err := acquireSessionGuard(ctx, asnId)
	if err != nil {
		return nil, err
	}
	defer release()

	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, err
	}
	if asn.Status == models.ASNStatusReceiving {
		return nil, utils.NewConflictError("a receiving session is already active for asn %s", asn.AsnNumber)
	}
	if !asn.Status.CanStartReceiving() {
		return nil, utils.NewStateError("cannot start receiving for asn %s in status %s", asn.AsnNumber, asn.Status)
	}

	if _, err := models.ActiveReceiptForASN(ctx, asnId); err == nil {
		return nil, utils.NewConflictError("a receiving session is already active for asn %s", asn.AsnNumber)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if input.DockId != nil {
		dock, err := models.GetDock(ctx, *input.DockId)
		if err != nil {
			return nil, utils.NewValidationError("dock not found")
		}
		if !dock.CanReceive() {
			return nil, utils.NewValidationError("dock %s cannot accept inbound freight", dock.Code)
		}
	}

	receivedBy := input.ReceivedBy
	if receivedBy == "" {
		receivedBy, _ = utils.GetUserNameFromContext(ctx)
	}

	lines := make([]models.ReceiptLine, 0, len(asn.Lines))
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

	now := time.Now().UTC()
	receipt := models.Receipt{
		ID:                  uuid.NewString(),
		WarehouseId:         asn.WarehouseId,
		AsnId:               &asn.ID,
		PurchaseOrderId:     asn.PurchaseOrderId,
		DockId:              input.DockId,
		ReceivingLocationId: input.ReceivingLocationId,
		Type:                models.ReceiptTypeASN,
		Status:              models.ReceiptStatusReceiving,
		CarrierName:         asn.CarrierName,
		BolNumber:           asn.BolNumber,
		ReceivedBy:          receivedBy,
		Notes:               input.Notes,
		StartedAt:           &now,
		Lines:               lines,
	}

	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

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

	receiptNumber, err := models.NextReceiptNumber(tx, asn.WarehouseId)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	receipt.ReceiptNumber = receiptNumber

	if err := tx.Create(&receipt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if input.DockId != nil {
		if err := models.OccupyDock(tx, *input.DockId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "workflow", "StartReceiving", "commit", asnId, err)
		return nil, err
	}
	return &receipt, nil
}

// ReceiveLines applies a batch of scan events to an open session. Received
// quantities only ever increase; corrections happen after completion as
// reversal entries.
func ReceiveLines(ctx context.Context, receiptId string, input *ReceiveLinesInput) (*models.Receipt, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	receipt, err := models.GetReceipt(ctx, receiptId)
	if err != nil {
		return nil, err
	}
	if !receipt.Status.IsMutable() {
		return nil, utils.NewStateError("receipt %s is %s and can no longer be edited", receipt.ReceiptNumber, receipt.Status)
	}

	// A scheduled ASN-backed session may take its first scan without an
	// explicit start; the ASN must move to RECEIVING in the same transaction
	// or CompleteReceipt's guarded update would strand it.
	var asn *models.ASN
	if receipt.AsnId != nil {
		asn, err = models.GetASN(ctx, *receipt.AsnId)
		if err != nil {
			return nil, err
		}
		if asn.Status != models.ASNStatusReceiving && !asn.Status.CanStartReceiving() {
			return nil, utils.NewStateError("cannot receive against asn %s in status %s", asn.AsnNumber, asn.Status)
		}
	}

	linesById := make(map[string]*models.ReceiptLine, len(receipt.Lines))
	maxLineNumber := 0
	for i := range receipt.Lines {
		linesById[receipt.Lines[i].ID] = &receipt.Lines[i]
		if receipt.Lines[i].LineNumber > maxLineNumber {
			maxLineNumber = receipt.Lines[i].LineNumber
		}
	}

	for _, event := range input.Lines {
		if event.Quantity.IsNegative() || event.QuantityDamaged.IsNegative() || event.QuantityRejected.IsNegative() {
			return nil, utils.NewValidationError("scan quantities must not be negative")
		}
		if event.QuantityDamaged.Add(event.QuantityRejected).GreaterThan(event.Quantity) {
			return nil, utils.NewValidationError("damaged plus rejected cannot exceed the received quantity")
		}
		if event.LineId == "" && event.ProductId == "" {
			return nil, utils.NewValidationError("each scan event needs a line_id or a product_id")
		}
		if event.LineId != "" {
			if _, ok := linesById[event.LineId]; !ok {
				return nil, utils.NewValidationError("line %s is not on this receipt", event.LineId)
			}
		}
	}

	now := time.Now().UTC()
	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// The version bump serializes concurrent scanners on the same session.
	result := tx.Model(&models.Receipt{}).
		Where("id = ? AND version = ?", receipt.ID, input.Version).
		Updates(map[string]interface{}{
			"status":     models.ReceiptStatusReceiving,
			"started_at": gorm.Expr("COALESCE(started_at, ?)", &now),
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

	for _, event := range input.Lines {
		var line *models.ReceiptLine
		if event.LineId != "" {
			line = linesById[event.LineId]
		} else {
			maxLineNumber++
			newLine := models.ReceiptLine{
				ID:               uuid.NewString(),
				ReceiptId:        receipt.ID,
				LineNumber:       maxLineNumber,
				ProductId:        event.ProductId,
				Uom:              "EA",
				QuantityExpected: decimal.Zero,
				LotNumber:        event.LotNumber,
				ExpirationDate:   event.ExpirationDate,
			}
			if err := tx.Create(&newLine).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
			line = &newLine
		}

		updates := map[string]interface{}{
			"quantity_received": gorm.Expr("quantity_received + ?", event.Quantity),
			"quantity_damaged":  gorm.Expr("quantity_damaged + ?", event.QuantityDamaged),
			"quantity_rejected": gorm.Expr("quantity_rejected + ?", event.QuantityRejected),
		}
		if event.LotNumber != "" {
			updates["lot_number"] = event.LotNumber
		}
		if event.ExpirationDate != nil {
			updates["expiration_date"] = event.ExpirationDate
		}
		if err := tx.Model(&models.ReceiptLine{}).Where("id = ?", line.ID).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		// Keep ASN progress live while scanning.
		if line.AsnLineId != nil {
			if err := tx.Model(&models.ASNLine{}).Where("id = ?", *line.AsnLineId).
				Update("quantity_received", gorm.Expr("quantity_received + ?", event.Quantity)).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "workflow", "ReceiveLines", "commit", receiptId, err)
		return nil, err
	}
	return models.GetReceipt(ctx, receiptId)
}

// CompleteReceipt commits the session: one ledger entry per line into the
// receiving location, PO received quantities, ASN and receipt status, dock
// release. All of it happens in one transaction or not at all.
func CompleteReceipt(ctx context.Context, receiptId string, input *CompleteReceiptInput) (*models.Receipt, error) {
	receipt, err := models.GetReceipt(ctx, receiptId)
	if err != nil {
		return nil, err
	}
	if receipt.Status != models.ReceiptStatusReceiving {
		return nil, utils.NewStateError("receipt %s cannot be completed from status %s", receipt.ReceiptNumber, receipt.Status)
	}

	locationId := receipt.ReceivingLocationId
	if input.ReceivingLocationId != nil {
		locationId = input.ReceivingLocationId
	}
	if locationId == nil {
		return nil, utils.NewValidationError("a receiving location is required to complete the receipt")
	}
	location, err := utils.FetchSingleModel[models.Location](ctx, *locationId)
	if err != nil {
		return nil, utils.NewValidationError("receiving location not found")
	}
	if !location.AcceptsStock() {
		return nil, utils.NewValidationError("location %s does not accept stock", location.Code)
	}

	if !input.AcceptVariance {
		for _, line := range receipt.Lines {
			if line.DeriveStatus() != models.ReceiptLineStatusComplete {
				return nil, utils.NewStateError("open lines remain on receipt %s; pass accept_variance to complete with variance", receipt.ReceiptNumber)
			}
		}
	}

	postedBy, _ := utils.GetUserNameFromContext(ctx)
	now := time.Now().UTC()

	db := config.GetDB()
	logger := config.GetLogger()
	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := AcquireWarehousePostingLock(tx, receipt.WarehouseId); err != nil {
		tx.Rollback()
		return nil, err
	}
	defer ReleaseWarehousePostingLock(tx, receipt.WarehouseId)

	result := tx.Model(&models.Receipt{}).
		Where("id = ? AND version = ?", receipt.ID, input.Version).
		Updates(map[string]interface{}{
			"status":                models.ReceiptStatusCompleted,
			"completed_at":          &now,
			"receiving_location_id": *locationId,
			"version":               gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewConflictError("receipt %s was modified concurrently", receipt.ReceiptNumber)
	}

	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		good := line.GoodQuantity()
		if !good.IsPositive() {
			continue
		}
		lineId := line.ID
		entry := models.InventoryLedgerEntry{
			WarehouseId:   receipt.WarehouseId,
			ProductId:     line.ProductId,
			LocationId:    *locationId,
			EntryType:     models.LedgerEntryTypeReceipt,
			Quantity:      good,
			Uom:           line.Uom,
			LotNumber:     line.LotNumber,
			ReceiptId:     &receipt.ID,
			ReceiptLineId: &lineId,
			Reference:     receipt.ReceiptNumber,
			PostedBy:      postedBy,
		}
		if err := models.ApplyLedgerEntry(tx, &entry); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := applyReceiptToPO(tx, receipt); err != nil {
		tx.Rollback()
		return nil, err
	}

	if receipt.AsnId != nil {
		result := tx.Model(&models.ASN{}).
			Where("id = ? AND status = ?", *receipt.AsnId, models.ASNStatusReceiving).
			Updates(map[string]interface{}{
				"status":      models.ASNStatusReceived,
				"received_at": &now,
				"version":     gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			tx.Rollback()
			return nil, result.Error
		}
	}

	if receipt.DockId != nil {
		if err := models.ReleaseDock(tx, *receipt.DockId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "workflow", "CompleteReceipt", "commit", receiptId, err)
		return nil, err
	}
	return models.GetReceipt(ctx, receiptId)
}

// applyReceiptToPO folds committed quantities into the linked PO's lines and
// re-derives its aggregate receiving status. Over-receipt is never capped.
func applyReceiptToPO(tx *gorm.DB, receipt *models.Receipt) error {
	if receipt.PurchaseOrderId == nil {
		return nil
	}

	var po models.PurchaseOrder
	if err := tx.Preload("Lines").Where("id = ?", *receipt.PurchaseOrderId).First(&po).Error; err != nil {
		return err
	}

	byProduct := make(map[string]*models.POLine, len(po.Lines))
	for i := range po.Lines {
		byProduct[po.Lines[i].ProductId] = &po.Lines[i]
	}

	touched := false
	for _, line := range receipt.Lines {
		good := line.GoodQuantity()
		if !good.IsPositive() {
			continue
		}
		poLine, ok := byProduct[line.ProductId]
		if !ok {
			continue
		}
		if err := tx.Model(&models.POLine{}).Where("id = ?", poLine.ID).
			Update("qty_received", gorm.Expr("qty_received + ?", good)).Error; err != nil {
			return err
		}
		poLine.QtyReceived = poLine.QtyReceived.Add(good)
		touched = true
	}
	if !touched {
		return nil
	}

	newStatus := po.DeriveReceivingStatus()
	if newStatus != po.Status && po.Status.CanTransition(newStatus) {
		return tx.Model(&models.PurchaseOrder{}).Where("id = ?", po.ID).
			Updates(map[string]interface{}{
				"status":  newStatus,
				"version": gorm.Expr("version + 1"),
			}).Error
	}
	return nil
}

// CancelReceipt discards a session's provisional quantities. Nothing was
// posted to the ledger yet, so only ASN progress counters roll back.
func CancelReceipt(ctx context.Context, receiptId string, reason string) (*models.Receipt, error) {
	receipt, err := models.GetReceipt(ctx, receiptId)
	if err != nil {
		return nil, err
	}
	if receipt.Status.IsTerminal() {
		return nil, utils.NewStateError("receipt %s is %s and cannot be cancelled", receipt.ReceiptNumber, receipt.Status)
	}

	now := time.Now().UTC()
	db := config.GetDB()
	logger := config.GetLogger()
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
			"status":        models.ReceiptStatusCancelled,
			"cancelled_at":  &now,
			"cancel_reason": reason,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		tx.Rollback()
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.NewConflictError("receipt %s was modified concurrently", receipt.ReceiptNumber)
	}

	for _, line := range receipt.Lines {
		if line.AsnLineId == nil || line.QuantityReceived.IsZero() {
			continue
		}
		if err := tx.Model(&models.ASNLine{}).Where("id = ?", *line.AsnLineId).
			Update("quantity_received", gorm.Expr("quantity_received - ?", line.QuantityReceived)).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if receipt.AsnId != nil {
		result := tx.Model(&models.ASN{}).
			Where("id = ? AND status = ?", *receipt.AsnId, models.ASNStatusReceiving).
			Updates(map[string]interface{}{
				"status":  models.ASNStatusArrived,
				"version": gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			tx.Rollback()
			return nil, result.Error
		}
	}

	if receipt.DockId != nil {
		if err := models.ReleaseDock(tx, *receipt.DockId); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "workflow", "CancelReceipt", "commit", receiptId, err)
		return nil, err
	}
	return models.GetReceipt(ctx, receiptId)
}

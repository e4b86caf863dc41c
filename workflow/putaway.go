package workflow

import (
	"context"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PutawayInput struct {
	LocationId string          `json:"location_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"required"`
}

// CheckPutawayCapacity is the pure admission rule: a nil capacity means the
// location is unbounded.
func CheckPutawayCapacity(capacity *decimal.Decimal, occupancy, quantity decimal.Decimal) error {
	if capacity == nil {
		return nil
	}
	if occupancy.Add(quantity).GreaterThan(*capacity) {
		return utils.NewCapacityError("location capacity %s exceeded: %s on hand, %s requested",
			capacity, occupancy, quantity)
	}
	return nil
}

// Putaway moves good quantity from the receiving location into storage as a
// paired OUT/IN ledger append. Splits are allowed; the sum of putaways per
// line never exceeds its good quantity.
func Putaway(ctx context.Context, receiptId string, lineId string, input *PutawayInput) (*models.Receipt, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}
	if !input.Quantity.IsPositive() {
		return nil, utils.NewValidationError("putaway quantity must be positive")
	}

	receipt, err := models.GetReceipt(ctx, receiptId)
	if err != nil {
		return nil, err
	}
	if receipt.Status != models.ReceiptStatusCompleted {
		return nil, utils.NewStateError("receipt %s must be completed before putaway", receipt.ReceiptNumber)
	}
	if receipt.ReceivingLocationId == nil {
		return nil, utils.NewValidationError("receipt %s has no receiving location", receipt.ReceiptNumber)
	}

	var line *models.ReceiptLine
	for i := range receipt.Lines {
		if receipt.Lines[i].ID == lineId {
			line = &receipt.Lines[i]
			break
		}
	}
	if line == nil {
		return nil, utils.NewNotFoundError("line %s is not on receipt %s", lineId, receipt.ReceiptNumber)
	}
	if input.Quantity.GreaterThan(line.PutawayRemaining()) {
		return nil, utils.NewValidationError("putaway quantity %s exceeds remaining %s on line %d",
			input.Quantity, line.PutawayRemaining(), line.LineNumber)
	}

	location, err := utils.FetchSingleModel[models.Location](ctx, input.LocationId)
	if err != nil {
		return nil, utils.NewValidationError("location not found")
	}
	if !location.AcceptsStock() {
		return nil, utils.NewStateError("location %s is %s and does not accept stock", location.Code, location.Status)
	}
	if location.WarehouseId != receipt.WarehouseId {
		return nil, utils.NewValidationError("location %s belongs to a different warehouse", location.Code)
	}

	postedBy, _ := utils.GetUserNameFromContext(ctx)

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

	if config.StrictLocationCapacity() {
		occupancy, err := models.LocationOccupancy(tx, location.ID)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := CheckPutawayCapacity(location.Capacity, occupancy, input.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	out := models.InventoryLedgerEntry{
		WarehouseId:   receipt.WarehouseId,
		ProductId:     line.ProductId,
		LocationId:    *receipt.ReceivingLocationId,
		EntryType:     models.LedgerEntryTypePutawayOut,
		Quantity:      input.Quantity.Neg(),
		Uom:           line.Uom,
		LotNumber:     line.LotNumber,
		ReceiptId:     &receipt.ID,
		ReceiptLineId: &line.ID,
		Reference:     receipt.ReceiptNumber,
		PostedBy:      postedBy,
	}
	if err := models.ApplyLedgerEntry(tx, &out); err != nil {
		tx.Rollback()
		return nil, err
	}

	in := models.InventoryLedgerEntry{
		WarehouseId:   receipt.WarehouseId,
		ProductId:     line.ProductId,
		LocationId:    location.ID,
		EntryType:     models.LedgerEntryTypePutawayIn,
		Quantity:      input.Quantity,
		Uom:           line.Uom,
		LotNumber:     line.LotNumber,
		ReceiptId:     &receipt.ID,
		ReceiptLineId: &line.ID,
		Reference:     receipt.ReceiptNumber,
		PostedBy:      postedBy,
	}
	if err := models.ApplyLedgerEntry(tx, &in); err != nil {
		tx.Rollback()
		return nil, err
	}

	updates := map[string]interface{}{
		"quantity_put_away": gorm.Expr("quantity_put_away + ?", input.Quantity),
	}
	if line.PutawayLocationId == nil {
		updates["putaway_location_id"] = location.ID
	}
	if err := tx.Model(&models.ReceiptLine{}).Where("id = ?", line.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		config.LogError(logger, "workflow", "Putaway", "commit", receiptId, err)
		return nil, err
	}
	return models.GetReceipt(ctx, receiptId)
}

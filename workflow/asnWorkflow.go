package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// transitionASN applies a version-checked status change with extra column
// updates in a fresh transaction.
func transitionASN(ctx context.Context, asn *models.ASN, to models.ASNStatus, extra map[string]interface{}) (*models.ASN, error) {
	newStatus, err := asn.Status.Transition(to)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":  newStatus,
		"version": gorm.Expr("version + 1"),
	}
	for k, v := range extra {
		updates[k] = v
	}

	db := config.GetDB()
	result := db.WithContext(ctx).Model(&models.ASN{}).
		Where("id = ? AND version = ?", asn.ID, asn.Version).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.NewConflictError("asn %s was modified concurrently", asn.AsnNumber)
	}
	return models.GetASN(ctx, asn.ID)
}

// RunASNValidation dry-runs the ASN against its PO and, when the ASN is
// still PENDING and the run is clean, promotes it to VALIDATED.
func RunASNValidation(ctx context.Context, asnId string) (*models.ASN, *ValidationResult, error) {
	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, nil, err
	}

	var po *models.PurchaseOrder
	if asn.PurchaseOrderId != nil {
		po, err = models.GetPurchaseOrder(ctx, *asn.PurchaseOrderId)
		if err != nil {
			return nil, nil, err
		}
	}

	result := ValidateASN(asn, po, time.Now().UTC())

	if result.Valid && asn.Status == models.ASNStatusPending {
		now := time.Now().UTC()
		asn, err = transitionASN(ctx, asn, models.ASNStatusValidated, map[string]interface{}{
			"validated_at": &now,
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return asn, &result, nil
}

func ScheduleASN(ctx context.Context, asnId string, expectedArrival *time.Time) (*models.ASN, error) {
	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, err
	}
	extra := map[string]interface{}{}
	if expectedArrival != nil {
		extra["expected_arrival"] = expectedArrival
	}
	return transitionASN(ctx, asn, models.ASNStatusScheduled, extra)
}

func MarkASNInTransit(ctx context.Context, asnId string) (*models.ASN, error) {
	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, err
	}
	return transitionASN(ctx, asn, models.ASNStatusInTransit, nil)
}

func MarkASNArrived(ctx context.Context, asnId string) (*models.ASN, error) {
	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return transitionASN(ctx, asn, models.ASNStatusArrived, map[string]interface{}{
		"arrived_at": &now,
	})
}

type CloseASNInput struct {
	AcceptVariance bool   `json:"accept_variance"`
	CloseNotes     string `json:"close_notes"`
}

// CloseASN is terminal. Variance is never silently swallowed: any line whose
// received differs from expected requires accept_variance.
func CloseASN(ctx context.Context, asnId string, input *CloseASNInput) (*models.ASN, error) {
	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, err
	}
	if !asn.Status.CanTransition(models.ASNStatusClosed) {
		return nil, utils.NewStateError("asn %s cannot be closed from status %s", asn.AsnNumber, asn.Status)
	}

	if _, err := models.ActiveReceiptForASN(ctx, asnId); err == nil {
		return nil, utils.NewConflictError("asn %s has an active receiving session", asn.AsnNumber)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if asn.HasVariance() && !input.AcceptVariance {
		return nil, utils.NewStateError("asn %s has unreconciled variance; pass accept_variance to close", asn.AsnNumber)
	}

	now := time.Now().UTC()
	extra := map[string]interface{}{"closed_at": &now}
	if input.CloseNotes != "" {
		extra["notes"] = input.CloseNotes
	}
	return transitionASN(ctx, asn, models.ASNStatusClosed, extra)
}

// CancelASN soft-deletes: terminal CANCELLED, only legal before receiving
// starts.
func CancelASN(ctx context.Context, asnId string) (*models.ASN, error) {
	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, err
	}
	return transitionASN(ctx, asn, models.ASNStatusCancelled, nil)
}

type ASNReceiveLine struct {
	LineNumber       int             `json:"line_number" validate:"required"`
	Quantity         decimal.Decimal `json:"quantity" validate:"required"`
	QuantityDamaged  decimal.Decimal `json:"quantity_damaged"`
	QuantityRejected decimal.Decimal `json:"quantity_rejected"`
	LotNumber        string          `json:"lot_number"`
	ExpirationDate   *time.Time      `json:"expiration_date"`
}

type ASNReceiveInput struct {
	ReceivingLocationId *string          `json:"receiving_location_id"`
	Lines               []ASNReceiveLine `json:"lines" validate:"required,min=1,dive"`
}

// ReceiveAgainstASN is the one-call receive path the dock UI uses: it reuses
// the active session or opens one, then applies the scan events.
func ReceiveAgainstASN(ctx context.Context, asnId string, input *ASNReceiveInput) (*models.Receipt, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	receipt, err := models.ActiveReceiptForASN(ctx, asnId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		receipt, err = StartReceiving(ctx, asnId, &StartReceivingInput{
			ReceivingLocationId: input.ReceivingLocationId,
		})
	}
	if err != nil {
		return nil, err
	}
	if receipt.Status == models.ReceiptStatusScheduled || receipt.Status == models.ReceiptStatusArrived {
		receipt, err = StartReceipt(ctx, receipt.ID)
		if err != nil {
			return nil, err
		}
	}

	asn, err := models.GetASN(ctx, asnId)
	if err != nil {
		return nil, err
	}
	lineIdByNumber := make(map[int]string, len(asn.Lines))
	for _, asnLine := range asn.Lines {
		for _, receiptLine := range receipt.Lines {
			if receiptLine.AsnLineId != nil && *receiptLine.AsnLineId == asnLine.ID {
				lineIdByNumber[asnLine.LineNumber] = receiptLine.ID
			}
		}
	}

	events := make([]ReceiveEventInput, 0, len(input.Lines))
	for _, l := range input.Lines {
		lineId, ok := lineIdByNumber[l.LineNumber]
		if !ok {
			return nil, utils.NewValidationError("line %d is not on asn %s", l.LineNumber, asn.AsnNumber)
		}
		events = append(events, ReceiveEventInput{
			LineId:           lineId,
			Quantity:         l.Quantity,
			QuantityDamaged:  l.QuantityDamaged,
			QuantityRejected: l.QuantityRejected,
			LotNumber:        l.LotNumber,
			ExpirationDate:   l.ExpirationDate,
		})
	}

	return ReceiveLines(ctx, receipt.ID, &ReceiveLinesInput{
		Version: receipt.Version,
		Lines:   events,
	})
}

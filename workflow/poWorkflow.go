package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"gorm.io/gorm"
)

func transitionPO(ctx context.Context, po *models.PurchaseOrder, to models.PurchaseOrderStatus, extra map[string]interface{}) (*models.PurchaseOrder, error) {
	newStatus, err := po.Status.Transition(to)
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
	result := db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Where("id = ? AND version = ?", po.ID, po.Version).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.NewConflictError("purchase order %s was modified concurrently", po.PoNumber)
	}
	return models.GetPurchaseOrder(ctx, po.ID)
}

// SubmitPO sends a draft into approval.
func SubmitPO(ctx context.Context, poId string) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	if len(po.Lines) == 0 {
		return nil, utils.NewValidationError("purchase order %s has no lines", po.PoNumber)
	}
	return transitionPO(ctx, po, models.PurchaseOrderStatusPendingApproval, nil)
}

func ApprovePO(ctx context.Context, poId string) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	return transitionPO(ctx, po, models.PurchaseOrderStatusApproved, nil)
}

// SendPO transmits an approved order to the vendor.
func SendPO(ctx context.Context, poId string) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	return transitionPO(ctx, po, models.PurchaseOrderStatusSubmitted, nil)
}

// ConfirmPO records the vendor's confirmation and opens the order for
// receiving in one step.
func ConfirmPO(ctx context.Context, poId string) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	po, err = transitionPO(ctx, po, models.PurchaseOrderStatusConfirmed, nil)
	if err != nil {
		return nil, err
	}
	return transitionPO(ctx, po, models.PurchaseOrderStatusOpen, nil)
}

type ClosePOInput struct {
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

// ClosePO is terminal. Fully received orders close freely; orders with open
// lines need force, which accepts the short quantities as final.
func ClosePO(ctx context.Context, poId string, input *ClosePOInput) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	if !po.Status.CanTransition(models.PurchaseOrderStatusClosed) {
		return nil, utils.NewStateError("purchase order %s cannot be closed from status %s", po.PoNumber, po.Status)
	}

	if !input.Force {
		for _, line := range po.Lines {
			if line.HasOpenQty() {
				return nil, utils.NewStateError("open lines remain on purchase order %s; pass force to close short", po.PoNumber)
			}
		}
	}

	now := time.Now().UTC()
	return transitionPO(ctx, po, models.PurchaseOrderStatusClosed, map[string]interface{}{
		"close_reason": input.Reason,
		"closed_at":    &now,
	})
}

// HoldPO parks the order; ReopenPO releases it back into receiving.
func HoldPO(ctx context.Context, poId string) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	return transitionPO(ctx, po, models.PurchaseOrderStatusOnHold, nil)
}

// ReopenPO releases a held order. Orders that never finished approval go
// back to DRAFT; anything with received quantity resumes as OPEN/PARTIAL.
func ReopenPO(ctx context.Context, poId string) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	if po.Status != models.PurchaseOrderStatusOnHold {
		return nil, utils.NewStateError("purchase order %s is not on hold", po.PoNumber)
	}

	anyReceived := false
	anyOpen := false
	for _, line := range po.Lines {
		if !line.QtyReceived.IsZero() {
			anyReceived = true
		}
		if line.HasOpenQty() {
			anyOpen = true
		}
	}
	target := models.PurchaseOrderStatusDraft
	if anyReceived {
		target = models.PurchaseOrderStatusReceived
		if anyOpen {
			target = models.PurchaseOrderStatusPartial
		}
	}
	return transitionPO(ctx, po, target, nil)
}

// CancelPO soft-deletes: terminal CANCELLED, illegal once receiving begins.
func CancelPO(ctx context.Context, poId string) (*models.PurchaseOrder, error) {
	po, err := models.GetPurchaseOrder(ctx, poId)
	if err != nil {
		return nil, err
	}
	for _, line := range po.Lines {
		if !line.QtyReceived.IsZero() {
			return nil, utils.NewStateError("purchase order %s has received quantity and cannot be cancelled", po.PoNumber)
		}
	}
	return transitionPO(ctx, po, models.PurchaseOrderStatusCancelled, nil)
}

package workflow

import (
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/wms_backend/config"
	"bitbucket.org/mmdatafocus/wms_backend/models"
	"github.com/shopspring/decimal"
)

// LineReconciliation is the outcome of reconciling one line. Variance is
// signed: negative means short, positive means over.
type LineReconciliation struct {
	Status   models.ReceiptLineStatus `json:"status"`
	Variance decimal.Decimal          `json:"variance"`
	Damaged  decimal.Decimal          `json:"damaged"`
}

// Reconcile is pure and total over non-negative inputs. Damaged units count
// as received but are carried separately so close-time review can see them.
// Over-receipt is never clamped here. Zero expected means the line was
// ad-hoc: any receipt completes it and the variance is informational only.
func Reconcile(expected, received, damaged decimal.Decimal) LineReconciliation {
	variance := received.Sub(expected)

	var status models.ReceiptLineStatus
	switch {
	case received.IsZero():
		status = models.ReceiptLineStatusPending
	case received.GreaterThan(expected) && !expected.IsZero():
		status = models.ReceiptLineStatusOverReceived
	case received.GreaterThanOrEqual(expected):
		status = models.ReceiptLineStatusComplete
	default:
		status = models.ReceiptLineStatusPartial
	}

	return LineReconciliation{Status: status, Variance: variance, Damaged: damaged}
}

// ValidationResult mirrors the shape the dashboard's validate dialog renders.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

func (r *ValidationResult) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

// ValidateASN dry-runs the ASN against its linked PO without touching any
// state. Errors block the VALIDATED transition; warnings do not.
//
// po may be nil when the ASN is standalone; now is injected for testability.
func ValidateASN(asn *models.ASN, po *models.PurchaseOrder, now time.Time) ValidationResult {
	result := ValidationResult{Valid: true, Warnings: []string{}, Errors: []string{}}

	totalExpected := decimal.Zero
	for _, line := range asn.Lines {
		totalExpected = totalExpected.Add(line.QuantityExpected)
	}
	if totalExpected.IsZero() {
		result.fail("asn has zero total expected quantity")
	}

	var poLinesByNumber map[int]*models.POLine
	var poLinesByProduct map[string]*models.POLine
	if po != nil {
		poLinesByNumber = make(map[int]*models.POLine, len(po.Lines))
		poLinesByProduct = make(map[string]*models.POLine, len(po.Lines))
		for i := range po.Lines {
			poLinesByNumber[po.Lines[i].LineNumber] = &po.Lines[i]
			poLinesByProduct[po.Lines[i].ProductId] = &po.Lines[i]
		}
	}

	nearExpiryCutoff := now.AddDate(0, 0, config.NearExpiryWarningDays())

	for _, line := range asn.Lines {
		if line.QuantityExpected.IsNegative() {
			result.fail("line %d: expected quantity is negative", line.LineNumber)
		}
		if line.QuantityReceived.IsNegative() {
			result.fail("line %d: received quantity is negative", line.LineNumber)
		}
		if line.ProductId == "" {
			result.fail("line %d: missing product reference", line.LineNumber)
		}

		rec := Reconcile(line.QuantityExpected, line.QuantityReceived, decimal.Zero)
		if !rec.Variance.IsZero() && !line.QuantityReceived.IsZero() {
			result.warn("line %d: variance %s (expected %s, received %s)",
				line.LineNumber, rec.Variance, line.QuantityExpected, line.QuantityReceived)
		}

		if line.ExpirationDate != nil && line.ExpirationDate.Before(nearExpiryCutoff) {
			if line.ExpirationDate.Before(now) {
				result.warn("line %d: lot %s is expired", line.LineNumber, line.LotNumber)
			} else {
				result.warn("line %d: lot %s expires within %d days",
					line.LineNumber, line.LotNumber, config.NearExpiryWarningDays())
			}
		}

		if po == nil {
			continue
		}
		var poLine *models.POLine
		if line.PoLineNumber != nil {
			poLine = poLinesByNumber[*line.PoLineNumber]
		}
		if poLine == nil {
			poLine = poLinesByProduct[line.ProductId]
		}
		if poLine == nil {
			result.fail("line %d: product %s is not on purchase order %s",
				line.LineNumber, line.ProductId, po.PoNumber)
			continue
		}
		if line.QuantityExpected.GreaterThan(poLine.QtyOpen()) {
			result.warn("line %d: expected %s exceeds open quantity %s on PO line %d",
				line.LineNumber, line.QuantityExpected, poLine.QtyOpen(), poLine.LineNumber)
		}
	}

	return result
}

package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/wms_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCheckPutawayCapacity_WithinCapacity(t *testing.T) {
	capacity := d(500)
	if err := CheckPutawayCapacity(&capacity, d(400), d(100)); err != nil {
		t.Fatalf("exactly filling the location must pass: %v", err)
	}
	if err := CheckPutawayCapacity(&capacity, d(0), d(1)); err != nil {
		t.Fatalf("small putaway into empty location must pass: %v", err)
	}
}

func TestCheckPutawayCapacity_Exceeded(t *testing.T) {
	capacity := d(500)
	err := CheckPutawayCapacity(&capacity, d(450), d(100))
	if err == nil {
		t.Fatal("expected capacity error")
	}
	ee, ok := utils.AsEngineError(err)
	if !ok || ee.Kind != utils.ErrorKindCapacity {
		t.Fatalf("expected CAPACITY kind, got %v", err)
	}
}

func TestCheckPutawayCapacity_NilCapacityUnbounded(t *testing.T) {
	if err := CheckPutawayCapacity(nil, d(1_000_000), d(1_000_000)); err != nil {
		t.Fatalf("nil capacity must never reject: %v", err)
	}
}

func TestCheckPutawayCapacity_FractionalQuantities(t *testing.T) {
	capacity := decimal.NewFromFloat(10.5)
	if err := CheckPutawayCapacity(&capacity, decimal.NewFromFloat(10.25), decimal.NewFromFloat(0.25)); err != nil {
		t.Fatalf("fractional fill to capacity must pass: %v", err)
	}
	if err := CheckPutawayCapacity(&capacity, decimal.NewFromFloat(10.25), decimal.NewFromFloat(0.26)); err == nil {
		t.Fatal("expected capacity error for fractional overflow")
	}
}

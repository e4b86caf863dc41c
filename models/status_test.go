package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPurchaseOrderTransitions(t *testing.T) {
	cases := []struct {
		from  PurchaseOrderStatus
		to    PurchaseOrderStatus
		legal bool
	}{
		{PurchaseOrderStatusDraft, PurchaseOrderStatusPendingApproval, true},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusClosed, false},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusApproved, false},
		{PurchaseOrderStatusPendingApproval, PurchaseOrderStatusApproved, true},
		{PurchaseOrderStatusPendingApproval, PurchaseOrderStatusDraft, true},
		{PurchaseOrderStatusApproved, PurchaseOrderStatusSubmitted, true},
		{PurchaseOrderStatusSubmitted, PurchaseOrderStatusConfirmed, true},
		{PurchaseOrderStatusConfirmed, PurchaseOrderStatusOpen, true},
		{PurchaseOrderStatusOpen, PurchaseOrderStatusPartial, true},
		{PurchaseOrderStatusOpen, PurchaseOrderStatusClosed, true},
		{PurchaseOrderStatusPartial, PurchaseOrderStatusReceived, true},
		{PurchaseOrderStatusReceived, PurchaseOrderStatusClosed, true},
		{PurchaseOrderStatusReceived, PurchaseOrderStatusOpen, false},
		{PurchaseOrderStatusClosed, PurchaseOrderStatusOpen, false},
		{PurchaseOrderStatusCancelled, PurchaseOrderStatusDraft, false},
		{PurchaseOrderStatusOnHold, PurchaseOrderStatusOpen, true},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.legal {
			t.Errorf("%s -> %s: expected legal=%v, got %v", tc.from, tc.to, tc.legal, got)
		}
	}
}

func TestPurchaseOrderTransition_ErrorOnIllegal(t *testing.T) {
	// Closing a draft is the canonical illegal move.
	if _, err := PurchaseOrderStatusDraft.Transition(PurchaseOrderStatusClosed); err == nil {
		t.Fatal("expected state error closing a DRAFT purchase order")
	}
	next, err := PurchaseOrderStatusReceived.Transition(PurchaseOrderStatusClosed)
	if err != nil {
		t.Fatalf("closing a RECEIVED purchase order must succeed: %v", err)
	}
	if next != PurchaseOrderStatusClosed {
		t.Fatalf("expected CLOSED, got %s", next)
	}
}

func TestASNTransitions(t *testing.T) {
	cases := []struct {
		from  ASNStatus
		to    ASNStatus
		legal bool
	}{
		{ASNStatusPending, ASNStatusValidated, true},
		{ASNStatusPending, ASNStatusReceiving, false},
		{ASNStatusValidated, ASNStatusScheduled, true},
		{ASNStatusValidated, ASNStatusReceiving, true},
		{ASNStatusScheduled, ASNStatusInTransit, true},
		{ASNStatusScheduled, ASNStatusReceiving, true},
		{ASNStatusInTransit, ASNStatusArrived, true},
		{ASNStatusInTransit, ASNStatusReceiving, false},
		{ASNStatusArrived, ASNStatusReceiving, true},
		{ASNStatusReceiving, ASNStatusReceived, true},
		{ASNStatusReceiving, ASNStatusCancelled, false},
		{ASNStatusReceived, ASNStatusClosed, true},
		{ASNStatusClosed, ASNStatusPending, false},
		{ASNStatusCancelled, ASNStatusValidated, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.legal {
			t.Errorf("%s -> %s: expected legal=%v, got %v", tc.from, tc.to, tc.legal, got)
		}
	}
}

func TestASNCanStartReceiving(t *testing.T) {
	legal := map[ASNStatus]bool{
		ASNStatusPending:   false,
		ASNStatusValidated: true,
		ASNStatusScheduled: true,
		ASNStatusInTransit: false,
		ASNStatusArrived:   true,
		ASNStatusReceiving: false,
		ASNStatusReceived:  false,
		ASNStatusClosed:    false,
		ASNStatusCancelled: false,
	}
	for status, want := range legal {
		if got := status.CanStartReceiving(); got != want {
			t.Errorf("%s: expected CanStartReceiving=%v, got %v", status, want, got)
		}
	}
}

func TestReceiptTransitions(t *testing.T) {
	cases := []struct {
		from  ReceiptStatus
		to    ReceiptStatus
		legal bool
	}{
		{ReceiptStatusScheduled, ReceiptStatusArrived, true},
		{ReceiptStatusScheduled, ReceiptStatusReceiving, true},
		{ReceiptStatusScheduled, ReceiptStatusCompleted, false},
		{ReceiptStatusArrived, ReceiptStatusReceiving, true},
		{ReceiptStatusReceiving, ReceiptStatusCompleted, true},
		{ReceiptStatusReceiving, ReceiptStatusCancelled, true},
		{ReceiptStatusCompleted, ReceiptStatusReceiving, false},
		{ReceiptStatusCancelled, ReceiptStatusReceiving, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.legal {
			t.Errorf("%s -> %s: expected legal=%v, got %v", tc.from, tc.to, tc.legal, got)
		}
	}
}

func TestReceiptStatusMutability(t *testing.T) {
	mutable := map[ReceiptStatus]bool{
		ReceiptStatusScheduled: true,
		ReceiptStatusArrived:   true,
		ReceiptStatusReceiving: true,
		ReceiptStatusCompleted: false,
		ReceiptStatusCancelled: false,
	}
	for status, want := range mutable {
		if got := status.IsMutable(); got != want {
			t.Errorf("%s: expected IsMutable=%v, got %v", status, want, got)
		}
	}
}

func TestReceiptLineDeriveStatus(t *testing.T) {
	cases := []struct {
		name     string
		expected int64
		received int64
		want     ReceiptLineStatus
	}{
		{"untouched", 100, 0, ReceiptLineStatusPending},
		{"partial", 100, 85, ReceiptLineStatusPartial},
		{"complete", 100, 100, ReceiptLineStatusComplete},
		{"over", 100, 110, ReceiptLineStatusOverReceived},
		{"adhoc complete", 0, 5, ReceiptLineStatusComplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := ReceiptLine{
				QuantityExpected: decimal.NewFromInt(tc.expected),
				QuantityReceived: decimal.NewFromInt(tc.received),
			}
			if got := line.DeriveStatus(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestReceiptLineGoodQuantity(t *testing.T) {
	line := ReceiptLine{
		QuantityReceived: decimal.NewFromInt(100),
		QuantityDamaged:  decimal.NewFromInt(5),
		QuantityRejected: decimal.NewFromInt(3),
	}
	if !line.GoodQuantity().Equal(decimal.NewFromInt(92)) {
		t.Fatalf("expected 92, got %s", line.GoodQuantity())
	}

	line.QuantityPutAway = decimal.NewFromInt(40)
	if !line.PutawayRemaining().Equal(decimal.NewFromInt(52)) {
		t.Fatalf("expected 52 remaining, got %s", line.PutawayRemaining())
	}
}

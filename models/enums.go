package models

import (
	"bitbucket.org/mmdatafocus/wms_backend/utils"
)

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft           PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusPendingApproval PurchaseOrderStatus = "PENDING_APPROVAL"
	PurchaseOrderStatusApproved        PurchaseOrderStatus = "APPROVED"
	PurchaseOrderStatusSubmitted       PurchaseOrderStatus = "SUBMITTED"
	PurchaseOrderStatusConfirmed       PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusOpen            PurchaseOrderStatus = "OPEN"
	PurchaseOrderStatusPartial         PurchaseOrderStatus = "PARTIAL"
	PurchaseOrderStatusReceived        PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusClosed          PurchaseOrderStatus = "CLOSED"
	PurchaseOrderStatusOnHold          PurchaseOrderStatus = "ON_HOLD"
	PurchaseOrderStatusCancelled       PurchaseOrderStatus = "CANCELLED"
)

// poTransitions is the closed transition graph for purchase orders.
// OPEN->PARTIAL and PARTIAL->RECEIVED also fire automatically from received
// quantities; CLOSED from OPEN/PARTIAL additionally requires force+reason,
// which the workflow enforces.
var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusDraft:           {PurchaseOrderStatusPendingApproval, PurchaseOrderStatusOnHold, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPendingApproval: {PurchaseOrderStatusApproved, PurchaseOrderStatusDraft, PurchaseOrderStatusOnHold, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusApproved:        {PurchaseOrderStatusSubmitted, PurchaseOrderStatusOnHold, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusSubmitted:       {PurchaseOrderStatusConfirmed, PurchaseOrderStatusOnHold, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusConfirmed:       {PurchaseOrderStatusOpen, PurchaseOrderStatusOnHold, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusOpen:            {PurchaseOrderStatusPartial, PurchaseOrderStatusReceived, PurchaseOrderStatusClosed, PurchaseOrderStatusOnHold, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPartial:         {PurchaseOrderStatusReceived, PurchaseOrderStatusClosed, PurchaseOrderStatusOnHold, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusReceived:        {PurchaseOrderStatusClosed},
	PurchaseOrderStatusOnHold:          {PurchaseOrderStatusDraft, PurchaseOrderStatusPendingApproval, PurchaseOrderStatusApproved, PurchaseOrderStatusSubmitted, PurchaseOrderStatusConfirmed, PurchaseOrderStatusOpen, PurchaseOrderStatusPartial, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusClosed:          {},
	PurchaseOrderStatusCancelled:       {},
}

func (s PurchaseOrderStatus) CanTransition(to PurchaseOrderStatus) bool {
	for _, next := range poTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PurchaseOrderStatus) Transition(to PurchaseOrderStatus) (PurchaseOrderStatus, error) {
	if !s.CanTransition(to) {
		return s, utils.NewStateError("purchase order cannot move from %s to %s", s, to)
	}
	return to, nil
}

func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusClosed || s == PurchaseOrderStatusCancelled
}

type ASNStatus string

const (
	ASNStatusPending   ASNStatus = "PENDING"
	ASNStatusValidated ASNStatus = "VALIDATED"
	ASNStatusScheduled ASNStatus = "SCHEDULED"
	ASNStatusInTransit ASNStatus = "IN_TRANSIT"
	ASNStatusArrived   ASNStatus = "ARRIVED"
	ASNStatusReceiving ASNStatus = "RECEIVING"
	ASNStatusReceived  ASNStatus = "RECEIVED"
	ASNStatusClosed    ASNStatus = "CLOSED"
	ASNStatusCancelled ASNStatus = "CANCELLED"
)

var asnTransitions = map[ASNStatus][]ASNStatus{
	ASNStatusPending:   {ASNStatusValidated, ASNStatusScheduled, ASNStatusCancelled},
	ASNStatusValidated: {ASNStatusScheduled, ASNStatusInTransit, ASNStatusReceiving, ASNStatusCancelled},
	ASNStatusScheduled: {ASNStatusInTransit, ASNStatusArrived, ASNStatusReceiving, ASNStatusCancelled},
	ASNStatusInTransit: {ASNStatusArrived, ASNStatusCancelled},
	ASNStatusArrived:   {ASNStatusReceiving, ASNStatusCancelled},
	ASNStatusReceiving: {ASNStatusReceived, ASNStatusClosed},
	ASNStatusReceived:  {ASNStatusClosed},
	ASNStatusClosed:    {},
	ASNStatusCancelled: {},
}

func (s ASNStatus) CanTransition(to ASNStatus) bool {
	for _, next := range asnTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ASNStatus) Transition(to ASNStatus) (ASNStatus, error) {
	if !s.CanTransition(to) {
		return s, utils.NewStateError("asn cannot move from %s to %s", s, to)
	}
	return to, nil
}

func (s ASNStatus) IsTerminal() bool {
	return s == ASNStatusClosed || s == ASNStatusCancelled
}

// CanStartReceiving lists the states a receipt session may be opened from.
func (s ASNStatus) CanStartReceiving() bool {
	return s == ASNStatusValidated || s == ASNStatusScheduled || s == ASNStatusArrived
}

type ReceiptStatus string

const (
	ReceiptStatusScheduled ReceiptStatus = "SCHEDULED"
	ReceiptStatusArrived   ReceiptStatus = "ARRIVED"
	ReceiptStatusReceiving ReceiptStatus = "RECEIVING"
	ReceiptStatusCompleted ReceiptStatus = "COMPLETED"
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

var receiptTransitions = map[ReceiptStatus][]ReceiptStatus{
	ReceiptStatusScheduled: {ReceiptStatusArrived, ReceiptStatusReceiving, ReceiptStatusCancelled},
	ReceiptStatusArrived:   {ReceiptStatusReceiving, ReceiptStatusCancelled},
	ReceiptStatusReceiving: {ReceiptStatusCompleted, ReceiptStatusCancelled},
	ReceiptStatusCompleted: {},
	ReceiptStatusCancelled: {},
}

func (s ReceiptStatus) CanTransition(to ReceiptStatus) bool {
	for _, next := range receiptTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s ReceiptStatus) Transition(to ReceiptStatus) (ReceiptStatus, error) {
	if !s.CanTransition(to) {
		return s, utils.NewStateError("receipt cannot move from %s to %s", s, to)
	}
	return to, nil
}

func (s ReceiptStatus) IsTerminal() bool {
	return s == ReceiptStatusCompleted || s == ReceiptStatusCancelled
}

// IsMutable reports whether receipt lines may still change.
func (s ReceiptStatus) IsMutable() bool {
	return s == ReceiptStatusScheduled || s == ReceiptStatusArrived || s == ReceiptStatusReceiving
}

// ReceiptLineStatus is always derived from quantities, never set directly.
type ReceiptLineStatus string

const (
	ReceiptLineStatusPending      ReceiptLineStatus = "PENDING"
	ReceiptLineStatusPartial      ReceiptLineStatus = "PARTIAL"
	ReceiptLineStatusComplete     ReceiptLineStatus = "COMPLETE"
	ReceiptLineStatusOverReceived ReceiptLineStatus = "OVER_RECEIVED"
)

type ReceiptType string

const (
	ReceiptTypeASN   ReceiptType = "ASN_RECEIPT"
	ReceiptTypePO    ReceiptType = "PO_RECEIPT"
	ReceiptTypeAdhoc ReceiptType = "ADHOC"
)

type LocationStatus string

const (
	LocationStatusActive   LocationStatus = "ACTIVE"
	LocationStatusBlocked  LocationStatus = "BLOCKED"
	LocationStatusFull     LocationStatus = "FULL"
	LocationStatusInactive LocationStatus = "INACTIVE"
)

type LocationType string

const (
	LocationTypeReceiving LocationType = "RECEIVING"
	LocationTypeStaging   LocationType = "STAGING"
	LocationTypeStorage   LocationType = "STORAGE"
	LocationTypePicking   LocationType = "PICKING"
)

type DockType string

const (
	DockTypeReceiving DockType = "RECEIVING"
	DockTypeShipping  DockType = "SHIPPING"
	DockTypeBoth      DockType = "BOTH"
)

type DockStatus string

const (
	DockStatusAvailable    DockStatus = "AVAILABLE"
	DockStatusOccupied     DockStatus = "OCCUPIED"
	DockStatusOutOfService DockStatus = "OUT_OF_SERVICE"
)

// LedgerEntryType classifies inventory ledger postings.
type LedgerEntryType string

const (
	LedgerEntryTypeReceipt    LedgerEntryType = "RECEIPT"
	LedgerEntryTypePutawayOut LedgerEntryType = "PUTAWAY_OUT"
	LedgerEntryTypePutawayIn  LedgerEntryType = "PUTAWAY_IN"
	LedgerEntryTypeReversal   LedgerEntryType = "REVERSAL"
)

package config

import (
	"os"
	"strconv"
	"strings"
)

// ReceivingSLAMinutes is how long an ASN may stay in RECEIVING before the SLA
// monitor flags it. Flagged sessions are logged and surfaced, never
// auto-cancelled (cancelling would destroy in-flight physical work).
//
// Set via env:
// - RECEIVING_SLA_MINUTES=240
func ReceivingSLAMinutes() int {
	v := strings.TrimSpace(os.Getenv("RECEIVING_SLA_MINUTES"))
	if v == "" {
		return 240
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 240
	}
	return n
}

// StrictLocationCapacity makes putaway reject any posting that would exceed a
// location's configured capacity. When off, the check is skipped entirely.
//
// Set via env:
// - STRICT_LOCATION_CAPACITY=true
func StrictLocationCapacity() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_LOCATION_CAPACITY")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// NearExpiryWarningDays controls the receiving validation window for
// near-expiry lots.
//
// Set via env:
// - NEAR_EXPIRY_WARNING_DAYS=30
func NearExpiryWarningDays() int {
	v := strings.TrimSpace(os.Getenv("NEAR_EXPIRY_WARNING_DAYS"))
	if v == "" {
		return 30
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 30
	}
	return n
}

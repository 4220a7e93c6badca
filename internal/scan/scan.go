// Package scan classifies raw QR payloads against the catalog
// snapshot and the local staging state. Classification is pure: the
// caller decides what to persist based on the outcome.
package scan

import (
	"encoding/json"

	"storescan/internal/models"
)

// Payload is the decoded content of a product QR code.
type Payload struct {
	ID     int     `json:"id"`
	Name   string  `json:"nombre"`
	Price  float64 `json:"precio"`
	Gender string  `json:"genero"`
	Kind   string  `json:"tipo"`
	ImageS string  `json:"imagenS"`
	Image  string  `json:"imagen"`
}

// Outcome kinds for the capture flow.
const (
	KindResolved       = "resolved"
	KindDuplicate      = "duplicated"
	KindNotInInventory = "non_existent"
	KindMalformed      = "malformed"
)

// Outcome is the result of classifying one scan event.
type Outcome struct {
	Kind    string         `json:"kind"`
	Product models.Product `json:"product,omitempty"`
	Raw     Payload        `json:"raw,omitempty"`
}

// ParsePayload decodes a scanned string. A payload that parses but
// carries no product id counts as malformed, same as one that does
// not parse at all.
func ParsePayload(data string) (Payload, bool) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Payload{}, false
	}
	if p.ID == 0 {
		return Payload{}, false
	}
	return p, true
}

// Classify runs the capture-flow decision for a raw payload. The
// duplicate check against the current staged list runs before the
// inventory lookup, so an already-staged product is always reported
// as a duplicate even if it has since left the catalog snapshot.
func Classify(data string, inventory []models.Product, staged []models.StagedCapture) Outcome {
	p, ok := ParsePayload(data)
	if !ok {
		return Outcome{Kind: KindMalformed}
	}

	for _, item := range staged {
		if item.ID == p.ID {
			return Outcome{Kind: KindDuplicate}
		}
	}

	for _, prod := range inventory {
		if prod.ID == p.ID {
			return Outcome{Kind: KindResolved, Product: prod}
		}
	}

	return Outcome{Kind: KindNotInInventory, Raw: p}
}

// Verification-flow outcomes.
const (
	VerifyMatch     = "match"
	VerifyMismatch  = "mismatch"
	VerifyMalformed = "malformed"
)

// ClassifyExpected runs the verification-flow decision: the scanned
// product must equal the single product id the screen is currently
// expecting. Matching is exact, no fuzzy lookup.
func ClassifyExpected(data string, expectedID int) string {
	p, ok := ParsePayload(data)
	if !ok {
		return VerifyMalformed
	}
	if p.ID != expectedID {
		return VerifyMismatch
	}
	return VerifyMatch
}

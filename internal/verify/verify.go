// Package verify tracks order verification: which line items of an
// order have been scanned against store stock, and the confirmed
// transition of the order into a terminal status.
package verify

import (
	"errors"
	"fmt"

	"storescan/internal/gateway"
	"storescan/internal/models"
	"storescan/internal/staging"
)

// Order statuses used by the back office.
const (
	StatusPending    = "pendiente"
	StatusCompleted  = "completada"
	StatusIncomplete = "incompleta"
)

var (
	// ErrNotFullyVerified blocks completing an order before every
	// expected product has been scanned.
	ErrNotFullyVerified = errors.New("order is not fully verified")
	// ErrOrderNotPending blocks terminal transitions on orders that
	// already left the pending state.
	ErrOrderNotPending = errors.New("order is no longer pending")
)

// Gateway is the slice of the back office API the tracker needs.
type Gateway interface {
	UpdateOrderStatus(orderID int, status string) error
	RecordVerification(entry gateway.VerificationEntry) error
}

// Tracker maintains per-order checklists and drives terminal
// transitions.
type Tracker struct {
	staging *staging.Store
	gw      Gateway
}

func NewTracker(st *staging.Store, gw Gateway) *Tracker {
	return &Tracker{staging: st, gw: gw}
}

// RecordScan marks one expected product as verified for an order.
// Idempotent via the checklist union.
func (t *Tracker) RecordScan(orderID, productID int) error {
	return t.staging.AppendToChecklist(orderID, productID)
}

// Checklist returns the verified product ids for an order.
func (t *Tracker) Checklist(orderID int) ([]int, error) {
	return t.staging.LoadChecklist(orderID)
}

// FullyVerified reports whether every distinct product on the order's
// line items appears in the checklist. Extra checklist entries are
// tolerated; per-unit quantities are not tracked, only presence.
func (t *Tracker) FullyVerified(orderID int, lines []models.OrderLine) (bool, error) {
	ids, err := t.staging.LoadChecklist(orderID)
	if err != nil {
		return false, err
	}
	verified := make(map[int]bool, len(ids))
	for _, id := range ids {
		verified[id] = true
	}
	for _, line := range lines {
		if !verified[line.ProductID] {
			return false, nil
		}
	}
	return true, nil
}

// Complete confirms a fully verified order: the back office order
// status moves to completada and a verification record is written,
// then the local checklist is deleted. A failed gateway write leaves
// the checklist intact so the action can be retried.
func (t *Tracker) Complete(orderID int, currentStatus string, lines []models.OrderLine, userID, storeID int, date string) error {
	if currentStatus != StatusPending {
		return ErrOrderNotPending
	}
	ok, err := t.FullyVerified(orderID, lines)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFullyVerified
	}

	if err := t.gw.UpdateOrderStatus(orderID, StatusCompleted); err != nil {
		return fmt.Errorf("complete order %d: %w", orderID, err)
	}
	if err := t.gw.RecordVerification(gateway.VerificationEntry{
		UserID:  userID,
		OrderID: orderID,
		StoreID: storeID,
		Date:    date,
	}); err != nil {
		return fmt.Errorf("complete order %d verification record: %w", orderID, err)
	}

	return t.staging.ClearChecklist(orderID)
}

// MarkIncomplete records that the store cannot fulfil the order.
// Available only while the order is still pending, which also keeps a
// terminal order from being transitioned twice.
func (t *Tracker) MarkIncomplete(orderID int, currentStatus string, userID, storeID int, date string) error {
	if currentStatus != StatusPending {
		return ErrOrderNotPending
	}

	if err := t.gw.UpdateOrderStatus(orderID, StatusIncomplete); err != nil {
		return fmt.Errorf("mark order %d incomplete: %w", orderID, err)
	}
	if err := t.gw.RecordVerification(gateway.VerificationEntry{
		UserID:  userID,
		OrderID: orderID,
		StoreID: storeID,
		Date:    date,
	}); err != nil {
		return fmt.Errorf("mark order %d incomplete verification record: %w", orderID, err)
	}

	return t.staging.ClearChecklist(orderID)
}

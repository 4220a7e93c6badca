// Package capture owns the staged capture list lifecycle: adding
// resolved scans, operator quantity edits, and the confirmation that
// turns the list into committed stock updates and capture records.
package capture

import (
	"errors"
	"fmt"
	"log"

	"storescan/internal/gateway"
	"storescan/internal/models"
	"storescan/internal/staging"
)

// MaxQuantity is the upper bound enforced on counted quantities.
const MaxQuantity = 999

var (
	// ErrNothingStaged rejects a commit with an empty staged list.
	ErrNothingStaged = errors.New("no staged items to commit")
	// ErrQuantityMissing rejects a commit while any item is still at
	// quantity zero.
	ErrQuantityMissing = errors.New("a quantity must be provided for every staged item")
)

// Gateway is the slice of the back office API the reconciler needs.
type Gateway interface {
	UpdateStock(storeID int, updates []gateway.StockUpdate) error
	RecordCaptures(entries []gateway.CaptureEntry) error
}

// Reconciler merges staged scans into committed server state.
type Reconciler struct {
	staging *staging.Store
	gw      Gateway
}

func NewReconciler(st *staging.Store, gw Gateway) *Reconciler {
	return &Reconciler{staging: st, gw: gw}
}

// AddToStaging appends a resolved product to the staged list with its
// counted quantity at zero. Returns false without error when the
// product is already staged; the presence check is repeated here in
// case the list changed between classification and confirmation.
func (r *Reconciler) AddToStaging(p models.Product) (bool, error) {
	items, err := r.staging.LoadCaptures()
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if item.ID == p.ID {
			return false, nil
		}
	}
	items = append(items, models.Staged(p))
	if err := r.staging.SaveCaptures(items); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateQuantity sets the counted quantity of one staged item and
// persists immediately.
func (r *Reconciler) UpdateQuantity(productID, quantity int) error {
	if quantity < 0 || quantity > MaxQuantity {
		return fmt.Errorf("quantity must be between 0 and %d", MaxQuantity)
	}
	items, err := r.staging.LoadCaptures()
	if err != nil {
		return err
	}
	found := false
	for i := range items {
		if items[i].ID == productID {
			items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("product %d is not staged", productID)
	}
	return r.staging.SaveCaptures(items)
}

// RemoveFromStaging drops one staged item and persists immediately.
func (r *Reconciler) RemoveFromStaging(productID int) error {
	items, err := r.staging.LoadCaptures()
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("product %d is not staged", productID)
	}
	return r.staging.SaveCaptures(kept)
}

// Commit validates the staged list and pushes it to the back office:
// one batched stock update, then one batched capture record, then the
// staging list is cleared. The two writes are separate backend calls
// with no rollback between them; on any failure the staged list is
// left untouched so the operator can retry without re-scanning.
func (r *Reconciler) Commit(userID, storeID int, date string) error {
	items, err := r.staging.LoadCaptures()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrNothingStaged
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrQuantityMissing
		}
	}

	updates := make([]gateway.StockUpdate, 0, len(items))
	entries := make([]gateway.CaptureEntry, 0, len(items))
	for _, item := range items {
		updates = append(updates, gateway.StockUpdate{ProductID: item.ID, Quantity: item.Quantity})
		entries = append(entries, gateway.CaptureEntry{
			UserID:    userID,
			ProductID: item.ID,
			StoreID:   storeID,
			Date:      date,
		})
	}

	if err := r.gw.UpdateStock(storeID, updates); err != nil {
		return fmt.Errorf("commit stock update: %w", err)
	}
	if err := r.gw.RecordCaptures(entries); err != nil {
		// Stock levels already landed; the capture records did not.
		// Staging is kept so the retry re-sends both batches.
		return fmt.Errorf("commit capture records: %w", err)
	}

	if err := r.staging.ClearCaptures(); err != nil {
		log.Printf("capture: commit succeeded but staging clear failed: %v", err)
		return err
	}
	return nil
}

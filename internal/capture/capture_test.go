package capture

import (
	"errors"
	"fmt"
	"testing"

	"storescan/internal/gateway"
	"storescan/internal/models"
	"storescan/internal/staging"
	"storescan/internal/testutil"
)

// mockGateway records batch writes and fails on demand.
type mockGateway struct {
	stockErr    error
	capturesErr error

	stockCalls   [][]gateway.StockUpdate
	captureCalls [][]gateway.CaptureEntry
}

func (m *mockGateway) UpdateStock(storeID int, updates []gateway.StockUpdate) error {
	if m.stockErr != nil {
		return m.stockErr
	}
	m.stockCalls = append(m.stockCalls, updates)
	return nil
}

func (m *mockGateway) RecordCaptures(entries []gateway.CaptureEntry) error {
	if m.capturesErr != nil {
		return m.capturesErr
	}
	m.captureCalls = append(m.captureCalls, entries)
	return nil
}

func setup(t *testing.T) (*Reconciler, *staging.Store, *mockGateway) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	st := staging.New(db)
	gw := &mockGateway{}
	return NewReconciler(st, gw), st, gw
}

func product(id int) models.Product {
	return models.Product{ID: id, Name: fmt.Sprintf("Producto %d", id), Price: 100, Quantity: 10}
}

func TestAddToStagingDefaultsQuantityZero(t *testing.T) {
	r, st, _ := setup(t)

	for _, id := range []int{4, 2, 8} {
		added, err := r.AddToStaging(product(id))
		if err != nil {
			t.Fatalf("AddToStaging: %v", err)
		}
		if !added {
			t.Fatalf("product %d should have been added", id)
		}
	}

	items, _ := st.LoadCaptures()
	if len(items) != 3 {
		t.Fatalf("expected 3 staged items, got %d", len(items))
	}
	for i, want := range []int{4, 2, 8} {
		if items[i].ID != want {
			t.Errorf("position %d: expected %d, got %d", i, want, items[i].ID)
		}
		if items[i].Quantity != 0 {
			t.Errorf("product %d: counted quantity should start at 0, got %d", want, items[i].Quantity)
		}
	}
}

func TestAddToStagingSkipsPresent(t *testing.T) {
	r, st, _ := setup(t)

	if _, err := r.AddToStaging(product(4)); err != nil {
		t.Fatalf("AddToStaging: %v", err)
	}
	added, err := r.AddToStaging(product(4))
	if err != nil {
		t.Fatalf("AddToStaging: %v", err)
	}
	if added {
		t.Error("second add of the same product should report not-added")
	}
	items, _ := st.LoadCaptures()
	if len(items) != 1 {
		t.Errorf("expected 1 staged item, got %d", len(items))
	}
}

func TestUpdateQuantity(t *testing.T) {
	r, st, _ := setup(t)
	r.AddToStaging(product(4))

	if err := r.UpdateQuantity(4, 25); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	items, _ := st.LoadCaptures()
	if items[0].Quantity != 25 {
		t.Errorf("expected quantity 25, got %d", items[0].Quantity)
	}

	if err := r.UpdateQuantity(4, -1); err == nil {
		t.Error("negative quantity should be rejected")
	}
	if err := r.UpdateQuantity(4, MaxQuantity+1); err == nil {
		t.Error("quantity above the cap should be rejected")
	}
	if err := r.UpdateQuantity(99, 5); err == nil {
		t.Error("updating an unstaged product should be rejected")
	}
}

func TestRemoveFromStaging(t *testing.T) {
	r, st, _ := setup(t)
	r.AddToStaging(product(1))
	r.AddToStaging(product(2))

	if err := r.RemoveFromStaging(1); err != nil {
		t.Fatalf("RemoveFromStaging: %v", err)
	}
	items, _ := st.LoadCaptures()
	if len(items) != 1 || items[0].ID != 2 {
		t.Errorf("expected only product 2 staged, got %+v", items)
	}

	if err := r.RemoveFromStaging(1); err == nil {
		t.Error("removing an absent product should be rejected")
	}
}

func TestCommitRejectsEmptyList(t *testing.T) {
	r, _, gw := setup(t)

	if err := r.Commit(7, 3, "2026-08-31"); !errors.Is(err, ErrNothingStaged) {
		t.Errorf("expected ErrNothingStaged, got %v", err)
	}
	if len(gw.stockCalls) != 0 {
		t.Error("empty commit must not reach the gateway")
	}
}

func TestCommitRejectsZeroQuantity(t *testing.T) {
	r, st, gw := setup(t)
	r.AddToStaging(product(1))
	r.AddToStaging(product(2))
	r.UpdateQuantity(1, 5)
	// product 2 left at quantity 0

	err := r.Commit(7, 3, "2026-08-31")
	if !errors.Is(err, ErrQuantityMissing) {
		t.Fatalf("expected ErrQuantityMissing, got %v", err)
	}
	if len(gw.stockCalls) != 0 || len(gw.captureCalls) != 0 {
		t.Error("validation failure must not reach the gateway")
	}
	items, _ := st.LoadCaptures()
	if len(items) != 2 {
		t.Errorf("rejected commit must leave staging unchanged, got %d items", len(items))
	}
}

func TestCommitSuccessClearsStaging(t *testing.T) {
	r, st, gw := setup(t)
	r.AddToStaging(product(1))
	r.AddToStaging(product(2))
	r.UpdateQuantity(1, 5)
	r.UpdateQuantity(2, 12)

	if err := r.Commit(7, 3, "2026-08-31"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(gw.stockCalls) != 1 || len(gw.captureCalls) != 1 {
		t.Fatalf("expected one stock batch and one capture batch, got %d/%d", len(gw.stockCalls), len(gw.captureCalls))
	}
	updates := gw.stockCalls[0]
	if len(updates) != 2 || updates[0].ProductID != 1 || updates[0].Quantity != 5 || updates[1].Quantity != 12 {
		t.Errorf("unexpected stock batch: %+v", updates)
	}
	entries := gw.captureCalls[0]
	if len(entries) != 2 || entries[0].UserID != 7 || entries[0].StoreID != 3 || entries[0].Date != "2026-08-31" {
		t.Errorf("unexpected capture batch: %+v", entries)
	}

	items, _ := st.LoadCaptures()
	if len(items) != 0 {
		t.Errorf("staging should be empty after a successful commit, got %d items", len(items))
	}
}

func TestCommitStockFailurePreservesStaging(t *testing.T) {
	r, st, gw := setup(t)
	r.AddToStaging(product(1))
	r.UpdateQuantity(1, 5)
	gw.stockErr = errors.New("backend down")

	if err := r.Commit(7, 3, "2026-08-31"); err == nil {
		t.Fatal("expected commit to fail")
	}
	items, _ := st.LoadCaptures()
	if len(items) != 1 {
		t.Errorf("failed commit must preserve staging, got %d items", len(items))
	}
}

func TestCommitPartialFailurePreservesStaging(t *testing.T) {
	// The stock update and the capture record are two separate
	// backend calls with no rollback. When the second fails, stock
	// has already moved but staging is kept so the operator can
	// retry the whole batch.
	r, st, gw := setup(t)
	r.AddToStaging(product(1))
	r.UpdateQuantity(1, 5)
	gw.capturesErr = errors.New("backend down")

	if err := r.Commit(7, 3, "2026-08-31"); err == nil {
		t.Fatal("expected commit to fail")
	}
	if len(gw.stockCalls) != 1 {
		t.Errorf("stock update should have been issued, got %d calls", len(gw.stockCalls))
	}
	items, _ := st.LoadCaptures()
	if len(items) != 1 {
		t.Errorf("partial failure must preserve staging, got %d items", len(items))
	}

	// Retry after the backend recovers re-sends both batches.
	gw.capturesErr = nil
	if err := r.Commit(7, 3, "2026-08-31"); err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if len(gw.stockCalls) != 2 || len(gw.captureCalls) != 1 {
		t.Errorf("retry should re-send both batches, got %d/%d", len(gw.stockCalls), len(gw.captureCalls))
	}
	items, _ = st.LoadCaptures()
	if len(items) != 0 {
		t.Errorf("staging should be empty after the retry, got %d items", len(items))
	}
}

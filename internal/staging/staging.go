// Package staging is the device-local persistence layer for scanned
// but unsubmitted work: the capture staging list and the per-order
// verification checklists. Values are JSON blobs in a single key/value
// table, one key per concern, so a write always replaces the whole
// value atomically.
package staging

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"storescan/internal/models"
)

const capturesKey = "Captures"

func checklistKey(orderID int) string {
	return fmt.Sprintf("Order_%d", orderID)
}

type capturesValue struct {
	Products []models.StagedCapture `json:"products"`
}

type checklistValue struct {
	IDs []int `json:"ids"`
}

// Store reads and writes the staging table. It is the only component
// that touches persisted staging keys.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM staging WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("staging read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) put(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO staging (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	if err != nil {
		return fmt.Errorf("staging write %q: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM staging WHERE key = ?", key); err != nil {
		return fmt.Errorf("staging delete %q: %w", key, err)
	}
	return nil
}

// LoadCaptures returns the staged capture list in insertion order.
// A missing key is an empty list, never an error.
func (s *Store) LoadCaptures() ([]models.StagedCapture, error) {
	raw, ok, err := s.get(capturesKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.StagedCapture{}, nil
	}
	var v capturesValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("staging decode %q: %w", capturesKey, err)
	}
	if v.Products == nil {
		return []models.StagedCapture{}, nil
	}
	return v.Products, nil
}

// SaveCaptures overwrites the whole staged list in one write.
func (s *Store) SaveCaptures(items []models.StagedCapture) error {
	if items == nil {
		items = []models.StagedCapture{}
	}
	raw, err := json.Marshal(capturesValue{Products: items})
	if err != nil {
		return fmt.Errorf("staging encode %q: %w", capturesKey, err)
	}
	return s.put(capturesKey, string(raw))
}

// ClearCaptures removes the staged list key entirely.
func (s *Store) ClearCaptures() error {
	return s.delete(capturesKey)
}

// LoadChecklist returns the verified product ids recorded for an
// order. A missing key is an empty checklist.
func (s *Store) LoadChecklist(orderID int) ([]int, error) {
	raw, ok, err := s.get(checklistKey(orderID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []int{}, nil
	}
	var v checklistValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("staging decode %q: %w", checklistKey(orderID), err)
	}
	if v.IDs == nil {
		return []int{}, nil
	}
	return v.IDs, nil
}

// AppendToChecklist adds a product id to an order's checklist.
// Appending an id already present is a no-op.
func (s *Store) AppendToChecklist(orderID, productID int) error {
	ids, err := s.LoadChecklist(orderID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == productID {
			return nil
		}
	}
	ids = append(ids, productID)
	raw, err := json.Marshal(checklistValue{IDs: ids})
	if err != nil {
		return fmt.Errorf("staging encode %q: %w", checklistKey(orderID), err)
	}
	return s.put(checklistKey(orderID), string(raw))
}

// ClearChecklist removes an order's checklist key.
func (s *Store) ClearChecklist(orderID int) error {
	return s.delete(checklistKey(orderID))
}

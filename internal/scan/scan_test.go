package scan

import (
	"fmt"
	"testing"

	"storescan/internal/models"
)

func payload(id int) string {
	return fmt.Sprintf(`{"id":%d,"nombre":"Producto %d","precio":100}`, id, id)
}

func TestClassifyResolved(t *testing.T) {
	inventory := []models.Product{{ID: 1, Name: "Gorra", Quantity: 12}, {ID: 2, Name: "Playera", Quantity: 4}}

	out := Classify(payload(2), inventory, nil)
	if out.Kind != KindResolved {
		t.Fatalf("expected resolved, got %s", out.Kind)
	}
	if out.Product.ID != 2 || out.Product.Quantity != 4 {
		t.Errorf("expected catalog product with current quantity, got %+v", out.Product)
	}
}

func TestClassifyMalformed(t *testing.T) {
	inventory := []models.Product{{ID: 1}}
	cases := map[string]string{
		"not json":      "PRD-000123",
		"empty":         "",
		"array":         "[1,2,3]",
		"no id field":   `{"nombre":"Gorra"}`,
		"zero id":       `{"id":0,"nombre":"Gorra"}`,
		"wrong id type": `{"id":"abc"}`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			out := Classify(data, inventory, nil)
			if out.Kind != KindMalformed {
				t.Errorf("expected malformed for %q, got %s", data, out.Kind)
			}
		})
	}
}

func TestClassifyDuplicateBeforeInventory(t *testing.T) {
	staged := []models.StagedCapture{{ID: 5, Name: "Sudadera"}}

	// Product 5 is staged but absent from the snapshot. Duplicate
	// still wins over the inventory lookup.
	out := Classify(payload(5), nil, staged)
	if out.Kind != KindDuplicate {
		t.Errorf("expected duplicated, got %s", out.Kind)
	}

	// And with the product in inventory too, duplicate still wins.
	out = Classify(payload(5), []models.Product{{ID: 5}}, staged)
	if out.Kind != KindDuplicate {
		t.Errorf("expected duplicated, got %s", out.Kind)
	}
}

func TestClassifyNotInInventoryCarriesRawFields(t *testing.T) {
	out := Classify(`{"id":99,"nombre":"Chamarra","precio":899}`, []models.Product{{ID: 1}}, nil)
	if out.Kind != KindNotInInventory {
		t.Fatalf("expected non_existent, got %s", out.Kind)
	}
	if out.Raw.ID != 99 || out.Raw.Name != "Chamarra" || out.Raw.Price != 899 {
		t.Errorf("raw payload not carried through: %+v", out.Raw)
	}
}

func TestClassifyExpected(t *testing.T) {
	if got := ClassifyExpected(payload(4), 4); got != VerifyMatch {
		t.Errorf("expected match, got %s", got)
	}
	if got := ClassifyExpected(payload(4), 5); got != VerifyMismatch {
		t.Errorf("expected mismatch, got %s", got)
	}
	if got := ClassifyExpected("garbage", 5); got != VerifyMalformed {
		t.Errorf("expected malformed, got %s", got)
	}
}

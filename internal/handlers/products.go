package handlers

import (
	"net/http"
	"strconv"

	"storescan/internal/models"
	"storescan/internal/response"
)

// HandleProducts serves the store inventory snapshot. The snapshot is
// fetched from the back office on first use and on ?refresh=true; scan
// classification reads the same snapshot.
func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	_, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	products, err := h.inventorySnapshot(store.ID, refresh)
	if err != nil {
		response.Err(w, "failed to load inventory", http.StatusBadGateway)
		return
	}
	response.JSONMeta(w, products, len(products), 1, len(products))
}

// HandleAddProduct registers a product in this store's inventory via
// the back office, with an optional image upload passed through.
func (h *Handler) HandleAddProduct(w http.ResponseWriter, r *http.Request) {
	_, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		response.Err(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	productID, err := strconv.Atoi(r.FormValue("id_producto"))
	if err != nil || productID <= 0 {
		response.Err(w, "id_producto must be a positive integer", http.StatusBadRequest)
		return
	}
	quantity, _ := strconv.Atoi(r.FormValue("cantidad"))
	if quantity < 0 {
		response.Err(w, "cantidad must be non-negative", http.StatusBadRequest)
		return
	}

	filename := ""
	file, hdr, err := r.FormFile("imagen")
	if err == nil {
		defer file.Close()
		filename = hdr.Filename
	}

	if err := h.GW.AddStoreProduct(productID, store.ID, quantity, filename, file); err != nil {
		response.Err(w, "failed to add product", http.StatusBadGateway)
		return
	}

	// Snapshot is stale now; next read refetches.
	h.invalidateSnapshot()
	response.JSON(w, map[string]string{"status": "added"})
}

// inventorySnapshot returns the cached store inventory, refetching
// from the gateway when empty or when forced.
func (h *Handler) inventorySnapshot(storeID int, refresh bool) ([]models.Product, error) {
	h.mu.RLock()
	cached := h.products
	h.mu.RUnlock()
	if len(cached) > 0 && !refresh {
		return cached, nil
	}

	products, err := h.GW.StoreInventory(storeID)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.products = products
	h.mu.Unlock()
	return products, nil
}

func (h *Handler) invalidateSnapshot() {
	h.mu.Lock()
	h.products = nil
	h.mu.Unlock()
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storescan/internal/audit"
	"storescan/internal/capture"
	"storescan/internal/response"
	"storescan/internal/websocket"
)

// HandleStagedCaptures serves the current staged capture list.
func (h *Handler) HandleStagedCaptures(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.currentUser(w, r); !ok {
		return
	}
	items, err := h.Staging.LoadCaptures()
	if err != nil {
		response.Err(w, "failed to load staged captures", http.StatusInternalServerError)
		return
	}
	response.JSONMeta(w, items, len(items), 1, len(items))
}

// HandleStageProduct stages a product by id, bypassing the scanner.
// The product must exist in the inventory snapshot.
func (h *Handler) HandleStageProduct(w http.ResponseWriter, r *http.Request) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID int `json:"id_producto"`
	}
	if err := response.DecodeBody(r, &req); err != nil || req.ProductID <= 0 {
		response.Err(w, "id_producto must be a positive integer", http.StatusBadRequest)
		return
	}

	inventory, err := h.inventorySnapshot(store.ID, false)
	if err != nil {
		response.Err(w, "failed to load inventory", http.StatusBadGateway)
		return
	}
	for _, p := range inventory {
		if p.ID == req.ProductID {
			added, err := h.Reconciler.AddToStaging(p)
			if err != nil {
				response.Err(w, "failed to stage product", http.StatusInternalServerError)
				return
			}
			if !added {
				response.Err(w, "product is already staged", http.StatusConflict)
				return
			}
			audit.Log(h.DB, h.Hub, user.Email, audit.ActionStage, "capture",
				strconv.Itoa(p.ID), fmt.Sprintf("Staged %s manually", p.Name))
			response.JSON(w, map[string]string{"status": "staged"})
			return
		}
	}
	response.Err(w, "product not in store inventory", http.StatusNotFound)
}

// HandleUpdateCapture sets the counted quantity of one staged item.
func (h *Handler) HandleUpdateCapture(w http.ResponseWriter, r *http.Request, productID int) {
	if _, _, ok := h.currentUser(w, r); !ok {
		return
	}
	var req struct {
		Quantity int `json:"cantidad"`
	}
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.Reconciler.UpdateQuantity(productID, req.Quantity); err != nil {
		if strings.Contains(err.Error(), "not staged") {
			response.Err(w, err.Error(), http.StatusNotFound)
		} else {
			response.Err(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	response.JSON(w, map[string]string{"status": "updated"})
}

// HandleRemoveCapture drops one staged item.
func (h *Handler) HandleRemoveCapture(w http.ResponseWriter, r *http.Request, productID int) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.Reconciler.RemoveFromStaging(productID); err != nil {
		response.Err(w, err.Error(), http.StatusNotFound)
		return
	}
	audit.Log(h.DB, h.Hub, user.Email, audit.ActionUnstage, "capture",
		strconv.Itoa(productID), fmt.Sprintf("Removed product %d from staging", productID))
	response.JSON(w, map[string]string{"status": "removed"})
}

// HandleCommit pushes the staged list to the back office and clears it
// on success.
func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	err := h.Reconciler.Commit(user.ID, store.ID, today())
	switch {
	case errors.Is(err, capture.ErrNothingStaged):
		response.Err(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, capture.ErrQuantityMissing):
		response.Err(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		response.Err(w, "commit failed, staged captures were kept", http.StatusBadGateway)
		return
	}

	audit.Log(h.DB, h.Hub, user.Email, audit.ActionCommit, "capture", "",
		"Committed staged captures")
	h.invalidateSnapshot()
	h.Hub.Broadcast(websocket.Event{Type: "capture_committed"})
	response.JSON(w, map[string]string{"status": "committed"})
}

// HandleCaptureHistory lists this store's committed capture records.
func (h *Handler) HandleCaptureHistory(w http.ResponseWriter, r *http.Request) {
	_, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	records, err := h.GW.Captures(store.ID)
	if err != nil {
		response.Err(w, "failed to load capture history", http.StatusBadGateway)
		return
	}
	response.JSONMeta(w, records, len(records), 1, len(records))
}

// HandleCaptureExport exports the capture history as CSV or Excel.
func (h *Handler) HandleCaptureExport(w http.ResponseWriter, r *http.Request) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	records, err := h.GW.Captures(store.ID)
	if err != nil {
		response.Err(w, "failed to load capture history", http.StatusBadGateway)
		return
	}

	headers := []string{"ID", "Fecha", "Producto", "Usuario", "ID Producto"}
	var data [][]string
	for _, rec := range records {
		data = append(data, []string{
			strconv.Itoa(rec.ID), rec.Date, rec.Product.Name,
			rec.User.Name + " " + rec.User.PaternalName, strconv.Itoa(rec.ProductID),
		})
	}

	audit.Log(h.DB, h.Hub, user.Email, audit.ActionExport, "capture", "",
		fmt.Sprintf("Exported %d capture records as %s", len(data), format))

	if format == "xlsx" {
		ExportExcel(w, "Capturas", headers, data)
	} else {
		ExportCSV(w, "capturas.csv", headers, data)
	}
}

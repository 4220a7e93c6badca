package handlers

import (
	"fmt"
	"net/http"

	"storescan/internal/audit"
	"storescan/internal/response"
	"storescan/internal/scan"
	"storescan/internal/websocket"
)

// HandleScan classifies a raw scanner payload against the inventory
// snapshot and the staged list. Resolved products are staged
// immediately with a counted quantity of zero.
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Data string `json:"data"`
	}
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid request body", http.StatusBadRequest)
		return
	}

	inventory, err := h.inventorySnapshot(store.ID, false)
	if err != nil {
		response.Err(w, "failed to load inventory", http.StatusBadGateway)
		return
	}
	staged, err := h.Staging.LoadCaptures()
	if err != nil {
		response.Err(w, "failed to load staged captures", http.StatusInternalServerError)
		return
	}

	h.Window.Cancel()
	outcome := scan.Classify(req.Data, inventory, staged)

	if outcome.Kind == scan.KindResolved {
		if _, err := h.Reconciler.AddToStaging(outcome.Product); err != nil {
			response.Err(w, "failed to stage product", http.StatusInternalServerError)
			return
		}
		audit.Log(h.DB, h.Hub, user.Email, audit.ActionStage, "capture",
			fmt.Sprintf("%d", outcome.Product.ID),
			fmt.Sprintf("Staged %s from scan", outcome.Product.Name))
	}

	h.Hub.Broadcast(websocket.Event{Type: "scan_" + outcome.Kind, ID: outcome.Product.ID})
	response.JSON(w, outcome)
}

// HandleScanArm opens the scan window. If no scan cancels it in time,
// connected terminals are told the attempt timed out.
func (h *Handler) HandleScanArm(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.currentUser(w, r); !ok {
		return
	}
	h.Window.Arm(h.ScanWindow, func() {
		h.Hub.Broadcast(websocket.Event{Type: "scan_timeout"})
	})
	response.JSON(w, map[string]string{"status": "armed"})
}

// HandleScanDisarm cancels a pending scan window.
func (h *Handler) HandleScanDisarm(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.currentUser(w, r); !ok {
		return
	}
	h.Window.Cancel()
	response.JSON(w, map[string]string{"status": "disarmed"})
}

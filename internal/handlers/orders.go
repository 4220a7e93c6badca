package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"storescan/internal/audit"
	"storescan/internal/models"
	"storescan/internal/response"
	"storescan/internal/scan"
	"storescan/internal/verify"
	"storescan/internal/websocket"
)

// HandleOrders lists the orders assigned to this store.
func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	_, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	orders, err := h.GW.StoreOrders(store.ID)
	if err != nil {
		response.Err(w, "failed to load orders", http.StatusBadGateway)
		return
	}
	response.JSONMeta(w, orders, len(orders), 1, len(orders))
}

// orderLineView is one expected line decorated with its local
// verification state.
type orderLineView struct {
	models.OrderLine
	Verified bool `json:"verified"`
}

// HandleOrderDetails serves the expected lines of one order together
// with the local checklist state.
func (h *Handler) HandleOrderDetails(w http.ResponseWriter, r *http.Request, orderID int) {
	if _, _, ok := h.currentUser(w, r); !ok {
		return
	}
	lines, err := h.GW.OrderDetails(orderID)
	if err != nil {
		response.Err(w, "failed to load order details", http.StatusBadGateway)
		return
	}
	checklist, err := h.Tracker.Checklist(orderID)
	if err != nil {
		response.Err(w, "failed to load checklist", http.StatusInternalServerError)
		return
	}
	verified := make(map[int]bool, len(checklist))
	for _, id := range checklist {
		verified[id] = true
	}

	views := make([]orderLineView, 0, len(lines))
	for _, line := range lines {
		views = append(views, orderLineView{OrderLine: line, Verified: verified[line.ProductID]})
	}
	fully, err := h.Tracker.FullyVerified(orderID, lines)
	if err != nil {
		response.Err(w, "failed to evaluate checklist", http.StatusInternalServerError)
		return
	}

	response.JSON(w, map[string]interface{}{
		"lines":          views,
		"fully_verified": fully,
	})
}

// HandleOrderScan classifies a scan against the product the screen is
// expecting and records a match on the order's checklist.
func (h *Handler) HandleOrderScan(w http.ResponseWriter, r *http.Request, orderID int) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Data      string `json:"data"`
		ProductID int    `json:"id_producto"`
	}
	if err := response.DecodeBody(r, &req); err != nil || req.ProductID <= 0 {
		response.Err(w, "id_producto must be a positive integer", http.StatusBadRequest)
		return
	}

	h.Window.Cancel()
	result := scan.ClassifyExpected(req.Data, req.ProductID)
	if result == scan.VerifyMatch {
		if err := h.Tracker.RecordScan(orderID, req.ProductID); err != nil {
			response.Err(w, "failed to record verification", http.StatusInternalServerError)
			return
		}
		audit.Log(h.DB, h.Hub, user.Email, audit.ActionVerify, "order",
			strconv.Itoa(orderID), fmt.Sprintf("Verified product %d on order %d", req.ProductID, orderID))
	}

	h.Hub.Broadcast(websocket.Event{Type: "order_scan_" + result, ID: orderID})
	response.JSON(w, map[string]string{"result": result})
}

// HandleOrderComplete marks a fully verified pending order as
// completada on the back office.
func (h *Handler) HandleOrderComplete(w http.ResponseWriter, r *http.Request, orderID int) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	order, found, err := h.findOrder(store.ID, orderID)
	if err != nil {
		response.Err(w, "failed to load orders", http.StatusBadGateway)
		return
	}
	if !found {
		response.Err(w, "order not found for this store", http.StatusNotFound)
		return
	}
	lines, err := h.GW.OrderDetails(orderID)
	if err != nil {
		response.Err(w, "failed to load order details", http.StatusBadGateway)
		return
	}

	err = h.Tracker.Complete(orderID, order.Status, lines, user.ID, store.ID, today())
	switch {
	case errors.Is(err, verify.ErrOrderNotPending):
		response.Err(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, verify.ErrNotFullyVerified):
		response.Err(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		response.Err(w, "completion failed, checklist was kept", http.StatusBadGateway)
		return
	}

	audit.Log(h.DB, h.Hub, user.Email, audit.ActionComplete, "order",
		strconv.Itoa(orderID), fmt.Sprintf("Order %d marked completada", orderID))
	response.JSON(w, map[string]string{"status": verify.StatusCompleted})
}

// HandleOrderIncomplete marks a pending order as incompleta on the
// back office without requiring full verification.
func (h *Handler) HandleOrderIncomplete(w http.ResponseWriter, r *http.Request, orderID int) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	order, found, err := h.findOrder(store.ID, orderID)
	if err != nil {
		response.Err(w, "failed to load orders", http.StatusBadGateway)
		return
	}
	if !found {
		response.Err(w, "order not found for this store", http.StatusNotFound)
		return
	}

	err = h.Tracker.MarkIncomplete(orderID, order.Status, user.ID, store.ID, today())
	switch {
	case errors.Is(err, verify.ErrOrderNotPending):
		response.Err(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		response.Err(w, "transition failed, checklist was kept", http.StatusBadGateway)
		return
	}

	audit.Log(h.DB, h.Hub, user.Email, audit.ActionIncomplete, "order",
		strconv.Itoa(orderID), fmt.Sprintf("Order %d marked incompleta", orderID))
	response.JSON(w, map[string]string{"status": verify.StatusIncomplete})
}

// HandleVerificationHistory lists this store's verification records.
func (h *Handler) HandleVerificationHistory(w http.ResponseWriter, r *http.Request) {
	_, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	records, err := h.GW.Verifications(store.ID)
	if err != nil {
		response.Err(w, "failed to load verification history", http.StatusBadGateway)
		return
	}
	response.JSONMeta(w, records, len(records), 1, len(records))
}

// HandleVerificationExport exports the verification history as CSV or
// Excel.
func (h *Handler) HandleVerificationExport(w http.ResponseWriter, r *http.Request) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	records, err := h.GW.Verifications(store.ID)
	if err != nil {
		response.Err(w, "failed to load verification history", http.StatusBadGateway)
		return
	}

	headers := []string{"ID", "Fecha", "Orden", "Usuario", "Estado"}
	var data [][]string
	for _, rec := range records {
		data = append(data, []string{
			strconv.Itoa(rec.ID), rec.Date, strconv.Itoa(rec.OrderID),
			rec.User.Name + " " + rec.User.PaternalName, rec.Order.Status,
		})
	}

	audit.Log(h.DB, h.Hub, user.Email, audit.ActionExport, "order", "",
		fmt.Sprintf("Exported %d verification records as %s", len(data), format))

	if format == "xlsx" {
		ExportExcel(w, "Verificaciones", headers, data)
	} else {
		ExportCSV(w, "verificaciones.csv", headers, data)
	}
}

// HandleAuditLog serves the newest local audit entries.
func (h *Handler) HandleAuditLog(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.currentUser(w, r); !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := audit.Recent(h.DB, limit)
	if err != nil {
		response.Err(w, "failed to load audit log", http.StatusInternalServerError)
		return
	}
	response.JSONMeta(w, entries, len(entries), 1, len(entries))
}

func (h *Handler) findOrder(storeID, orderID int) (models.Order, bool, error) {
	orders, err := h.GW.StoreOrders(storeID)
	if err != nil {
		return models.Order{}, false, err
	}
	for _, o := range orders {
		if o.ID == orderID {
			return o, true, nil
		}
	}
	return models.Order{}, false, nil
}

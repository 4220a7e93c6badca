package handlers

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"storescan/internal/capture"
	"storescan/internal/gateway"
	"storescan/internal/models"
	"storescan/internal/scan"
	"storescan/internal/session"
	"storescan/internal/staging"
	"storescan/internal/verify"
	"storescan/internal/websocket"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	DB         *sql.DB
	Hub        *websocket.Hub
	GW         *gateway.Client
	Sessions   *session.Manager
	Staging    *staging.Store
	Reconciler *capture.Reconciler
	Tracker    *verify.Tracker
	Window     *scan.Window
	ScanWindow time.Duration

	// snapshot of the store inventory, refreshed from the gateway.
	mu       sync.RWMutex
	products []models.Product
}

// New wires a Handler from its dependencies.
func New(db *sql.DB, hub *websocket.Hub, gw *gateway.Client, sessions *session.Manager,
	st *staging.Store, rec *capture.Reconciler, tr *verify.Tracker,
	window *scan.Window, scanWindow time.Duration) *Handler {
	return &Handler{
		DB:         db,
		Hub:        hub,
		GW:         gw,
		Sessions:   sessions,
		Staging:    st,
		Reconciler: rec,
		Tracker:    tr,
		Window:     window,
		ScanWindow: scanWindow,
	}
}

// currentUser resolves the authenticated user and store, or writes a
// 401 and reports false.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (models.User, models.Store, bool) {
	user, store, ok := h.Sessions.Get(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return models.User{}, models.Store{}, false
	}
	return user, store, true
}

func today() string {
	return time.Now().Format("2006-01-02")
}

package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storescan/internal/capture"
	"storescan/internal/config"
	"storescan/internal/gateway"
	"storescan/internal/handlers"
	"storescan/internal/scan"
	"storescan/internal/session"
	"storescan/internal/staging"
	"storescan/internal/verify"
	"storescan/internal/websocket"
)

func main() {
	configPath := flag.String("config", "storescan.yaml", "Path to YAML config file")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Config load failed:", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *port != 0 {
		cfg.Port = *port
	}

	if err := initDB(cfg.DBPath); err != nil {
		log.Fatal("DB init failed:", err)
	}

	hub := websocket.NewHub()
	gw := gateway.New(cfg.GatewayURL)
	st := staging.New(db)
	sessions := session.NewManager(db, gw, st, time.Duration(cfg.SessionHours)*time.Hour)
	h := handlers.New(db, hub, gw, sessions,
		st, capture.NewReconciler(st, gw), verify.NewTracker(st, gw),
		scan.NewWindow(), time.Duration(cfg.ScanWindowSeconds)*time.Second)

	// Drop expired sessions periodically.
	go func() {
		for {
			time.Sleep(time.Hour)
			if _, err := db.Exec("DELETE FROM sessions WHERE expires_at < ?",
				time.Now().Format(time.RFC3339)); err != nil {
				log.Printf("session cleanup error: %v", err)
			}
		}
	}()

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleWebSocket(hub, w, r)
	})

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		// Session
		case path == "login" && r.Method == "POST":
			h.HandleLogin(w, r)
		case path == "logout" && r.Method == "POST":
			h.HandleLogout(w, r)
		case path == "session" && r.Method == "GET":
			h.HandleSession(w, r)
		case path == "pin" && r.Method == "POST":
			h.HandleSetPIN(w, r)
		case path == "unlock" && r.Method == "POST":
			h.HandleUnlock(w, r)

		// Inventory snapshot
		case path == "products" && r.Method == "GET":
			h.HandleProducts(w, r)
		case path == "products" && r.Method == "POST":
			h.HandleAddProduct(w, r)

		// Scan events
		case path == "scan" && r.Method == "POST":
			h.HandleScan(w, r)
		case path == "scan/arm" && r.Method == "POST":
			h.HandleScanArm(w, r)
		case path == "scan/disarm" && r.Method == "POST":
			h.HandleScanDisarm(w, r)

		// Staged captures
		case path == "captures" && r.Method == "GET":
			h.HandleStagedCaptures(w, r)
		case path == "captures" && r.Method == "POST":
			h.HandleStageProduct(w, r)
		case path == "captures/commit" && r.Method == "POST":
			h.HandleCommit(w, r)
		case path == "captures/history" && r.Method == "GET":
			h.HandleCaptureHistory(w, r)
		case path == "captures/export" && r.Method == "GET":
			h.HandleCaptureExport(w, r)
		case parts[0] == "captures" && len(parts) == 2 && r.Method == "PUT":
			withID(w, parts[1], func(id int) { h.HandleUpdateCapture(w, r, id) })
		case parts[0] == "captures" && len(parts) == 2 && r.Method == "DELETE":
			withID(w, parts[1], func(id int) { h.HandleRemoveCapture(w, r, id) })

		// Orders
		case path == "orders" && r.Method == "GET":
			h.HandleOrders(w, r)
		case parts[0] == "orders" && len(parts) == 3 && parts[2] == "details" && r.Method == "GET":
			withID(w, parts[1], func(id int) { h.HandleOrderDetails(w, r, id) })
		case parts[0] == "orders" && len(parts) == 3 && parts[2] == "scan" && r.Method == "POST":
			withID(w, parts[1], func(id int) { h.HandleOrderScan(w, r, id) })
		case parts[0] == "orders" && len(parts) == 3 && parts[2] == "complete" && r.Method == "POST":
			withID(w, parts[1], func(id int) { h.HandleOrderComplete(w, r, id) })
		case parts[0] == "orders" && len(parts) == 3 && parts[2] == "incomplete" && r.Method == "POST":
			withID(w, parts[1], func(id int) { h.HandleOrderIncomplete(w, r, id) })

		// Verification history
		case path == "verifications" && r.Method == "GET":
			h.HandleVerificationHistory(w, r)
		case path == "verifications/export" && r.Method == "GET":
			h.HandleVerificationExport(w, r)

		// Audit
		case path == "audit" && r.Method == "GET":
			h.HandleAuditLog(w, r)

		default:
			http.NotFound(w, r)
		}
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("storescan listening on %s (gateway %s)", addr, cfg.GatewayURL)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func withID(w http.ResponseWriter, raw string, fn func(id int)) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	fn(id)
}

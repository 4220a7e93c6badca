package audit

import (
	"database/sql"
	"log"

	"storescan/internal/websocket"
)

// Action constants for the local audit trail.
const (
	ActionScan       = "scan"
	ActionStage      = "stage"
	ActionUnstage    = "unstage"
	ActionCommit     = "commit"
	ActionVerify     = "verify"
	ActionComplete   = "complete"
	ActionIncomplete = "incomplete"
	ActionExport     = "export"
	ActionLogin      = "login"
	ActionLogout     = "logout"
)

// Entry is one row of the local audit trail.
type Entry struct {
	ID        int    `json:"id"`
	Module    string `json:"module"`
	Action    string `json:"action"`
	RecordID  string `json:"record_id"`
	Username  string `json:"username"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// Log records an audit entry and notifies connected terminals. Audit
// failures are logged, never surfaced to the operation that caused them.
func Log(db *sql.DB, hub *websocket.Hub, username, action, module, recordID, summary string) {
	_, err := db.Exec("INSERT INTO audit_log (username, action, module, record_id, summary) VALUES (?, ?, ?, ?, ?)",
		username, action, module, recordID, summary)
	if err != nil {
		log.Printf("audit log error: %v", err)
	}
	if hub != nil {
		hub.Broadcast(websocket.Event{
			Type:    module + "_" + action,
			ID:      recordID,
			Payload: summary,
		})
	}
}

// Recent returns the newest audit entries, capped at limit.
func Recent(db *sql.DB, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := db.Query(`SELECT id, module, action, record_id, username, summary, created_at
		FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Module, &e.Action, &e.RecordID, &e.Username, &e.Summary, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package session

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storescan/internal/gateway"
	"storescan/internal/models"
	"storescan/internal/staging"
)

// CookieName is the session cookie set on successful login.
const CookieName = "storescan_session"

const pinSettingKey = "operator_pin"

var (
	ErrInvalidPIN = errors.New("invalid PIN")
	ErrNoPIN      = errors.New("no PIN configured")
)

// Gateway is the slice of the back-office API the session layer needs.
type Gateway interface {
	Login(email, password string) (gateway.LoginResult, error)
	UserStore(userID int) (models.Store, error)
}

// Manager authenticates operators against the back office and keeps
// the resulting session local, so the terminal works without
// re-authenticating on every request.
type Manager struct {
	db      *sql.DB
	gw      Gateway
	staging *staging.Store
	ttl     time.Duration
}

// NewManager creates a session manager. ttl bounds how long a login
// stays valid on the terminal.
func NewManager(db *sql.DB, gw Gateway, st *staging.Store, ttl time.Duration) *Manager {
	return &Manager{db: db, gw: gw, staging: st, ttl: ttl}
}

// Login authenticates against the back office, resolves the user's
// assigned store, and opens a local session.
func (m *Manager) Login(email, password string) (string, models.User, models.Store, error) {
	res, err := m.gw.Login(email, password)
	if err != nil {
		return "", models.User{}, models.Store{}, fmt.Errorf("login: %w", err)
	}
	store, err := m.gw.UserStore(res.User.ID)
	if err != nil {
		return "", models.User{}, models.Store{}, fmt.Errorf("resolve store: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return "", models.User{}, models.Store{}, err
	}
	userJSON, _ := json.Marshal(res.User)
	storeJSON, _ := json.Marshal(store)
	expires := time.Now().Add(m.ttl)
	_, err = m.db.Exec("INSERT INTO sessions (token, user_json, store_json, expires_at) VALUES (?, ?, ?, ?)",
		token, string(userJSON), string(storeJSON), expires.Format(time.RFC3339))
	if err != nil {
		return "", models.User{}, models.Store{}, fmt.Errorf("store session: %w", err)
	}
	return token, res.User, store, nil
}

// Get resolves the session from the request cookie. Expired sessions
// are treated as absent.
func (m *Manager) Get(r *http.Request) (models.User, models.Store, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return models.User{}, models.Store{}, false
	}
	var userJSON, storeJSON, expiresAt string
	err = m.db.QueryRow("SELECT user_json, store_json, expires_at FROM sessions WHERE token = ?", cookie.Value).
		Scan(&userJSON, &storeJSON, &expiresAt)
	if err != nil {
		return models.User{}, models.Store{}, false
	}
	expires, err := time.Parse(time.RFC3339, expiresAt)
	if err == nil && time.Now().After(expires) {
		m.db.Exec("DELETE FROM sessions WHERE token = ?", cookie.Value)
		return models.User{}, models.Store{}, false
	}
	var user models.User
	var store models.Store
	if json.Unmarshal([]byte(userJSON), &user) != nil || json.Unmarshal([]byte(storeJSON), &store) != nil {
		return models.User{}, models.Store{}, false
	}
	return user, store, true
}

// Logout closes the session and drops any staged work so the next
// operator starts from a clean terminal.
func (m *Manager) Logout(r *http.Request) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return
	}
	if _, err := m.db.Exec("DELETE FROM sessions WHERE token = ?", cookie.Value); err != nil {
		log.Printf("session: delete error: %v", err)
	}
	if err := m.staging.ClearCaptures(); err != nil {
		log.Printf("session: clear staging error: %v", err)
	}
}

// SetPIN hashes and stores the terminal unlock PIN.
func (m *Manager) SetPIN(pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = m.db.Exec(`INSERT INTO app_settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		pinSettingKey, string(hash))
	return err
}

// CheckPIN verifies the terminal unlock PIN against the stored hash.
func (m *Manager) CheckPIN(pin string) error {
	var hash string
	err := m.db.QueryRow("SELECT value FROM app_settings WHERE key = ?", pinSettingKey).Scan(&hash)
	if err == sql.ErrNoRows {
		return ErrNoPIN
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		return ErrInvalidPIN
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

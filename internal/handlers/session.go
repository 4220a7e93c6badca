package handlers

import (
	"errors"
	"net/http"

	"storescan/internal/audit"
	"storescan/internal/response"
	"storescan/internal/session"
	"storescan/internal/validation"
)

// HandleLogin authenticates the operator against the back office and
// opens a local session.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var ve validation.ValidationErrors
	validation.RequireField(&ve, "email", req.Email)
	validation.ValidateEmail(&ve, "email", req.Email)
	validation.RequireField(&ve, "password", req.Password)
	if ve.HasErrors() {
		response.Err(w, ve.Error(), http.StatusBadRequest)
		return
	}

	token, user, store, err := h.Sessions.Login(req.Email, req.Password)
	if err != nil {
		response.Err(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	audit.Log(h.DB, h.Hub, user.Email, audit.ActionLogin, "session", "", "Operator logged in")

	response.JSON(w, map[string]interface{}{"user": user, "store": store})
}

// HandleLogout closes the session and clears staged work.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, _, _ := h.Sessions.Get(r)
	h.Sessions.Logout(r)
	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	if user.Email != "" {
		audit.Log(h.DB, h.Hub, user.Email, audit.ActionLogout, "session", "", "Operator logged out")
	}
	response.JSON(w, map[string]string{"status": "logged_out"})
}

// HandleSession returns the current operator and store.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	user, store, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	response.JSON(w, map[string]interface{}{"user": user, "store": store})
}

// HandleSetPIN stores a terminal unlock PIN. Managers only.
func (h *Handler) HandleSetPIN(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if user.Role != "gerente" && user.Role != "admin" {
		response.Err(w, "insufficient role", http.StatusForbidden)
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.PIN) < 4 {
		response.Err(w, "pin must be at least 4 digits", http.StatusBadRequest)
		return
	}
	if err := h.Sessions.SetPIN(req.PIN); err != nil {
		response.Err(w, "failed to store pin", http.StatusInternalServerError)
		return
	}
	response.JSON(w, map[string]string{"status": "pin_set"})
}

// HandleUnlock verifies the terminal unlock PIN.
func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.currentUser(w, r); !ok {
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid request body", http.StatusBadRequest)
		return
	}
	err := h.Sessions.CheckPIN(req.PIN)
	switch {
	case errors.Is(err, session.ErrNoPIN):
		response.Err(w, "no pin configured", http.StatusConflict)
	case errors.Is(err, session.ErrInvalidPIN):
		response.Err(w, "invalid pin", http.StatusUnauthorized)
	case err != nil:
		response.Err(w, "failed to check pin", http.StatusInternalServerError)
	default:
		response.JSON(w, map[string]string{"status": "unlocked"})
	}
}

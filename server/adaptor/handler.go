package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/preesha73/chathub/server/domain"
	"github.com/preesha73/chathub/server/usecase"
)

type Handler struct {
	accounts     Accounts
	hub          *domain.Hub
	presence     *domain.PresenceRegistry
	historyLimit int
	upgrader     websocket.Upgrader
}

func New(accounts Accounts, hub *domain.Hub, presence *domain.PresenceRegistry, historyLimit int) *Handler {
	return &Handler{
		accounts:     accounts,
		hub:          hub,
		presence:     presence,
		historyLimit: historyLimit,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/api/signup", h.Signup)
	r.Post("/api/login", h.Login)
	r.Get("/api/rooms/{room}/messages", h.History)
	r.Get("/api/online", h.Online)
	r.Get("/ws", h.ServeWS)
	return r
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	identity, err := h.accounts.CreateAccount(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrAlreadyExists) {
			h.writeError(w, "user already exists", http.StatusConflict)
			return
		}
		log.Printf("signup failed: %v", err)
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"id":       identity.ID,
		"username": identity.DisplayName,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, identity, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			h.writeError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Printf("login failed: %v", err)
		h.writeError(w, "server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  wireUser{ID: identity.ID, Name: identity.DisplayName},
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if room == "" {
		h.writeError(w, "room is required", http.StatusBadRequest)
		return
	}

	messages, err := h.accounts.History(r.Context(), room, h.historyLimit)
	if err != nil {
		log.Printf("history failed for room %s: %v", room, err)
		h.writeError(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]*wireMessage, len(messages))
	for i, m := range messages {
		out[i] = toWireMessage(m)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Online(w http.ResponseWriter, r *http.Request) {
	users := h.presence.OnlineUsers()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(users),
		"users": toWireUsers(users),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, msg string, status int) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		var token string
		if _, err := fmt.Sscanf(auth, "Bearer %s", &token); err == nil {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/fjod/go_food/internal/auth"
)

type AuthHandler struct {
	authenticator auth.TokenAuthenticator
}

func NewAuthHandler(authenticator auth.TokenAuthenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserDTO struct {
	Username string `json:"username"`
}

type LoginResponseDTO struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	token, principal, err := h.authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleError(w, err, "Failed to log in")
		return
	}

	respondJSON(w, http.StatusOK, LoginResponseDTO{
		Token: token,
		User:  UserDTO{Username: principal.Username},
	})
}

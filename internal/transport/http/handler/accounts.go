package handler

import (
	"net/http"

	"github.com/go-shop-api/internal/application/auth"
	"github.com/go-shop-api/internal/domain"
	"github.com/go-shop-api/internal/transport/http/middleware"
)

// AccountHandler serves sign-up, verification, restore and login.
type AccountHandler struct {
	svc auth.Service
}

func NewAccountHandler(svc auth.Service) *AccountHandler { return &AccountHandler{svc: svc} }

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenEnvelope(res))
}

func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.SignUp(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AccountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyUserRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Verify(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenEnvelope(res))
}

func (h *AccountHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req domain.RestoreUserRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.RequestRestore(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "verification code sent"})
}

func (h *AccountHandler) RestoreVerify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyUserRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.RestoreVerify(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTokenEnvelope(res))
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, u.Public())
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), u, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password changed"})
}

func toTokenEnvelope(res *auth.TokenResult) TokenEnvelope {
	return TokenEnvelope{AccessToken: res.AccessToken, TokenType: res.TokenType, User: res.User}
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-shop-api/internal/application/account"
	"github.com/go-shop-api/internal/application/address"
	"github.com/go-shop-api/internal/domain"
	"github.com/go-shop-api/internal/transport/http/middleware"
)

// AddressHandler serves the signed-in user's delivery addresses.
type AddressHandler struct {
	svc      address.Service
	accounts account.Service
}

func NewAddressHandler(svc address.Service, accounts account.Service) *AddressHandler {
	return &AddressHandler{svc: svc, accounts: accounts}
}

func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var input domain.DeliveryAddressInput
	if !decode(w, r, &input) {
		return
	}
	a, err := h.svc.Create(r.Context(), u.UserID, input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.List(r.Context(), u.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(list))
}

// Get returns one address. Another user's address is reported as missing.
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := chi.URLParam(r, "id")
	a, err := h.accounts.GetDeliveryAddress(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	if a.UserID != u.UserID {
		httpError(w, fmt.Errorf("address %q: %w", id, domain.ErrAddressNotExist))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-shop-api/internal/application/coupon"
	"github.com/go-shop-api/internal/domain"
)

// CouponHandler handles coupon endpoints. All routes are admin-only.
type CouponHandler struct {
	svc coupon.Service
}

func NewCouponHandler(svc coupon.Service) *CouponHandler { return &CouponHandler{svc: svc} }

func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(coupons))
}

func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.CouponInput
	if !decode(w, r, &input) {
		return
	}
	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CouponHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

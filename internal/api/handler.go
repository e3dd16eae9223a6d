package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bonus-promotion-service/internal/basket"
	"bonus-promotion-service/internal/commerce"
	"bonus-promotion-service/internal/engine"
)

type BonusHandler struct {
	Eng *engine.Engine
}

func NewBonusHandler(eng *engine.Engine) *BonusHandler {
	return &BonusHandler{Eng: eng}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, commerce.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "basket not found"})
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "commerce platform unavailable"})
}

func (h *BonusHandler) BonusProducts(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")
	promotionID := chi.URLParam(r, "promotionID")

	products, remaining, err := h.Eng.BonusProducts(r.Context(), basketID, promotionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if products == nil {
		products = []basket.BonusProduct{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":  products,
		"remaining": remaining,
	})
}

func (h *BonusHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")
	promotionID := chi.URLParam(r, "promotionID")

	lines, remaining, err := h.Eng.Capacity(r.Context(), basketID, promotionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if lines == nil {
		lines = []engine.LineCapacity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"remaining": remaining,
		"lines":     lines,
	})
}

func (h *BonusHandler) AddBonusItems(w http.ResponseWriter, r *http.Request) {
	basketID := chi.URLParam(r, "basketID")

	var req engine.AllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.PromotionID == "" || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "promotionId and productId are required"})
		return
	}
	if req.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity must not be negative"})
		return
	}

	outcome, err := h.Eng.AddBonusProduct(r.Context(), basketID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

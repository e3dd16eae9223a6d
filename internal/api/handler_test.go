package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bonus-promotion-service/internal/basket"
	"bonus-promotion-service/internal/commerce"
	"bonus-promotion-service/internal/engine"
)

type stubBaskets struct {
	basket        *basket.Basket
	updated       *basket.Basket
	getErr        error
	mutationErr   error
	mutationCalls int
}

func (s *stubBaskets) GetBasket(_ context.Context, _ string) (*basket.Basket, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	b := *s.basket
	return &b, nil
}

func (s *stubBaskets) AddItemsToBasket(_ context.Context, _ string, _ []basket.LineItem) (*basket.Basket, error) {
	s.mutationCalls++
	if s.mutationErr != nil {
		return nil, s.mutationErr
	}
	b := *s.updated
	return &b, nil
}

type stubQualifier struct {
	products []basket.BonusProduct
	err      error
}

func (s *stubQualifier) QualifyingProducts(_ context.Context, _ string, _ int) ([]basket.BonusProduct, error) {
	return s.products, s.err
}

func promoBasket(maxItems, used int) *basket.Basket {
	b := &basket.Basket{
		ID: "b1",
		BonusDiscountLineItems: []basket.BonusDiscountLineItem{
			{ID: "bonus-1", PromotionID: "p", MaxBonusItems: maxItems, BonusProducts: []basket.BonusProduct{
				{ProductID: "sku-1", Name: "Gift"},
			}},
		},
	}
	if used > 0 {
		b.ProductItems = []basket.ProductItem{
			{ProductID: "sku-1", Quantity: used, BonusProductLineItem: true, BonusDiscountLineItemID: "bonus-1"},
		}
	}
	return b
}

func newTestRouter(baskets *stubBaskets, qualifier *stubQualifier) http.Handler {
	eng := engine.New(baskets, qualifier, nil, 25)
	return Router(NewBonusHandler(eng))
}

func TestAddBonusItems_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		baskets    *stubBaskets
		body       string
		wantStatus int
		wantCalls  int
		wantNext   string
	}{
		{
			name:       "invalid json",
			baskets:    &stubBaskets{basket: promoBasket(2, 0)},
			body:       "{",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing promotion id",
			baskets:    &stubBaskets{basket: promoBasket(2, 0)},
			body:       `{"productId":"sku-1","quantity":1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "negative quantity",
			baskets:    &stubBaskets{basket: promoBasket(2, 0)},
			body:       `{"promotionId":"p","productId":"sku-1","quantity":-1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "basket not found",
			baskets:    &stubBaskets{getErr: fmt.Errorf("get basket: %w", commerce.ErrNotFound)},
			body:       `{"promotionId":"p","productId":"sku-1","quantity":1}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "mutation failure maps to bad gateway",
			baskets:    &stubBaskets{basket: promoBasket(2, 0), mutationErr: errors.New("boom")},
			body:       `{"promotionId":"p","productId":"sku-1","quantity":1}`,
			wantStatus: http.StatusBadGateway,
			wantCalls:  1,
		},
		{
			name:       "zero capacity skips mutation",
			baskets:    &stubBaskets{basket: promoBasket(2, 2)},
			body:       `{"promotionId":"p","productId":"sku-1","quantity":3}`,
			wantStatus: http.StatusOK,
			wantNext:   engine.NextCheckout,
		},
		{
			name:       "allocation with capacity left",
			baskets:    &stubBaskets{basket: promoBasket(3, 0), updated: promoBasket(3, 1)},
			body:       `{"promotionId":"p","productId":"sku-1","price":9.99,"quantity":1}`,
			wantStatus: http.StatusOK,
			wantCalls:  1,
			wantNext:   engine.NextSelectMore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.baskets, &stubQualifier{})

			req := httptest.NewRequest(http.MethodPost, "/v1/baskets/b1/bonus-items", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, tt.baskets.mutationCalls)

			if tt.wantStatus == http.StatusOK {
				var out engine.AddOutcome
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
				assert.Equal(t, tt.wantNext, out.NextAction)
			}
		})
	}
}

func TestBonusProducts(t *testing.T) {
	router := newTestRouter(&stubBaskets{basket: promoBasket(2, 0)}, &stubQualifier{})

	req := httptest.NewRequest(http.MethodGet, "/v1/baskets/b1/promotions/p/bonus-products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Products  []basket.BonusProduct `json:"products"`
		Remaining int                   `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, []basket.BonusProduct{{ProductID: "sku-1", Name: "Gift"}}, out.Products)
	assert.Equal(t, 2, out.Remaining)
}

func TestBonusProducts_UnknownPromotionIsEmptyNotError(t *testing.T) {
	// Promotion without bonus lines resolves through the qualification
	// query (legacy convention) and still answers 200.
	router := newTestRouter(&stubBaskets{basket: promoBasket(2, 0)}, &stubQualifier{
		products: []basket.BonusProduct{{ProductID: "sku-9"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/baskets/b1/promotions/other/bonus-products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Products  []basket.BonusProduct `json:"products"`
		Remaining int                   `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, []basket.BonusProduct{{ProductID: "sku-9"}}, out.Products)
	assert.Equal(t, 0, out.Remaining)
}

func TestCapacity(t *testing.T) {
	router := newTestRouter(&stubBaskets{basket: promoBasket(3, 1)}, &stubQualifier{})

	req := httptest.NewRequest(http.MethodGet, "/v1/baskets/b1/promotions/p/capacity", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Remaining int                   `json:"remaining"`
		Lines     []engine.LineCapacity `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Remaining)
	assert.Equal(t, []engine.LineCapacity{{LineID: "bonus-1", Remaining: 2}}, out.Lines)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&stubBaskets{basket: promoBasket(1, 0)}, &stubQualifier{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

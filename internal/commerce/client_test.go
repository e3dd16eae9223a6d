package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bonus-promotion-service/internal/basket"
)

func TestGetBasket(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/baskets/b1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"basketId":"b1","bonusDiscountLineItems":[{"id":"bonus-1","promotionId":"p","maxBonusItems":2}]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "tok", time.Second)
	b, err := c.GetBasket(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	require.Len(t, b.BonusDiscountLineItems, 1)
	assert.Equal(t, 2, b.BonusDiscountLineItems[0].MaxBonusItems)
}

func TestGetBasket_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", time.Second)
	_, err := c.GetBasket(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddItemsToBasket(t *testing.T) {
	var gotBody []basket.LineItem
	var gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/baskets/b1/items", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"basketId":"b1"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", time.Second)
	items := []basket.LineItem{
		{ProductID: "sku-1", Price: 9.99, Quantity: 2, BonusDiscountLineItemID: "bonus-1"},
	}
	b, err := c.AddItemsToBasket(context.Background(), "b1", items)
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, items, gotBody)
	assert.NotEmpty(t, gotKey, "mutations must carry an idempotency key")
}

func TestAddItemsToBasket_RejectsEmptyItems(t *testing.T) {
	c := NewClient("http://unused", "", time.Second)
	_, err := c.AddItemsToBasket(context.Background(), "b1", nil)
	assert.Error(t, err)
}

func TestAddItemsToBasket_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", time.Second)
	_, err := c.AddItemsToBasket(context.Background(), "b1", []basket.LineItem{{ProductID: "sku-1", Quantity: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestQualifyingProducts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/qualifying", r.URL.Path)
		assert.Equal(t, "promo-1", r.URL.Query().Get("promotionId"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"products":[{"productId":"sku-1","productName":"Gift"},{"productId":"sku-2"}]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", time.Second)
	products, err := c.QualifyingProducts(context.Background(), "promo-1", 10)
	require.NoError(t, err)
	assert.Equal(t, []basket.BonusProduct{
		{ProductID: "sku-1", Name: "Gift"},
		{ProductID: "sku-2"},
	}, products)
}

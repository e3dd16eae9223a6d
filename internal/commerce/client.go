package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"bonus-promotion-service/internal/basket"
)

// ErrNotFound is returned when the commerce platform reports 404 for a
// basket.
var ErrNotFound = errors.New("commerce: not found")

// Client talks to the external commerce platform. The service never owns
// basket state; every read and every mutation goes through here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// GetBasket fetches the current basket snapshot.
func (c *Client) GetBasket(ctx context.Context, basketID string) (*basket.Basket, error) {
	var b basket.Basket
	if err := c.do(ctx, http.MethodGet, "/baskets/"+url.PathEscape(basketID), nil, "", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// AddItemsToBasket adds the allocated bonus line items in a single call
// and returns the updated basket. Callers must not pass zero items; the
// platform rejects empty item arrays.
func (c *Client) AddItemsToBasket(ctx context.Context, basketID string, items []basket.LineItem) (*basket.Basket, error) {
	if len(items) == 0 {
		return nil, errors.New("commerce: add items called with no items")
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}
	var b basket.Basket
	path := "/baskets/" + url.PathEscape(basketID) + "/items"
	if err := c.do(ctx, http.MethodPost, path, body, uuid.NewString(), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// QualifyingProducts asks the platform which products qualify as bonus
// items for a rule-based promotion.
func (c *Client) QualifyingProducts(ctx context.Context, promotionID string, limit int) ([]basket.BonusProduct, error) {
	q := url.Values{}
	q.Set("promotionId", promotionID)
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Products []basket.BonusProduct `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/qualifying?"+q.Encode(), nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, idempotencyKey string, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bonus-promotion-service/internal/basket"
	"bonus-promotion-service/internal/cache"
	"bonus-promotion-service/internal/observability"
	"bonus-promotion-service/internal/storage"
)

// BasketAPI is the basket read/mutation collaborator (the commerce
// platform). AddItemsToBasket must never be called with zero items; the
// engine guards this.
type BasketAPI interface {
	GetBasket(ctx context.Context, basketID string) (*basket.Basket, error)
	AddItemsToBasket(ctx context.Context, basketID string, items []basket.LineItem) (*basket.Basket, error)
}

// ProductQualifier resolves candidate bonus products for rule-based
// promotions.
type ProductQualifier interface {
	QualifyingProducts(ctx context.Context, promotionID string, limit int) ([]basket.BonusProduct, error)
}

// CatalogLoader supplies promotion definitions for the in-memory snapshot.
type CatalogLoader interface {
	LoadActivePromotions(ctx context.Context) ([]storage.PromotionRow, error)
}

// Engine runs the bonus-product selection flow: resolve candidates,
// allocate quantity across bonus lines, commit one basket mutation,
// reconcile. Allocation itself is pure; the engine adds the collaborators
// around it.
type Engine struct {
	baskets      BasketAPI
	products     ProductQualifier
	productCache cache.ProductCache
	qualifyLimit int

	catalog cache.Snapshot[map[string]storage.PromotionRow]
}

func New(baskets BasketAPI, products ProductQualifier, pc cache.ProductCache, qualifyLimit int) *Engine {
	return &Engine{
		baskets:      baskets,
		products:     products,
		productCache: pc,
		qualifyLimit: qualifyLimit,
	}
}

// RefreshCatalog reloads active promotion definitions into the snapshot.
func (e *Engine) RefreshCatalog(ctx context.Context, st CatalogLoader) error {
	rows, err := st.LoadActivePromotions(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]storage.PromotionRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	e.catalog.Store(byID)
	log.Info().Int("promotions", len(byID)).Msg("promotion catalog refreshed")
	return nil
}

// PromotionKind returns the cataloged kind (LIST or RULE) of a promotion,
// or false when the promotion is not in the catalog.
func (e *Engine) PromotionKind(promotionID string) (string, bool) {
	byID, ok := e.catalog.Load()
	if !ok {
		return "", false
	}
	row, ok := byID[promotionID]
	if !ok {
		return "", false
	}
	return row.Kind, true
}

// Capacity returns the promotion's lines with remaining capacity and the
// aggregate remaining, from a fresh basket snapshot.
func (e *Engine) Capacity(ctx context.Context, basketID, promotionID string) ([]LineCapacity, int, error) {
	b, err := e.baskets.GetBasket(ctx, basketID)
	if err != nil {
		return nil, 0, fmt.Errorf("get basket: %w", err)
	}
	b.Normalize()
	lines := AvailableLines(b, promotionID)
	return lines, totalCapacity(lines), nil
}

// AddBonusProduct runs the full flow for one shopper action. When the
// allocation comes out empty (zero quantity requested, or no capacity
// left) the basket API is not called at all and the prior basket state
// stands. A failed mutation is returned as-is: nothing was allocated,
// nothing is reconciled.
func (e *Engine) AddBonusProduct(ctx context.Context, basketID string, req AllocationRequest) (AddOutcome, error) {
	b, err := e.baskets.GetBasket(ctx, basketID)
	if err != nil {
		return AddOutcome{}, fmt.Errorf("get basket: %w", err)
	}
	b.Normalize()

	lines := AvailableLines(b, req.PromotionID)
	allocated := Allocate(req.Quantity, lines)

	if len(allocated) == 0 {
		observability.MutationsSkipped.Inc()
		remaining := totalCapacity(lines)
		return AddOutcome{
			Allocated:      []Allocation{},
			TotalAllocated: 0,
			Remaining:      remaining,
			NextAction:     nextAction(remaining),
		}, nil
	}

	items := make([]basket.LineItem, 0, len(allocated))
	total := 0
	for _, a := range allocated {
		items = append(items, basket.LineItem{
			ProductID:               req.ProductID,
			Price:                   req.Price,
			Quantity:                a.Quantity,
			BonusDiscountLineItemID: a.LineID,
		})
		total += a.Quantity
	}

	updated, err := e.baskets.AddItemsToBasket(ctx, basketID, items)
	if err != nil {
		observability.MutationErrors.Inc()
		log.Error().Err(err).
			Str("basket_id", basketID).
			Str("promotion_id", req.PromotionID).
			Msg("basket mutation failed")
		return AddOutcome{}, fmt.Errorf("add items to basket: %w", err)
	}
	updated.Normalize()

	observability.AllocationsTotal.Inc()
	if total < req.Quantity {
		observability.AllocationsCapped.Inc()
	}

	remaining := totalCapacity(AvailableLines(updated, req.PromotionID))
	return AddOutcome{
		Allocated:      allocated,
		TotalAllocated: total,
		Remaining:      remaining,
		NextAction:     nextAction(remaining),
	}, nil
}

func nextAction(remaining int) string {
	if remaining > 0 {
		return NextSelectMore
	}
	return NextCheckout
}

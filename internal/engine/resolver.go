package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bonus-promotion-service/internal/basket"
	"bonus-promotion-service/internal/observability"
	"bonus-promotion-service/internal/storage"
)

// ResolveBonusProducts returns the candidate bonus products a shopper may
// pick for the promotion. List-based candidates come straight off the
// basket's bonus lines, in basket order. Rule-based promotions are
// resolved through the qualification query and merged after the
// list-based candidates, deduplicated by product id, first occurrence
// wins.
//
// Whether a promotion is rule-based is decided by the catalog. For
// promotions absent from the catalog the legacy convention applies: an
// empty product list marks the promotion rule-based. The convention is
// ambiguous (a list promotion with nothing currently eligible looks the
// same), so falling back to it is logged.
func (e *Engine) ResolveBonusProducts(ctx context.Context, b *basket.Basket, promotionID string) ([]basket.BonusProduct, error) {
	listed := []basket.BonusProduct{}
	seen := map[string]struct{}{}
	for _, line := range b.LinesFor(promotionID) {
		for _, p := range line.BonusProducts {
			if _, dup := seen[p.ProductID]; dup {
				continue
			}
			seen[p.ProductID] = struct{}{}
			listed = append(listed, p)
		}
	}

	ruleBased := false
	if kind, known := e.PromotionKind(promotionID); known {
		ruleBased = kind == storage.KindRule
	} else if len(listed) == 0 {
		ruleBased = true
		log.Warn().Str("promotion_id", promotionID).
			Msg("promotion not in catalog; empty product list treated as rule-based")
	}
	if !ruleBased {
		return listed, nil
	}

	qualified, err := e.qualifyingProducts(ctx, promotionID)
	if err != nil {
		return nil, err
	}
	for _, p := range qualified {
		if _, dup := seen[p.ProductID]; dup {
			continue
		}
		seen[p.ProductID] = struct{}{}
		listed = append(listed, p)
	}
	return listed, nil
}

// BonusProducts resolves candidates plus the remaining aggregate capacity
// from a fresh basket snapshot.
func (e *Engine) BonusProducts(ctx context.Context, basketID, promotionID string) ([]basket.BonusProduct, int, error) {
	b, err := e.baskets.GetBasket(ctx, basketID)
	if err != nil {
		return nil, 0, fmt.Errorf("get basket: %w", err)
	}
	b.Normalize()
	products, err := e.ResolveBonusProducts(ctx, b, promotionID)
	if err != nil {
		return nil, 0, err
	}
	return products, totalCapacity(AvailableLines(b, promotionID)), nil
}

func (e *Engine) qualifyingProducts(ctx context.Context, promotionID string) ([]basket.BonusProduct, error) {
	if e.productCache != nil {
		if products, ok := e.productCache.Get(ctx, promotionID); ok {
			observability.QualifyCacheHits.WithLabelValues("hit").Inc()
			return products, nil
		}
		observability.QualifyCacheHits.WithLabelValues("miss").Inc()
	}

	products, err := e.products.QualifyingProducts(ctx, promotionID, e.qualifyLimit)
	if err != nil {
		return nil, fmt.Errorf("qualifying products for %s: %w", promotionID, err)
	}
	if e.productCache != nil {
		e.productCache.Set(ctx, promotionID, products)
	}
	return products, nil
}

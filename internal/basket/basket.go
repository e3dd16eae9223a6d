package basket

// Basket is the read model returned by the commerce platform. All
// collections are non-nil after Normalize, so absence of a field in the
// upstream payload is the empty case, not a special one.
type Basket struct {
	ID                     string                  `json:"basketId"`
	Currency               string                  `json:"currency"`
	BonusDiscountLineItems []BonusDiscountLineItem `json:"bonusDiscountLineItems"`
	ProductItems           []ProductItem           `json:"productItems"`
}

// BonusDiscountLineItem is one "buy X get Y" opportunity attached to the
// basket, capped at MaxBonusItems. BonusProducts enumerates the eligible
// products for list-based promotions; an empty list means eligibility is
// resolved through a qualification query (see engine.Resolver).
type BonusDiscountLineItem struct {
	ID            string         `json:"id"`
	PromotionID   string         `json:"promotionId"`
	MaxBonusItems int            `json:"maxBonusItems"`
	BonusProducts []BonusProduct `json:"bonusProducts"`
}

// ProductItem is a line item already in the basket. Bonus items carry the
// id of the bonus discount line they were allocated against.
type ProductItem struct {
	ProductID               string  `json:"productId"`
	Quantity                int     `json:"quantity"`
	Price                   float64 `json:"price"`
	BonusProductLineItem    bool    `json:"bonusProductLineItem"`
	BonusDiscountLineItemID string  `json:"bonusDiscountLineItemId,omitempty"`
}

// BonusProduct is a candidate product a shopper may pick as their bonus.
type BonusProduct struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"productName,omitempty"`
	Price     float64 `json:"price,omitempty"`
}

// LineItem is the mutation record sent to the commerce basket API when
// allocated bonus quantity is added to the basket.
type LineItem struct {
	ProductID               string  `json:"productId"`
	Price                   float64 `json:"price"`
	Quantity                int     `json:"quantity"`
	BonusDiscountLineItemID string  `json:"bonusDiscountLineItemId"`
}

// Normalize replaces nil collections with empty ones and drops bonus lines
// with a negative cap, which the upstream API should never produce.
func (b *Basket) Normalize() {
	if b.BonusDiscountLineItems == nil {
		b.BonusDiscountLineItems = []BonusDiscountLineItem{}
	}
	if b.ProductItems == nil {
		b.ProductItems = []ProductItem{}
	}
	lines := b.BonusDiscountLineItems[:0]
	for _, l := range b.BonusDiscountLineItems {
		if l.MaxBonusItems < 0 {
			continue
		}
		if l.BonusProducts == nil {
			l.BonusProducts = []BonusProduct{}
		}
		lines = append(lines, l)
	}
	b.BonusDiscountLineItems = lines
}

// AllocatedQuantity sums the quantity of bonus product items already
// assigned to the given bonus discount line.
func (b *Basket) AllocatedQuantity(lineID string) int {
	total := 0
	for _, it := range b.ProductItems {
		if it.BonusProductLineItem && it.BonusDiscountLineItemID == lineID {
			total += it.Quantity
		}
	}
	return total
}

// LinesFor returns the bonus discount lines belonging to a promotion, in
// basket order.
func (b *Basket) LinesFor(promotionID string) []BonusDiscountLineItem {
	var out []BonusDiscountLineItem
	for _, l := range b.BonusDiscountLineItems {
		if l.PromotionID == promotionID {
			out = append(out, l)
		}
	}
	return out
}

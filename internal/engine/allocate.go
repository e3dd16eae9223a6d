package engine

import (
	"slices"

	"bonus-promotion-service/internal/basket"
)

// AvailableLines returns the promotion's bonus discount lines that still
// have capacity, largest remaining first. Ties keep basket order, so the
// result is stable for identical inputs.
func AvailableLines(b *basket.Basket, promotionID string) []LineCapacity {
	var out []LineCapacity
	for _, l := range b.LinesFor(promotionID) {
		remaining := l.MaxBonusItems - b.AllocatedQuantity(l.ID)
		if remaining <= 0 {
			continue
		}
		out = append(out, LineCapacity{LineID: l.ID, Remaining: remaining})
	}
	slices.SortStableFunc(out, func(a, b LineCapacity) int { return b.Remaining - a.Remaining })
	return out
}

// Allocate greedily spreads quantity across lines in the order given by
// AvailableLines. Per-line caps are respected and the total is capped at
// the aggregate remaining capacity; over-asking is not an error.
func Allocate(quantity int, lines []LineCapacity) []Allocation {
	var out []Allocation
	for _, l := range lines {
		if quantity <= 0 {
			break
		}
		if l.Remaining <= 0 {
			continue
		}
		n := min(quantity, l.Remaining)
		out = append(out, Allocation{LineID: l.LineID, Quantity: n})
		quantity -= n
	}
	return out
}

// HasRemainingCapacity reports whether any bonus discount line of the
// promotion still has room, computed from a fresh basket snapshot.
func HasRemainingCapacity(b *basket.Basket, promotionID string) bool {
	return len(AvailableLines(b, promotionID)) > 0
}

func totalCapacity(lines []LineCapacity) int {
	total := 0
	for _, l := range lines {
		total += l.Remaining
	}
	return total
}

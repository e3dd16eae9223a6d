package engine

// LineCapacity is one bonus discount line with capacity left to fill.
type LineCapacity struct {
	LineID    string `json:"lineId"`
	Remaining int    `json:"remaining"`
}

// AllocationRequest is a shopper's pick: a bonus product and how many
// units of it they want, to be spread across the promotion's lines.
type AllocationRequest struct {
	PromotionID string  `json:"promotionId"`
	ProductID   string  `json:"productId"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Allocation assigns part of the requested quantity to one line.
type Allocation struct {
	LineID   string `json:"lineId"`
	Quantity int    `json:"quantity"`
}

// Next actions for the storefront after an add-bonus-product call.
const (
	NextSelectMore = "select_more"
	NextCheckout   = "checkout"
)

// AddOutcome is the API-facing result of an add-bonus-product call.
type AddOutcome struct {
	Allocated      []Allocation `json:"allocated"`
	TotalAllocated int          `json:"totalAllocated"`
	Remaining      int          `json:"remaining"`
	NextAction     string       `json:"nextAction"`
}

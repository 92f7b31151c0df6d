package engine

import . "topbook/internal/common"

// Order is a single resting order. It is owned by the PriceLevel holding it
// and only exists while Quantity > 0.
type Order struct {
	ID       string // Unique among resting orders of a book
	Side     Side   // Order side
	Price    uint64 // Limit price in minor currency units
	Quantity uint64 // Remaining unfilled shares
}

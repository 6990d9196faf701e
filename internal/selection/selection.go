// Package selection holds the per-attempt ticket selection state for one
// registering user. It caps the total selection at one ticket across all
// tiers and rejects anything a tier cannot serve. Rejections are typed
// errors, never silent drops, so callers can tell "rejected" from
// "accepted".
package selection

import (
	"errors"
	"sync"

	"eventhub/internal/models"
)

var (
	ErrNegativeQuantity    = errors.New("quantity cannot be negative")
	ErrExceedsAvailable    = errors.New("quantity exceeds tickets available for this tier")
	ErrExceedsPerUserLimit = errors.New("only one ticket may be selected per person")
	ErrUnknownTier         = errors.New("unknown ticket tier")
)

// MaxPerUser is the business-rule cap on tickets per user per event.
const MaxPerUser = 1

// Guard tracks one registration attempt's tier selections. It is ephemeral:
// one Guard per attempt, discarded when the attempt ends.
type Guard struct {
	mu       sync.Mutex
	tiers    map[string]models.TicketTier
	selected map[string]int
}

// NewGuard snapshots the event's purchasable tiers. Inactive tiers are not
// selectable at all.
func NewGuard(tiers []models.TicketTier) *Guard {
	byType := make(map[string]models.TicketTier, len(tiers))
	for _, t := range tiers {
		if t.IsActive {
			byType[t.Type] = t
		}
	}
	return &Guard{
		tiers:    byType,
		selected: make(map[string]int),
	}
}

// SetQuantity sets the requested quantity for a tier, enforcing every
// selection rule before mutating anything.
func (g *Guard) SetQuantity(tierType string, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if qty < 0 {
		return ErrNegativeQuantity
	}
	tier, ok := g.tiers[tierType]
	if !ok {
		return ErrUnknownTier
	}
	if qty > tier.Quantity.Available {
		return ErrExceedsAvailable
	}

	total := qty
	for t, q := range g.selected {
		if t != tierType {
			total += q
		}
	}
	if total > MaxPerUser {
		return ErrExceedsPerUserLimit
	}

	if qty == 0 {
		delete(g.selected, tierType)
	} else {
		g.selected[tierType] = qty
	}
	return nil
}

// TotalSelected returns the ticket count across all tiers.
func (g *Guard) TotalSelected() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := 0
	for _, q := range g.selected {
		total += q
	}
	return total
}

// TotalAmount returns the price of the current selection.
func (g *Guard) TotalAmount() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	amount := 0.0
	for t, q := range g.selected {
		amount += g.tiers[t].Price * float64(q)
	}
	return amount
}

// Selection returns the current tier→quantity mapping.
func (g *Guard) Selection() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make(map[string]int, len(g.selected))
	for t, q := range g.selected {
		out[t] = q
	}
	return out
}

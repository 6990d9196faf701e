package event

import (
	"fmt"

	"eventhub/internal/models"
)

// Reconcile validates a candidate tier set against the proposed maximum
// attendee count and the venue capacity, and derives the event's pricing
// block from it. It is pure: no store is touched, callers run it before
// any create or update hits the database.
//
// Every submitted tier must be complete. A tier with an empty type, a
// negative price or a non-positive quantity fails validation outright
// instead of being dropped from the sum.
func Reconcile(tiers []models.TierInput, maxAttendees, venueCapacity int, isFree bool) (*models.Pricing, error) {
	if maxAttendees <= 0 {
		return nil, validationErr("maxAttendees", "must be greater than zero")
	}
	if maxAttendees > venueCapacity {
		return nil, ErrVenueCapacityExceeded
	}
	if !isFree && len(tiers) == 0 {
		return nil, validationErr("tickets", "paid events need at least one ticket tier")
	}

	seen := make(map[string]bool, len(tiers))
	totalTicketCapacity := 0
	for i, t := range tiers {
		if t.Type == "" {
			return nil, validationErr(fmt.Sprintf("tickets[%d].type", i), "ticket type is required")
		}
		if t.Price < 0 {
			return nil, validationErr(fmt.Sprintf("tickets[%d].price", i), "price cannot be negative")
		}
		if t.Total <= 0 {
			return nil, validationErr(fmt.Sprintf("tickets[%d].quantity", i), "quantity must be greater than zero")
		}
		if seen[t.Type] {
			return nil, validationErr(fmt.Sprintf("tickets[%d].type", i), "duplicate ticket type "+t.Type)
		}
		seen[t.Type] = true
		totalTicketCapacity += t.Total
	}

	if totalTicketCapacity > maxAttendees {
		return nil, ErrCapacityExceeded
	}
	if totalTicketCapacity > venueCapacity {
		return nil, ErrVenueCapacityExceeded
	}

	capacity := totalTicketCapacity
	if isFree {
		capacity = maxAttendees
	}

	pricing := &models.Pricing{
		IsFree:           isFree,
		TotalCapacity:    capacity,
		SoldTickets:      0,
		AvailableTickets: capacity,
		Tickets:          make([]models.TicketTier, 0, len(tiers)),
	}
	for _, t := range tiers {
		currency := t.Currency
		if currency == "" {
			currency = "INR"
		}
		pricing.Tickets = append(pricing.Tickets, models.TicketTier{
			Type:     t.Type,
			Price:    t.Price,
			Currency: currency,
			Quantity: models.Quantity{Total: t.Total, Available: t.Total, Sold: 0},
			IsActive: true,
		})
	}
	return pricing, nil
}

// ValidateDates rejects malformed date ranges before anything reaches the
// store or the wire.
func ValidateDates(dt models.DateTime) error {
	if dt.StartDate.IsZero() || dt.EndDate.IsZero() {
		return validationErr("dateTime", "start and end dates are required")
	}
	if !dt.StartDate.Before(dt.EndDate) {
		return validationErr("dateTime.endDate", "End date must be after start date")
	}
	return nil
}

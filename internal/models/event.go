package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EventStatus string

const (
	EventUpcoming  EventStatus = "upcoming"
	EventOngoing   EventStatus = "ongoing"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
	EventPostponed EventStatus = "postponed"
)

// ManualOverride reports whether the status is one an organizer set by hand
// rather than one derived from the event dates.
func (s EventStatus) ManualOverride() bool {
	return s == EventCancelled || s == EventPostponed
}

type DateTime struct {
	StartDate time.Time `bun:"start_date,notnull" json:"startDate"`
	EndDate   time.Time `bun:"end_date,notnull" json:"endDate"`
	Timezone  string    `bun:"timezone" json:"timezone"`
}

type Quantity struct {
	Total     int `bun:"total" json:"total"`
	Available int `bun:"available" json:"available"`
	Sold      int `bun:"sold" json:"sold"`
}

type TicketTier struct {
	bun.BaseModel `bun:"table:ticket_tiers"`

	ID       string   `bun:"tier_id,pk" json:"id"`
	EventID  string   `bun:"event_id" json:"eventId"`
	Type     string   `bun:"type" json:"type"`
	Price    float64  `bun:"price" json:"price"`
	Currency string   `bun:"currency" json:"currency"`
	Quantity Quantity `bun:"embed:quantity_" json:"quantity"`
	IsActive bool     `bun:"is_active" json:"isActive"`
}

type Pricing struct {
	IsFree           bool         `bun:"is_free" json:"isFree"`
	TotalCapacity    int          `bun:"total_capacity" json:"totalCapacity"`
	SoldTickets      int          `bun:"sold_tickets" json:"soldTickets"`
	AvailableTickets int          `bun:"available_tickets" json:"availableTickets"`
	Tickets          []TicketTier `bun:"-" json:"tickets"`
}

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           string      `bun:"event_id,pk" json:"id"`
	Title        string      `bun:"title,notnull" json:"title"`
	Description  string      `bun:"description" json:"description"`
	Category     string      `bun:"category" json:"category"`
	Status       EventStatus `bun:"status" json:"status"`
	DateTime     DateTime    `bun:"embed:" json:"dateTime"`
	Pricing      Pricing     `bun:"embed:" json:"pricing"`
	VenueID      string      `bun:"venue_id" json:"venueId"`
	MaxAttendees int         `bun:"max_attendees" json:"maxAttendees"`
	OrganizerID  string      `bun:"organizer_id" json:"organizerId"`
	CreatedAt    time.Time   `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt    time.Time   `bun:"updated_at" json:"updatedAt"`
}

// TierInput is the shape the create/update event forms submit for one tier.
type TierInput struct {
	Type     string  `json:"type"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Total    int     `json:"total"`
}

type EventRequest struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Category     string      `json:"category"`
	DateTime     DateTime    `json:"dateTime"`
	VenueID      string      `json:"venueId"`
	IsFree       bool        `json:"isFree"`
	MaxAttendees int         `json:"maxAttendees"`
	Tickets      []TierInput `json:"tickets"`
}

// EventListQuery carries the supported /api/events filters. Page starts
// at 1; Limit is clamped by the service.
type EventListQuery struct {
	Category  string
	Status    EventStatus
	Sort      string
	Latitude  *float64
	Longitude *float64
	Page      int
	Limit     int
}

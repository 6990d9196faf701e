package event

import (
	"context"
	"fmt"
	"sort"

	"eventhub/internal/clock"
	"eventhub/internal/models"

	"github.com/google/uuid"
)

type DBLayer interface {
	CreateEvent(ctx context.Context, event models.Event, tiers []models.TicketTier) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event, tiers []models.TicketTier) error
	ListEvents(ctx context.Context, q models.EventListQuery) ([]models.Event, error)
}

type VenueReader interface {
	GetVenueByID(ctx context.Context, id string) (*models.Venue, error)
}

type EventService struct {
	DB     DBLayer
	Venues VenueReader
	Clock  clock.Clock
}

func NewEventService(db DBLayer, venues VenueReader, clk clock.Clock) *EventService {
	return &EventService{DB: db, Venues: venues, Clock: clk}
}

// CreateEvent runs the full validation pipeline: dates, venue approval,
// then capacity reconciliation against the chosen venue.
func (s *EventService) CreateEvent(ctx context.Context, organizerID string, req models.EventRequest) (*models.Event, error) {
	if err := ValidateDates(req.DateTime); err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, validationErr("title", "title is required")
	}

	venue, err := s.Venues.GetVenueByID(ctx, req.VenueID)
	if err != nil {
		return nil, fmt.Errorf("venue %s not found: %w", req.VenueID, err)
	}
	if venue.ApprovalStatus != models.VenueApproved {
		return nil, ErrVenueNotApproved
	}

	pricing, err := Reconcile(req.Tickets, req.MaxAttendees, venue.Capacity, req.IsFree)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	event := models.Event{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Status:       models.EventUpcoming,
		DateTime:     req.DateTime,
		Pricing:      *pricing,
		VenueID:      venue.ID,
		MaxAttendees: req.MaxAttendees,
		OrganizerID:  organizerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tiers := make([]models.TicketTier, len(pricing.Tickets))
	for i, tier := range pricing.Tickets {
		tier.ID = uuid.NewString()
		tier.EventID = event.ID
		tiers[i] = tier
	}
	event.Pricing.Tickets = tiers

	if err := s.DB.CreateEvent(ctx, event, tiers); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &event, nil
}

// UpdateEvent re-runs reconciliation for the submitted tier set. Only the
// organizer may edit, and only before the event starts. Sold counts are
// owned by the registration flow, so the reconciled pricing is folded over
// the stored counts: tiers with sales keep their identity and sold count,
// and new totals must still cover what has already been sold.
func (s *EventService) UpdateEvent(ctx context.Context, eventID, organizerID string, req models.EventRequest) (*models.Event, error) {
	existing, err := s.DB.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}
	if existing.OrganizerID != organizerID {
		return nil, ErrNotOwner
	}
	if !s.Clock.Now().Before(existing.DateTime.StartDate) {
		return nil, ErrEventStarted
	}
	if err := ValidateDates(req.DateTime); err != nil {
		return nil, err
	}

	venue, err := s.Venues.GetVenueByID(ctx, req.VenueID)
	if err != nil {
		return nil, fmt.Errorf("venue %s not found: %w", req.VenueID, err)
	}
	if venue.ApprovalStatus != models.VenueApproved {
		return nil, ErrVenueNotApproved
	}

	pricing, err := Reconcile(req.Tickets, req.MaxAttendees, venue.Capacity, req.IsFree)
	if err != nil {
		return nil, err
	}
	if err := carryTierSales(existing, pricing); err != nil {
		return nil, err
	}

	updated := *existing
	updated.Title = req.Title
	updated.Description = req.Description
	updated.Category = req.Category
	updated.DateTime = req.DateTime
	updated.VenueID = venue.ID
	updated.MaxAttendees = req.MaxAttendees
	updated.Pricing = *pricing
	updated.UpdatedAt = s.Clock.Now()

	tiers := make([]models.TicketTier, len(pricing.Tickets))
	for i, tier := range pricing.Tickets {
		if tier.ID == "" {
			tier.ID = uuid.NewString()
		}
		tier.EventID = updated.ID
		tiers[i] = tier
	}
	updated.Pricing.Tickets = tiers

	if err := s.DB.UpdateEvent(ctx, updated, tiers); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &updated, nil
}

// carryTierSales folds the stored sold counts into a freshly reconciled
// pricing block. Reconcile derives available/sold for a new event; on an
// edit the existing sales must survive, so matching tiers (by type) keep
// their ID and sold count, tiers with sales cannot be removed, and no new
// total may undercut what is already sold.
func carryTierSales(existing *models.Event, pricing *models.Pricing) error {
	prior := make(map[string]models.TicketTier, len(existing.Pricing.Tickets))
	for _, t := range existing.Pricing.Tickets {
		prior[t.Type] = t
	}

	for i := range pricing.Tickets {
		tier := &pricing.Tickets[i]
		old, ok := prior[tier.Type]
		if !ok {
			continue
		}
		delete(prior, tier.Type)
		tier.ID = old.ID
		if tier.Quantity.Total < old.Quantity.Sold {
			return ErrCapacityBelowSold
		}
		tier.Quantity.Sold = old.Quantity.Sold
		tier.Quantity.Available = tier.Quantity.Total - old.Quantity.Sold
	}
	for _, old := range prior {
		if old.Quantity.Sold > 0 {
			return validationErr("tickets", fmt.Sprintf("tier %q has sold tickets and cannot be removed", old.Type))
		}
	}

	sold := existing.Pricing.SoldTickets
	if pricing.TotalCapacity < sold {
		return ErrCapacityBelowSold
	}
	pricing.SoldTickets = sold
	pricing.AvailableTickets = pricing.TotalCapacity - sold
	return nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, ErrEventNotFound
	}
	event.Status = DeriveStatus(s.Clock.Now(), *event)
	return event, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListEvents applies the catalogue filters. Status filtering happens after
// derivation so "ongoing" reflects the clock, not a stale column. When both
// coordinates are present the result is sorted nearest-first. The page is
// cut after sorting so page boundaries are stable for a given query.
func (s *EventService) ListEvents(ctx context.Context, q models.EventListQuery) ([]models.Event, error) {
	events, err := s.DB.ListEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	now := s.Clock.Now()
	filtered := events[:0]
	for _, e := range events {
		e.Status = DeriveStatus(now, e)
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		filtered = append(filtered, e)
	}

	if q.Latitude != nil && q.Longitude != nil {
		s.sortByDistance(ctx, filtered, *q.Latitude, *q.Longitude)
	} else {
		sortEvents(filtered, q.Sort)
	}
	return paginate(filtered, q.Page, q.Limit), nil
}

func paginate(events []models.Event, page, limit int) []models.Event {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(events) {
		return []models.Event{}
	}
	end := start + limit
	if end > len(events) {
		end = len(events)
	}
	return events[start:end]
}

func (s *EventService) sortByDistance(ctx context.Context, events []models.Event, lat, lon float64) {
	distances := make(map[string]float64, len(events))
	for _, e := range events {
		venue, err := s.Venues.GetVenueByID(ctx, e.VenueID)
		if err != nil {
			continue
		}
		distances[e.ID] = venue.DistanceKm(lat, lon)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return distances[events[i].ID] < distances[events[j].ID]
	})
}

func sortEvents(events []models.Event, key string) {
	switch key {
	case "price":
		sort.SliceStable(events, func(i, j int) bool {
			return minTierPrice(events[i]) < minTierPrice(events[j])
		})
	default: // soonest first
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].DateTime.StartDate.Before(events[j].DateTime.StartDate)
		})
	}
}

func minTierPrice(e models.Event) float64 {
	if e.Pricing.IsFree || len(e.Pricing.Tickets) == 0 {
		return 0
	}
	min := e.Pricing.Tickets[0].Price
	for _, t := range e.Pricing.Tickets[1:] {
		if t.Price < min {
			min = t.Price
		}
	}
	return min
}

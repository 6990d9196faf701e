package venue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/clock"
	"eventhub/internal/models"

	"github.com/google/uuid"
)

var (
	ErrVenueNotFound  = errors.New("venue not found")
	ErrInvalidAction  = errors.New("approval action must be approve or reject")
	ErrAlreadyDecided = errors.New("venue approval has already been decided")
	ErrReasonRequired = errors.New("rejection reason is required")
)

type DBLayer interface {
	CreateVenue(ctx context.Context, venue models.Venue) error
	GetVenueByID(ctx context.Context, id string) (*models.Venue, error)
	UpdateVenue(ctx context.Context, venue models.Venue) error
	ListVenues(ctx context.Context, status models.ApprovalStatus) ([]models.Venue, error)
}

type Publisher interface {
	Publish(topic string, key string, value []byte) error
}

type VenueService struct {
	DB    DBLayer
	Kafka Publisher
	Clock clock.Clock
}

func NewVenueService(db DBLayer, kafka Publisher, clk clock.Clock) *VenueService {
	return &VenueService{DB: db, Kafka: kafka, Clock: clk}
}

// CreateVenue registers a venue in pending state. Only an admin decision
// moves it out of pending, and only approved venues are selectable when
// creating events.
func (s *VenueService) CreateVenue(ctx context.Context, ownerID string, req models.VenueRequest) (*models.Venue, error) {
	if req.Name == "" {
		return nil, errors.New("venue name is required")
	}
	if req.Capacity <= 0 {
		return nil, errors.New("venue capacity must be greater than zero")
	}

	now := s.Clock.Now()
	venue := models.Venue{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Address:        req.Address,
		City:           req.City,
		Capacity:       req.Capacity,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		ApprovalStatus: models.VenuePending,
		OwnerID:        ownerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.DB.CreateVenue(ctx, venue); err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	return &venue, nil
}

func (s *VenueService) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	venue, err := s.DB.GetVenueByID(ctx, id)
	if err != nil {
		return nil, ErrVenueNotFound
	}
	return venue, nil
}

func (s *VenueService) ListVenues(ctx context.Context, status models.ApprovalStatus) ([]models.Venue, error) {
	return s.DB.ListVenues(ctx, status)
}

// SetApproval applies an admin decision to a pending venue.
func (s *VenueService) SetApproval(ctx context.Context, venueID string, req models.ApprovalRequest) (*models.Venue, error) {
	venue, err := s.DB.GetVenueByID(ctx, venueID)
	if err != nil {
		return nil, ErrVenueNotFound
	}
	if venue.ApprovalStatus != models.VenuePending {
		return nil, ErrAlreadyDecided
	}

	switch req.Action {
	case "approve":
		venue.ApprovalStatus = models.VenueApproved
		venue.RejectionReason = ""
	case "reject":
		if req.RejectionReason == "" {
			return nil, ErrReasonRequired
		}
		venue.ApprovalStatus = models.VenueRejected
		venue.RejectionReason = req.RejectionReason
	default:
		return nil, ErrInvalidAction
	}
	venue.UpdatedAt = s.Clock.Now()

	if err := s.DB.UpdateVenue(ctx, *venue); err != nil {
		return nil, fmt.Errorf("failed to update venue %s: %w", venueID, err)
	}

	payload, err := json.Marshal(map[string]any{
		"venueId":   venue.ID,
		"status":    venue.ApprovalStatus,
		"timestamp": time.Now().UTC(),
	})
	if err == nil {
		if err := s.Kafka.Publish("eventhub.venue.approval", venue.ID, payload); err != nil {
			fmt.Printf("Kafka publish error (venue approval): %v\n", err)
		}
	}
	return venue, nil
}

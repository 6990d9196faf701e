package venue

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventhub/internal/clock"
	"eventhub/internal/models"
)

// Mock implementations for testing

type MockVenueDB struct {
	venues       map[string]*models.Venue
	shouldFailOn string
	errorMsg     string
}

func NewMockVenueDB() *MockVenueDB {
	return &MockVenueDB{venues: make(map[string]*models.Venue)}
}

func (m *MockVenueDB) CreateVenue(ctx context.Context, venue models.Venue) error {
	if m.shouldFailOn == "CreateVenue" {
		return errors.New(m.errorMsg)
	}
	m.venues[venue.ID] = &venue
	return nil
}

func (m *MockVenueDB) GetVenueByID(ctx context.Context, id string) (*models.Venue, error) {
	if m.shouldFailOn == "GetVenueByID" {
		return nil, errors.New(m.errorMsg)
	}
	venue, exists := m.venues[id]
	if !exists {
		return nil, errors.New("venue not found")
	}
	copied := *venue
	return &copied, nil
}

func (m *MockVenueDB) UpdateVenue(ctx context.Context, venue models.Venue) error {
	if m.shouldFailOn == "UpdateVenue" {
		return errors.New(m.errorMsg)
	}
	if _, exists := m.venues[venue.ID]; !exists {
		return errors.New("venue not found")
	}
	m.venues[venue.ID] = &venue
	return nil
}

func (m *MockVenueDB) ListVenues(ctx context.Context, status models.ApprovalStatus) ([]models.Venue, error) {
	var out []models.Venue
	for _, v := range m.venues {
		if status == "" || v.ApprovalStatus == status {
			out = append(out, *v)
		}
	}
	return out, nil
}

type MockApprovalPublisher struct {
	published []string
}

func (m *MockApprovalPublisher) Publish(topic string, key string, value []byte) error {
	m.published = append(m.published, topic)
	return nil
}

func newTestService() (*VenueService, *MockVenueDB, *MockApprovalPublisher) {
	db := NewMockVenueDB()
	pub := &MockApprovalPublisher{}
	svc := NewVenueService(db, pub, clock.NewFixed(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)))
	return svc, db, pub
}

func TestCreateVenueStartsPending(t *testing.T) {
	svc, _, _ := newTestService()

	venue, err := svc.CreateVenue(context.Background(), "owner-1", models.VenueRequest{
		Name: "Main Hall", City: "Bengaluru", Capacity: 200,
	})
	if err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}
	if venue.ApprovalStatus != models.VenuePending {
		t.Errorf("new venues must be pending, got %s", venue.ApprovalStatus)
	}
	if venue.OwnerID != "owner-1" {
		t.Errorf("unexpected owner: %s", venue.OwnerID)
	}
}

func TestCreateVenueValidation(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.CreateVenue(context.Background(), "owner-1", models.VenueRequest{Capacity: 200}); err == nil {
		t.Error("missing name must be rejected")
	}
	if _, err := svc.CreateVenue(context.Background(), "owner-1", models.VenueRequest{Name: "Hall", Capacity: 0}); err == nil {
		t.Error("non-positive capacity must be rejected")
	}
}

func TestSetApprovalApprove(t *testing.T) {
	svc, db, pub := newTestService()
	venue, err := svc.CreateVenue(context.Background(), "owner-1", models.VenueRequest{Name: "Hall", Capacity: 200})
	if err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}

	approved, err := svc.SetApproval(context.Background(), venue.ID, models.ApprovalRequest{Action: "approve"})
	if err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	if approved.ApprovalStatus != models.VenueApproved {
		t.Errorf("expected approved, got %s", approved.ApprovalStatus)
	}
	if db.venues[venue.ID].ApprovalStatus != models.VenueApproved {
		t.Error("approval not persisted")
	}
	if len(pub.published) != 1 || pub.published[0] != "eventhub.venue.approval" {
		t.Errorf("expected one approval event, got %v", pub.published)
	}
}

func TestSetApprovalRejectRequiresReason(t *testing.T) {
	svc, _, _ := newTestService()
	venue, err := svc.CreateVenue(context.Background(), "owner-1", models.VenueRequest{Name: "Hall", Capacity: 200})
	if err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}

	_, err = svc.SetApproval(context.Background(), venue.ID, models.ApprovalRequest{Action: "reject"})
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}

	rejected, err := svc.SetApproval(context.Background(), venue.ID, models.ApprovalRequest{
		Action: "reject", RejectionReason: "zoning restrictions",
	})
	if err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	if rejected.ApprovalStatus != models.VenueRejected {
		t.Errorf("expected rejected, got %s", rejected.ApprovalStatus)
	}
	if rejected.RejectionReason != "zoning restrictions" {
		t.Errorf("unexpected reason: %s", rejected.RejectionReason)
	}
}

func TestSetApprovalOnlyOnce(t *testing.T) {
	svc, _, _ := newTestService()
	venue, err := svc.CreateVenue(context.Background(), "owner-1", models.VenueRequest{Name: "Hall", Capacity: 200})
	if err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}

	if _, err := svc.SetApproval(context.Background(), venue.ID, models.ApprovalRequest{Action: "approve"}); err != nil {
		t.Fatalf("SetApproval failed: %v", err)
	}
	_, err = svc.SetApproval(context.Background(), venue.ID, models.ApprovalRequest{Action: "reject", RejectionReason: "changed my mind"})
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestSetApprovalInvalidAction(t *testing.T) {
	svc, _, _ := newTestService()
	venue, err := svc.CreateVenue(context.Background(), "owner-1", models.VenueRequest{Name: "Hall", Capacity: 200})
	if err != nil {
		t.Fatalf("CreateVenue failed: %v", err)
	}

	_, err = svc.SetApproval(context.Background(), venue.ID, models.ApprovalRequest{Action: "maybe"})
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestSetApprovalUnknownVenue(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.SetApproval(context.Background(), "missing", models.ApprovalRequest{Action: "approve"})
	if !errors.Is(err, ErrVenueNotFound) {
		t.Fatalf("expected ErrVenueNotFound, got %v", err)
	}
}

package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"eventhub/internal/models"
	"eventhub/internal/registration/db"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []any{
		(*models.Event)(nil),
		(*models.TicketTier)(nil),
		(*models.Registration)(nil),
	} {
		if err := bunDB.ResetModel(ctx, model); err != nil {
			t.Fatalf("failed to reset model: %v", err)
		}
	}

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func seedEvent(t *testing.T, d *db.DB, available int) {
	t.Helper()
	ctx := context.Background()

	event := models.Event{
		ID:     "event-1",
		Title:  "Launch Night",
		Status: models.EventUpcoming,
		DateTime: models.DateTime{
			StartDate: time.Now().Add(24 * time.Hour),
			EndDate:   time.Now().Add(28 * time.Hour),
		},
		Pricing: models.Pricing{
			TotalCapacity:    available,
			AvailableTickets: available,
		},
		MaxAttendees: available,
		CreatedAt:    time.Now(),
	}
	if _, err := d.Bun.NewInsert().Model(&event).Exec(ctx); err != nil {
		t.Fatalf("failed to seed event: %v", err)
	}

	tier := models.TicketTier{
		ID:       "tier-1",
		EventID:  "event-1",
		Type:     "General",
		Price:    100,
		Currency: "INR",
		Quantity: models.Quantity{Total: available, Available: available},
		IsActive: true,
	}
	if _, err := d.Bun.NewInsert().Model(&tier).Exec(ctx); err != nil {
		t.Fatalf("failed to seed tier: %v", err)
	}
}

func pendingRegistration(orderID, userID string) models.Registration {
	return models.Registration{
		ID:            "reg-" + orderID,
		EventID:       "event-1",
		UserID:        userID,
		TicketType:    "General",
		Quantity:      1,
		Amount:        100,
		Currency:      "INR",
		OrderID:       orderID,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     time.Now().Round(time.Second),
	}
}

func TestCompleteRegistrationTransitionsAndDecrements(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, 10)
	ctx := context.Background()

	if err := d.CreateRegistration(ctx, pendingRegistration("order-1", "user-1")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}

	completed, transitioned, err := d.CompleteRegistration(ctx, "order-1", "TKT-1", []byte("qr"))
	if err != nil {
		t.Fatalf("CompleteRegistration failed: %v", err)
	}
	if !transitioned {
		t.Fatal("first completion must report a transition")
	}
	if completed.PaymentStatus != models.PaymentCompleted {
		t.Errorf("expected completed, got %s", completed.PaymentStatus)
	}
	if completed.TicketNumber != "TKT-1" || !completed.TicketGenerated {
		t.Error("ticket fields not set on completion")
	}

	tier, err := d.GetTier(ctx, "event-1", "General")
	if err != nil {
		t.Fatalf("GetTier failed: %v", err)
	}
	if tier.Quantity.Available != 9 || tier.Quantity.Sold != 1 {
		t.Errorf("tier not decremented: available=%d sold=%d", tier.Quantity.Available, tier.Quantity.Sold)
	}

	stored, err := d.GetRegistrationByOrderID(ctx, "order-1")
	if err != nil {
		t.Fatalf("GetRegistrationByOrderID failed: %v", err)
	}
	if stored.PaymentStatus != models.PaymentCompleted || stored.TicketNumber != "TKT-1" || !stored.TicketGenerated {
		t.Errorf("ticket fields not persisted: %+v", stored)
	}
}

func TestCompleteRegistrationIsIdempotent(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, 10)
	ctx := context.Background()

	if err := d.CreateRegistration(ctx, pendingRegistration("order-1", "user-1")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}

	if _, _, err := d.CompleteRegistration(ctx, "order-1", "TKT-1", []byte("qr")); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	// Second verify call for the same order: same row back, no transition,
	// no second decrement.
	again, transitioned, err := d.CompleteRegistration(ctx, "order-1", "TKT-2", []byte("qr2"))
	if err != nil {
		t.Fatalf("second completion failed: %v", err)
	}
	if transitioned {
		t.Fatal("second completion must not transition")
	}
	if again.TicketNumber != "TKT-1" {
		t.Errorf("second completion must return the original ticket, got %s", again.TicketNumber)
	}

	tier, err := d.GetTier(ctx, "event-1", "General")
	if err != nil {
		t.Fatalf("GetTier failed: %v", err)
	}
	if tier.Quantity.Available != 9 || tier.Quantity.Sold != 1 {
		t.Errorf("inventory decremented twice: available=%d sold=%d", tier.Quantity.Available, tier.Quantity.Sold)
	}
}

func TestCompleteRegistrationGuardsLastTicket(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, 1)
	ctx := context.Background()

	if err := d.CreateRegistration(ctx, pendingRegistration("order-1", "user-1")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}
	if err := d.CreateRegistration(ctx, pendingRegistration("order-2", "user-2")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}

	if _, _, err := d.CompleteRegistration(ctx, "order-1", "TKT-1", []byte("qr")); err != nil {
		t.Fatalf("first buyer should win the last ticket: %v", err)
	}

	_, _, err := d.CompleteRegistration(ctx, "order-2", "TKT-2", []byte("qr"))
	if !errors.Is(err, db.ErrInsufficientInventory) {
		t.Fatalf("second buyer must hit the inventory guard, got %v", err)
	}

	// The loser's transaction rolled back: their row is still pending.
	loser, err := d.GetRegistrationByOrderID(ctx, "order-2")
	if err != nil {
		t.Fatalf("GetRegistrationByOrderID failed: %v", err)
	}
	if loser.PaymentStatus != models.PaymentPending {
		t.Errorf("loser must stay pending, got %s", loser.PaymentStatus)
	}

	tier, err := d.GetTier(ctx, "event-1", "General")
	if err != nil {
		t.Fatalf("GetTier failed: %v", err)
	}
	if tier.Quantity.Available != 0 || tier.Quantity.Sold != 1 {
		t.Errorf("exactly one decrement expected: available=%d sold=%d", tier.Quantity.Available, tier.Quantity.Sold)
	}
}

func TestMarkFailedLeavesCompletedAlone(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, 10)
	ctx := context.Background()

	if err := d.CreateRegistration(ctx, pendingRegistration("order-1", "user-1")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}
	if _, _, err := d.CompleteRegistration(ctx, "order-1", "TKT-1", []byte("qr")); err != nil {
		t.Fatalf("completion failed: %v", err)
	}

	if err := d.MarkFailed(ctx, "order-1"); err != nil {
		t.Fatalf("MarkFailed errored: %v", err)
	}
	reg, err := d.GetRegistrationByOrderID(ctx, "order-1")
	if err != nil {
		t.Fatalf("GetRegistrationByOrderID failed: %v", err)
	}
	if reg.PaymentStatus != models.PaymentCompleted {
		t.Errorf("completed is terminal, got %s", reg.PaymentStatus)
	}
}

func TestMarkFailedFlipsPending(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, 10)
	ctx := context.Background()

	if err := d.CreateRegistration(ctx, pendingRegistration("order-1", "user-1")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}
	if err := d.MarkFailed(ctx, "order-1"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	reg, err := d.GetRegistrationByOrderID(ctx, "order-1")
	if err != nil {
		t.Fatalf("GetRegistrationByOrderID failed: %v", err)
	}
	if reg.PaymentStatus != models.PaymentFailed {
		t.Errorf("expected failed, got %s", reg.PaymentStatus)
	}

	// Failed rows no longer count as active, so the pair can retry.
	active, err := d.GetActiveRegistration(ctx, "event-1", "user-1")
	if err != nil {
		t.Fatalf("GetActiveRegistration failed: %v", err)
	}
	if active != nil {
		t.Error("failed registration must not block a new order")
	}
}

func TestCreateCompletedRegistrationDuplicate(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, 10)
	ctx := context.Background()

	reg := pendingRegistration("", "user-1")
	reg.ID = "reg-free-1"
	reg.PaymentStatus = models.PaymentCompleted
	reg.TicketNumber = "TKT-1"
	reg.TicketGenerated = true

	if err := d.CreateCompletedRegistration(ctx, reg); err != nil {
		t.Fatalf("first free registration failed: %v", err)
	}

	dup := reg
	dup.ID = "reg-free-2"
	dup.TicketNumber = "TKT-2"
	if err := d.CreateCompletedRegistration(ctx, dup); !errors.Is(err, db.ErrDuplicateActive) {
		t.Fatalf("expected ErrDuplicateActive, got %v", err)
	}

	tier, err := d.GetTier(ctx, "event-1", "General")
	if err != nil {
		t.Fatalf("GetTier failed: %v", err)
	}
	if tier.Quantity.Available != 9 {
		t.Errorf("duplicate must not decrement, available=%d", tier.Quantity.Available)
	}
}

func TestGetRegistrationsByUser(t *testing.T) {
	d := setupTestDB(t)
	seedEvent(t, d, 10)
	ctx := context.Background()

	if err := d.CreateRegistration(ctx, pendingRegistration("order-1", "user-1")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}
	if err := d.CreateRegistration(ctx, pendingRegistration("order-2", "user-2")); err != nil {
		t.Fatalf("failed to create registration: %v", err)
	}

	regs, err := d.GetRegistrationsByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRegistrationsByUser failed: %v", err)
	}
	if len(regs) != 1 || regs[0].OrderID != "order-1" {
		t.Fatalf("unexpected registrations: %+v", regs)
	}
}

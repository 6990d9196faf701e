package selection

import (
	"errors"
	"testing"

	"eventhub/internal/models"
)

func testTiers() []models.TicketTier {
	return []models.TicketTier{
		{Type: "General", Price: 100, Quantity: models.Quantity{Total: 50, Available: 50}, IsActive: true},
		{Type: "VIP", Price: 500, Quantity: models.Quantity{Total: 10, Available: 10}, IsActive: true},
		{Type: "Retired", Price: 50, Quantity: models.Quantity{Total: 10, Available: 10}, IsActive: false},
	}
}

func TestGuardSingleTicketAcrossTiers(t *testing.T) {
	g := NewGuard(testTiers())

	if err := g.SetQuantity("General", 1); err != nil {
		t.Fatalf("first selection should pass: %v", err)
	}
	if err := g.SetQuantity("VIP", 1); !errors.Is(err, ErrExceedsPerUserLimit) {
		t.Fatalf("cross-tier second ticket should hit the per-user cap, got %v", err)
	}
	if g.TotalSelected() != 1 {
		t.Errorf("rejected selection must not mutate state, total = %d", g.TotalSelected())
	}

	// Switching tiers is fine as long as the old one is zeroed first.
	if err := g.SetQuantity("General", 0); err != nil {
		t.Fatalf("clearing selection failed: %v", err)
	}
	if err := g.SetQuantity("VIP", 1); err != nil {
		t.Fatalf("selecting after clearing failed: %v", err)
	}
	if g.TotalSelected() != 1 {
		t.Errorf("expected total 1, got %d", g.TotalSelected())
	}
	if g.TotalAmount() != 500 {
		t.Errorf("expected amount 500, got %f", g.TotalAmount())
	}
}

func TestGuardTypedRejections(t *testing.T) {
	g := NewGuard(testTiers())

	if err := g.SetQuantity("General", -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Errorf("expected ErrNegativeQuantity, got %v", err)
	}
	if err := g.SetQuantity("Backstage", 1); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier, got %v", err)
	}
	if err := g.SetQuantity("General", 2); !errors.Is(err, ErrExceedsPerUserLimit) {
		t.Errorf("expected ErrExceedsPerUserLimit, got %v", err)
	}
	// Inactive tiers are invisible, not just empty.
	if err := g.SetQuantity("Retired", 1); !errors.Is(err, ErrUnknownTier) {
		t.Errorf("expected ErrUnknownTier for inactive tier, got %v", err)
	}
}

func TestGuardRejectsSoldOutTier(t *testing.T) {
	g := NewGuard([]models.TicketTier{
		{Type: "General", Price: 100, Quantity: models.Quantity{Total: 50, Available: 0, Sold: 50}, IsActive: true},
	})

	if err := g.SetQuantity("General", 1); !errors.Is(err, ErrExceedsAvailable) {
		t.Fatalf("expected ErrExceedsAvailable for sold-out tier, got %v", err)
	}
	if g.TotalSelected() != 0 {
		t.Errorf("sold-out rejection must leave nothing selected, total = %d", g.TotalSelected())
	}
}

func TestGuardSelectionSnapshot(t *testing.T) {
	g := NewGuard(testTiers())
	if err := g.SetQuantity("General", 1); err != nil {
		t.Fatalf("selection failed: %v", err)
	}

	sel := g.Selection()
	sel["General"] = 99 // mutating the copy must not touch the guard
	if g.Selection()["General"] != 1 {
		t.Error("Selection must return a copy")
	}
}

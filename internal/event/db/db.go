package db

import (
	"context"

	"eventhub/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// CreateEvent inserts the event and its tiers in one transaction.
func (d *DB) CreateEvent(ctx context.Context, event models.Event, tiers []models.TicketTier) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&event).Exec(ctx); err != nil {
			return err
		}
		if len(tiers) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&tiers).Exec(ctx)
		return err
	})
}

// GetEventByID fetches one event with its tier rows attached.
func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("event_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	var tiers []models.TicketTier
	err = d.Bun.NewSelect().
		Model(&tiers).
		Where("event_id = ?", id).
		Order("type").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	event.Pricing.Tickets = tiers
	return &event, nil
}

// UpdateEvent replaces the event row and its tier set in one transaction.
func (d *DB) UpdateEvent(ctx context.Context, event models.Event, tiers []models.TicketTier) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model(&event).
			Column("title", "description", "category", "status",
				"start_date", "end_date", "timezone",
				"is_free", "total_capacity", "sold_tickets", "available_tickets",
				"venue_id", "max_attendees", "updated_at").
			Where("event_id = ?", event.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		_, err = tx.NewDelete().
			Model((*models.TicketTier)(nil)).
			Where("event_id = ?", event.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if len(tiers) == 0 {
			return nil
		}
		_, err = tx.NewInsert().Model(&tiers).Exec(ctx)
		return err
	})
}

// ListEvents applies the SQL-side filters; status is derived by the service
// afterwards so only category is filtered here.
func (d *DB) ListEvents(ctx context.Context, q models.EventListQuery) ([]models.Event, error) {
	var events []models.Event
	query := d.Bun.NewSelect().Model(&events)
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if err := query.Order("start_date ASC").Scan(ctx); err != nil {
		return nil, err
	}

	for i := range events {
		var tiers []models.TicketTier
		err := d.Bun.NewSelect().
			Model(&tiers).
			Where("event_id = ?", events[i].ID).
			Order("type").
			Scan(ctx)
		if err != nil {
			return nil, err
		}
		events[i].Pricing.Tickets = tiers
	}
	return events, nil
}

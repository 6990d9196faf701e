package db

import (
	"context"

	"eventhub/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateVenue(ctx context.Context, venue models.Venue) error {
	_, err := d.Bun.NewInsert().Model(&venue).Exec(ctx)
	return err
}

func (d *DB) GetVenueByID(ctx context.Context, id string) (*models.Venue, error) {
	var venue models.Venue
	err := d.Bun.NewSelect().
		Model(&venue).
		Where("venue_id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

func (d *DB) UpdateVenue(ctx context.Context, venue models.Venue) error {
	_, err := d.Bun.NewUpdate().
		Model(&venue).
		Column("name", "address", "city", "capacity", "latitude", "longitude",
			"approval_status", "rejection_reason", "updated_at").
		Where("venue_id = ?", venue.ID).
		Exec(ctx)
	return err
}

func (d *DB) ListVenues(ctx context.Context, status models.ApprovalStatus) ([]models.Venue, error) {
	var venues []models.Venue
	query := d.Bun.NewSelect().Model(&venues)
	if status != "" {
		query = query.Where("approval_status = ?", status)
	}
	if err := query.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	return venues, nil
}

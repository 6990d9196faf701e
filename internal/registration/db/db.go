package db

import (
	"context"
	"database/sql"
	"errors"

	"eventhub/internal/models"

	"github.com/uptrace/bun"
)

// ErrInsufficientInventory is returned when the guarded decrement matches no
// row, i.e. the tier no longer has enough available tickets.
var ErrInsufficientInventory = errors.New("insufficient tier inventory")

// ErrDuplicateActive is returned when an insert would violate the one
// non-cancelled registration per (event, user) rule.
var ErrDuplicateActive = errors.New("active registration already exists")

type DB struct {
	Bun *bun.DB
}

// ---------------- REGISTRATIONS ----------------

func (d *DB) CreateRegistration(ctx context.Context, reg models.Registration) error {
	_, err := d.Bun.NewInsert().Model(&reg).Exec(ctx)
	return err
}

func (d *DB) GetRegistrationByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("order_id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetActiveRegistration returns the pending or completed registration for an
// (event, user) pair, if one exists. Failed and cancelled rows do not count:
// they permit a fresh order.
func (d *DB) GetActiveRegistration(ctx context.Context, eventID, userID string) (*models.Registration, error) {
	var reg models.Registration
	err := d.Bun.NewSelect().
		Model(&reg).
		Where("event_id = ?", eventID).
		Where("user_id = ?", userID).
		Where("payment_status IN (?)", bun.In([]models.PaymentStatus{models.PaymentPending, models.PaymentCompleted})).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (d *DB) GetRegistrationsByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := d.Bun.NewSelect().
		Model(&regs).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

// MarkFailed flips a pending registration to failed. Completed rows are left
// alone; completed is terminal.
func (d *DB) MarkFailed(ctx context.Context, orderID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Registration)(nil)).
		Set("payment_status = ?", models.PaymentFailed).
		Where("order_id = ?", orderID).
		Where("payment_status = ?", models.PaymentPending).
		Exec(ctx)
	return err
}

// ---------------- INVENTORY ----------------

// decrementTier is the guarded check-and-decrement: the UPDATE only matches
// while the tier still has enough available tickets, so two concurrent
// buyers can never both take the last one.
func decrementTier(ctx context.Context, tx bun.Tx, eventID, tierType string, qty int) error {
	res, err := tx.NewUpdate().
		Model((*models.TicketTier)(nil)).
		Set("quantity_available = quantity_available - ?", qty).
		Set("quantity_sold = quantity_sold + ?", qty).
		Where("event_id = ?", eventID).
		Where("type = ?", tierType).
		Where("is_active").
		Where("quantity_available >= ?", qty).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientInventory
	}
	return nil
}

func decrementEvent(ctx context.Context, tx bun.Tx, eventID string, qty int) error {
	res, err := tx.NewUpdate().
		Model((*models.Event)(nil)).
		Set("available_tickets = available_tickets - ?", qty).
		Set("sold_tickets = sold_tickets + ?", qty).
		Where("event_id = ?", eventID).
		Where("available_tickets >= ?", qty).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientInventory
	}
	return nil
}

// CompleteRegistration transitions a pending registration to completed and
// decrements inventory, all in one transaction. The returned bool reports
// whether this call performed the transition: a second verify for the same
// order finds the row already completed and transitions nothing, which is
// how double-decrements are ruled out.
func (d *DB) CompleteRegistration(ctx context.Context, orderID, ticketNumber string, qrCode []byte) (*models.Registration, bool, error) {
	var reg models.Registration
	transitioned := false

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model(&reg).
			Where("order_id = ?", orderID).
			Limit(1).
			Scan(ctx)
		if err != nil {
			return err
		}
		if reg.PaymentStatus != models.PaymentPending {
			return nil
		}

		res, err := tx.NewUpdate().
			Model((*models.Registration)(nil)).
			Set("payment_status = ?", models.PaymentCompleted).
			Set("ticket_number = ?", ticketNumber).
			Set("ticket_generated = ?", true).
			Set("qr_code = ?", qrCode).
			Where("order_id = ?", orderID).
			Where("payment_status = ?", models.PaymentPending).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Lost the transition race; re-read the winner's row.
			return tx.NewSelect().Model(&reg).Where("order_id = ?", orderID).Limit(1).Scan(ctx)
		}

		if reg.TicketType != "" {
			if err := decrementTier(ctx, tx, reg.EventID, reg.TicketType, reg.Quantity); err != nil {
				return err
			}
		}
		if err := decrementEvent(ctx, tx, reg.EventID, reg.Quantity); err != nil {
			return err
		}

		reg.PaymentStatus = models.PaymentCompleted
		reg.TicketNumber = ticketNumber
		reg.TicketGenerated = true
		reg.QRCode = qrCode
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &reg, transitioned, nil
}

// CreateCompletedRegistration inserts an already-completed registration and
// decrements inventory in one transaction; used for free events where there
// is no payment leg. The duplicate check runs inside the transaction so the
// at-most-once guarantee holds per (event, user).
func (d *DB) CreateCompletedRegistration(ctx context.Context, reg models.Registration) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Registration)(nil)).
			Where("event_id = ?", reg.EventID).
			Where("user_id = ?", reg.UserID).
			Where("payment_status IN (?)", bun.In([]models.PaymentStatus{models.PaymentPending, models.PaymentCompleted})).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateActive
		}

		if reg.TicketType != "" {
			if err := decrementTier(ctx, tx, reg.EventID, reg.TicketType, reg.Quantity); err != nil {
				return err
			}
		}
		if err := decrementEvent(ctx, tx, reg.EventID, reg.Quantity); err != nil {
			return err
		}

		_, err = tx.NewInsert().Model(&reg).Exec(ctx)
		return err
	})
}

// GetTier fetches one tier of an event by type.
func (d *DB) GetTier(ctx context.Context, eventID, tierType string) (*models.TicketTier, error) {
	var tier models.TicketTier
	err := d.Bun.NewSelect().
		Model(&tier).
		Where("event_id = ?", eventID).
		Where("type = ?", tierType).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

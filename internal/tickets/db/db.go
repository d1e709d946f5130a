package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"umbfest-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// GetTicketByNumber → fetch one ticket by its public code
func (d *DB) GetTicketByNumber(ctx context.Context, ticketNumber string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("ticket_number = ?", ticketNumber).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "ticket", Key: ticketNumber}
		}
		return nil, err
	}
	return &ticket, nil
}

// CountByOrder → number of tickets already issued for an order
func (d *DB) CountByOrder(ctx context.Context, orderID int64) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("order_id = ?", orderID).
		Count(ctx)
}

// ListByOrder → all tickets for an order in issue sequence
func (d *DB) ListByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// InsertBatch inserts the full ticket set for an order in one transaction.
// If any insert fails the whole batch rolls back, so an order never ends up
// with a partial ticket set.
func (d *DB) InsertBatch(ctx context.Context, tickets []models.Ticket) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for i := range tickets {
			if _, err := tx.NewInsert().Model(&tickets[i]).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// Checkin atomically marks a ticket as used. The update only touches rows
// where checked_in is still false; two simultaneous scans of the same code
// race on this condition and exactly one sees rows affected. The caller
// treats false as a race loss and re-fetches to report the winner's
// check-in time.
func (d *DB) Checkin(ctx context.Context, ticketNumber string, now time.Time) (bool, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("checked_in = ?", true).
		Set("checked_in_at = ?", now).
		Where("ticket_number = ?", ticketNumber).
		Where("checked_in = ?", false).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

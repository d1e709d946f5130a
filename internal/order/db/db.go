package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"umbfest-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder → insert new order
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

// GetOrderByNumber → fetch one order by its public order number
func (d *DB) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("order_number = ?", orderNumber).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "order", Key: orderNumber}
		}
		return nil, err
	}
	return &order, nil
}

// GetOrderByID → fetch one order by its internal row ID
func (d *DB) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Entity: "order", Key: fmt.Sprintf("#%d", id)}
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders → all orders newest first, optionally filtered by status
func (d *DB) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	q := d.Bun.NewSelect().Model(&orders)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SetProof stores the proof blob reference and moves the order to
// waiting_verification in one update. Re-submission replaces the reference.
// The update is conditional on the order still awaiting payment or
// verification, so an upload racing an admin decision cannot drag a decided
// order back to waiting_verification: the loser sees zero rows affected and
// gets an InvalidStateError naming the status the decision left behind.
func (d *DB) SetProof(ctx context.Context, orderNumber, fileName, fileURL string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("proof_file_name = ?", fileName).
		Set("proof_file_url = ?", fileURL).
		Set("status = ?", models.StatusWaitingVerification).
		Set("updated_at = ?", time.Now()).
		Where("order_number = ?", orderNumber).
		Where("status IN (?)", bun.In([]models.OrderStatus{models.StatusPendingPayment, models.StatusWaitingVerification})).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		order, err := d.GetOrderByNumber(ctx, orderNumber)
		if err != nil {
			return err
		}
		return &models.InvalidStateError{
			OrderNumber: orderNumber,
			Current:     order.Status,
			Expected:    models.StatusPendingPayment,
		}
	}
	return nil
}

// ClearProof removes the stored proof reference without touching status.
func (d *DB) ClearProof(ctx context.Context, orderNumber string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("proof_file_name = NULL").
		Set("proof_file_url = NULL").
		Set("updated_at = ?", time.Now()).
		Where("order_number = ?", orderNumber).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &models.NotFoundError{Entity: "order", Key: orderNumber}
	}
	return nil
}

// Decide transitions an order from waiting_verification to the decided status
// and appends the verification log entry in the same transaction. The status
// update is conditional on the current status, so two concurrent decisions on
// the same order cannot both succeed: the loser sees zero rows affected and
// gets an InvalidStateError naming the status the winner left behind.
func (d *DB) Decide(ctx context.Context, orderNumber string, decision models.OrderStatus, adminName, notes string) (*models.Order, error) {
	var decided models.Order

	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var order models.Order
		err := tx.NewSelect().
			Model(&order).
			Where("order_number = ?", orderNumber).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &models.NotFoundError{Entity: "order", Key: orderNumber}
			}
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("status = ?", decision).
			Set("updated_at = ?", time.Now()).
			Where("order_number = ?", orderNumber).
			Where("status = ?", models.StatusWaitingVerification).
			Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Re-read so the error names the state that beat us.
			current := order.Status
			if err := tx.NewSelect().
				Model(&order).
				Where("order_number = ?", orderNumber).
				Limit(1).
				Scan(ctx); err == nil {
				current = order.Status
			}
			return &models.InvalidStateError{
				OrderNumber: orderNumber,
				Current:     current,
				Expected:    models.StatusWaitingVerification,
			}
		}

		action := models.ActionApproved
		if decision == models.StatusRejected {
			action = models.ActionRejected
		}
		logEntry := &models.VerificationLog{
			OrderID:   order.ID,
			AdminName: adminName,
			Action:    action,
			Notes:     notes,
			CreatedAt: time.Now(),
		}
		if _, err := tx.NewInsert().Model(logEntry).Exec(ctx); err != nil {
			return err
		}

		order.Status = decision
		decided = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &decided, nil
}

// ExpireStale flips every order still awaiting payment or verification with
// an order_date before the cutoff to expired and returns the order numbers
// it swept, so the caller can publish a lifecycle event per order. Each row
// is guarded by its own status precondition, so the sweep is safe to run
// concurrently with itself: an order another sweep or a decision got to
// first is skipped, not reported twice.
func (d *DB) ExpireStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	sweepable := []models.OrderStatus{models.StatusPendingPayment, models.StatusWaitingVerification}

	var expired []string
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var candidates []string
		if err := tx.NewSelect().
			Model((*models.Order)(nil)).
			Column("order_number").
			Where("status IN (?)", bun.In(sweepable)).
			Where("order_date < ?", cutoff).
			Scan(ctx, &candidates); err != nil {
			return err
		}

		for _, orderNumber := range candidates {
			res, err := tx.NewUpdate().
				Model((*models.Order)(nil)).
				Set("status = ?", models.StatusExpired).
				Set("updated_at = ?", time.Now()).
				Where("order_number = ?", orderNumber).
				Where("status IN (?)", bun.In(sweepable)).
				Exec(ctx)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected > 0 {
				expired = append(expired, orderNumber)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// GetVerificationLogs → audit trail entries for an order, oldest first
func (d *DB) GetVerificationLogs(ctx context.Context, orderID int64) ([]models.VerificationLog, error) {
	var logs []models.VerificationLog
	err := d.Bun.NewSelect().
		Model(&logs).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return logs, nil
}

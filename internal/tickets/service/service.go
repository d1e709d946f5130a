package tickets

import (
	"context"
	"fmt"
	"time"

	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/models"
	"umbfest-ticketing/internal/utils"
)

type TicketDBLayer interface {
	GetTicketByNumber(ctx context.Context, ticketNumber string) (*models.Ticket, error)
	CountByOrder(ctx context.Context, orderID int64) (int, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error)
	InsertBatch(ctx context.Context, tickets []models.Ticket) error
	Checkin(ctx context.Context, ticketNumber string, now time.Time) (bool, error)
}

type OrderDBLayer interface {
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
}

type QREncoder interface {
	Generate(ticketNumber string) ([]byte, error)
}

type EventPublisher interface {
	PublishTicketCheckedIn(result *models.ScanResult) error
}

type TicketService struct {
	DB      TicketDBLayer
	OrderDB OrderDBLayer
	QR      QREncoder
	Events  EventPublisher
	Logger  *logger.Logger
}

func NewTicketService(db TicketDBLayer, orderDB OrderDBLayer, qr QREncoder, events EventPublisher, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, OrderDB: orderDB, QR: qr, Events: events, Logger: log}
}

// Generate issues the full ticket set for a verified order. It is idempotent:
// when tickets already exist for the order the stored set is returned
// unchanged, so duplicate admin clicks or retried requests never double-issue.
func (s *TicketService) Generate(ctx context.Context, orderNumber string) ([]models.Ticket, error) {
	order, err := s.OrderDB.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusVerified {
		return nil, &models.InvalidStateError{
			OrderNumber: orderNumber,
			Current:     order.Status,
			Expected:    models.StatusVerified,
		}
	}

	existing, err := s.DB.CountByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets for order %s: %w", orderNumber, err)
	}
	if existing > 0 {
		if existing != order.Quantity {
			s.Logger.Warn("TICKET", fmt.Sprintf("order %s has %d tickets but quantity %d", orderNumber, existing, order.Quantity))
		}
		s.Logger.LogTicket("GENERATE", orderNumber, "tickets already generated, returning existing set")
		return s.DB.ListByOrder(ctx, order.ID)
	}

	now := time.Now()
	batch := make([]models.Ticket, 0, order.Quantity)
	for i := 1; i <= order.Quantity; i++ {
		code := utils.TicketCode(order.OrderNumber, i)
		qrBytes, err := s.QR.Generate(code)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR: %w", err)
		}
		batch = append(batch, models.Ticket{
			OrderID:      order.ID,
			TicketNumber: code,
			HolderName:   order.FullName,
			Status:       models.TicketActive,
			QRCode:       qrBytes,
			IssuedAt:     now,
		})
	}

	if err := s.DB.InsertBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to insert tickets for order %s: %w", orderNumber, err)
	}

	s.Logger.LogTicket("GENERATE", orderNumber, fmt.Sprintf("issued %d tickets", len(batch)))
	return s.DB.ListByOrder(ctx, order.ID)
}

// Scan validates a ticket code at the gate and consumes it exactly once.
func (s *TicketService) Scan(ctx context.Context, code string) (*models.ScanResult, error) {
	ticket, err := s.DB.GetTicketByNumber(ctx, code)
	if err != nil {
		return nil, err
	}

	order, err := s.OrderDB.GetOrderByID(ctx, ticket.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusVerified {
		return nil, &models.OrderNotVerifiedError{TicketNumber: code, OrderStatus: order.Status}
	}

	if ticket.CheckedIn {
		return nil, &models.AlreadyUsedError{TicketNumber: code, CheckedInAt: ticket.CheckedInAt}
	}

	if ticket.Status != models.TicketActive {
		return nil, &models.TicketInactiveError{TicketNumber: code, Status: ticket.Status}
	}

	ok, err := s.DB.Checkin(ctx, code, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to check in ticket %s: %w", code, err)
	}
	if !ok {
		// Lost the race against a simultaneous scan. Re-fetch so the
		// rejection reports the winner's check-in time.
		fresh, err := s.DB.GetTicketByNumber(ctx, code)
		if err != nil {
			return nil, err
		}
		return nil, &models.AlreadyUsedError{TicketNumber: code, CheckedInAt: fresh.CheckedInAt}
	}

	s.Logger.LogTicket("CHECKIN", code, fmt.Sprintf("holder %s admitted", ticket.HolderName))
	result := &models.ScanResult{
		TicketNumber: ticket.TicketNumber,
		HolderName:   ticket.HolderName,
		OrderNumber:  order.OrderNumber,
	}

	if s.Events != nil {
		if err := s.Events.PublishTicketCheckedIn(result); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish ticket checked in failed: %v", err))
		}
	}

	return result, nil
}

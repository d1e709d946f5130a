package order

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"umbfest-ticketing/internal/config"
	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/models"
	"umbfest-ticketing/internal/utils"

	"github.com/google/uuid"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{9,13}$`)
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	SetProof(ctx context.Context, orderNumber, fileName, fileURL string) error
	ClearProof(ctx context.Context, orderNumber string) error
	Decide(ctx context.Context, orderNumber string, decision models.OrderStatus, adminName, notes string) (*models.Order, error)
	ExpireStale(ctx context.Context, cutoff time.Time) ([]string, error)
}

type TicketIssuer interface {
	Generate(ctx context.Context, orderNumber string) ([]models.Ticket, error)
}

type Notifier interface {
	SendTickets(ctx context.Context, payload models.TicketNotification) error
}

type ProofStore interface {
	Delete(fileURL string) (bool, error)
}

type DecisionLock interface {
	LockDecision(orderNumber, token string) (bool, error)
	UnlockDecision(orderNumber, token string) error
}

type EventPublisher interface {
	PublishOrderCreated(order *models.Order) error
	PublishOrderDecided(order *models.Order) error
	PublishOrderExpired(orderNumber string) error
}

// OrderService is the order lifecycle engine: it owns every legal status
// transition and the side effects (ticket issuance, notification, proof
// reclamation) each transition triggers.
type OrderService struct {
	DB      DBLayer
	Tickets TicketIssuer
	Notify  Notifier
	Proofs  ProofStore
	Lock    DecisionLock
	Events  EventPublisher
	Pricing config.PricingConfig
	Event   config.EventConfig
	TTL     time.Duration
	Logger  *logger.Logger
}

func NewOrderService(db DBLayer, tickets TicketIssuer, notify Notifier, proofs ProofStore, lock DecisionLock, events EventPublisher, cfg *config.Config, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:      db,
		Tickets: tickets,
		Notify:  notify,
		Proofs:  proofs,
		Lock:    lock,
		Events:  events,
		Pricing: cfg.Pricing,
		Event:   cfg.Event,
		TTL:     cfg.Orders.TTL,
		Logger:  log,
	}
}

// CreateOrder validates the buyer input, prices the order from the
// server-held price table and persists it as pending_payment. Client-sent
// prices or totals are never consulted.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if err := s.validateBuyer(req); err != nil {
		return nil, err
	}

	paymentMethod := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if paymentMethod == "" {
		paymentMethod = "qris"
	}
	if paymentMethod != "qris" && paymentMethod != "transfer" {
		return nil, &models.ValidationError{Field: "paymentMethod", Reason: "must be qris or transfer"}
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:   utils.GenerateOrderNumber(now),
		FullName:      strings.TrimSpace(req.FullName),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		IDNumber:      strings.TrimSpace(req.IDNumber),
		Quantity:      req.Quantity,
		TicketPrice:   s.Pricing.TicketPrice,
		AdminFee:      s.Pricing.AdminFee,
		Total:         req.Quantity*s.Pricing.TicketPrice + s.Pricing.AdminFee,
		PaymentMethod: paymentMethod,
		Status:        models.StatusPendingPayment,
		OrderDate:     now,
		CreatedAt:     now,
	}

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.Logger.LogOrder("CREATE", order.OrderNumber, fmt.Sprintf("qty=%d total=%d", order.Quantity, order.Total))

	if s.Events != nil {
		if err := s.Events.PublishOrderCreated(order); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish order created failed: %v", err))
		}
	}

	return order, nil
}

func (s *OrderService) validateBuyer(req models.CreateOrderRequest) error {
	if strings.TrimSpace(req.FullName) == "" {
		return &models.ValidationError{Field: "fullName", Reason: "must not be empty"}
	}
	if !emailPattern.MatchString(strings.TrimSpace(req.Email)) {
		return &models.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if !phonePattern.MatchString(strings.TrimSpace(req.Phone)) {
		return &models.ValidationError{Field: "phone", Reason: "must be 9-13 digits"}
	}
	if strings.TrimSpace(req.IDNumber) == "" {
		return &models.ValidationError{Field: "idNumber", Reason: "must not be empty"}
	}
	if req.Quantity < 1 || req.Quantity > s.Pricing.MaxQuantity {
		return &models.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be between 1 and %d", s.Pricing.MaxQuantity)}
	}
	return nil
}

// GetOrder fetches one order by its public number.
func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.DB.GetOrderByNumber(ctx, orderNumber)
}

// ListOrders returns all orders (optionally filtered by status) together with
// the aggregate counters the admin panel shows. Revenue only counts verified
// orders.
func (s *OrderService) ListOrders(ctx context.Context, statusFilter string) (*models.OrderListing, error) {
	var filter models.OrderStatus
	if statusFilter != "" && statusFilter != "all" {
		parsed, ok := models.ParseOrderStatus(statusFilter)
		if !ok {
			return nil, &models.ValidationError{Field: "status", Reason: "unknown status filter"}
		}
		filter = parsed
	}

	orders, err := s.DB.ListOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	stats := models.OrderStats{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case models.StatusWaitingVerification:
			stats.Waiting++
		case models.StatusVerified:
			stats.Verified++
			stats.Revenue += o.Total
		}
	}

	if orders == nil {
		orders = []models.Order{}
	}
	return &models.OrderListing{Orders: orders, Statistics: stats}, nil
}

// AttachProof stores the payment-proof reference and moves the order to
// waiting_verification. Re-submitting before a decision replaces the stored
// reference; a decided order rejects the upload.
func (s *OrderService) AttachProof(ctx context.Context, orderNumber, fileName, fileURL string) (*models.Order, error) {
	order, err := s.DB.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusPendingPayment && order.Status != models.StatusWaitingVerification {
		return nil, &models.InvalidStateError{
			OrderNumber: orderNumber,
			Current:     order.Status,
			Expected:    models.StatusPendingPayment,
		}
	}

	replaced := order.ProofUploaded()
	if err := s.DB.SetProof(ctx, orderNumber, fileName, fileURL); err != nil {
		return nil, fmt.Errorf("failed to store proof reference: %w", err)
	}

	if replaced && s.Proofs != nil && order.ProofFileURL != fileURL {
		// Reclaim the superseded blob; losing it is not worth failing
		// the submission over.
		if _, err := s.Proofs.Delete(order.ProofFileURL); err != nil {
			s.Logger.Warn("PROOF", (&models.DependencyFailure{Op: "delete replaced proof", Err: err}).Error())
		}
	}

	order.ProofFileName = fileName
	order.ProofFileURL = fileURL
	order.Status = models.StatusWaitingVerification
	s.Logger.LogOrder("PROOF", orderNumber, fmt.Sprintf("proof attached (%s)", fileName))
	return order, nil
}

// ClearProof deletes the stored proof blob and clears the reference. The
// returned bool reports whether a file was actually removed.
func (s *OrderService) ClearProof(ctx context.Context, orderNumber string) (bool, error) {
	order, err := s.DB.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return false, err
	}

	deleted := false
	if s.Proofs != nil && order.ProofFileURL != "" {
		deleted, err = s.Proofs.Delete(order.ProofFileURL)
		if err != nil {
			s.Logger.Warn("PROOF", (&models.DependencyFailure{Op: "delete proof blob", Err: err}).Error())
		}
	}

	if err := s.DB.ClearProof(ctx, orderNumber); err != nil {
		return deleted, fmt.Errorf("failed to clear proof reference: %w", err)
	}

	s.Logger.LogOrder("PROOF", orderNumber, "proof cleared")
	return deleted, nil
}

// Decide applies the admin verdict on an order awaiting verification. The
// status update and audit log entry commit atomically; a verified outcome
// then triggers ticket issuance and the buyer notification, a rejected
// outcome reclaims the proof blob. Notification and blob failures are logged
// warnings, never order-processing errors.
func (s *OrderService) Decide(ctx context.Context, orderNumber, decision, adminName, notes string) (*models.Order, error) {
	var newStatus models.OrderStatus
	switch decision {
	case string(models.StatusVerified):
		newStatus = models.StatusVerified
	case string(models.StatusRejected):
		newStatus = models.StatusRejected
	default:
		return nil, &models.ValidationError{Field: "decision", Reason: "must be verified or rejected"}
	}
	if strings.TrimSpace(adminName) == "" {
		return nil, &models.ValidationError{Field: "adminName", Reason: "must not be empty"}
	}

	if s.Lock != nil {
		token := uuid.NewString()
		ok, err := s.Lock.LockDecision(orderNumber, token)
		if err != nil {
			// The conditional update inside the transaction is the real
			// guard; a broken lock service must not block admins.
			s.Logger.Warn("REDIS", fmt.Sprintf("decision lock unavailable for %s: %v", orderNumber, err))
		} else if !ok {
			return nil, fmt.Errorf("another decision for order %s is in progress", orderNumber)
		} else {
			defer func() {
				if err := s.Lock.UnlockDecision(orderNumber, token); err != nil {
					s.Logger.Warn("REDIS", fmt.Sprintf("failed to release decision lock for %s: %v", orderNumber, err))
				}
			}()
		}
	}

	order, err := s.DB.Decide(ctx, orderNumber, newStatus, adminName, notes)
	if err != nil {
		return nil, err
	}
	s.Logger.LogOrder("DECIDE", orderNumber, fmt.Sprintf("%s by %s", newStatus, adminName))

	switch newStatus {
	case models.StatusVerified:
		if err := s.issueAndNotify(ctx, order); err != nil {
			// The decision is committed; ticket generation is
			// idempotent and safe to retry via the ticket endpoint.
			return order, fmt.Errorf("order approved but ticket generation failed: %w", err)
		}
	case models.StatusRejected:
		s.reclaimProof(ctx, order)
	}

	if s.Events != nil {
		if err := s.Events.PublishOrderDecided(order); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("publish order decided failed: %v", err))
		}
	}

	return order, nil
}

func (s *OrderService) issueAndNotify(ctx context.Context, order *models.Order) error {
	issued, err := s.Tickets.Generate(ctx, order.OrderNumber)
	if err != nil {
		return err
	}

	codes := make([]string, len(issued))
	for i, t := range issued {
		codes[i] = t.TicketNumber
	}

	payload := models.TicketNotification{
		Name:        order.FullName,
		Email:       order.Email,
		TicketCodes: codes,
		OrderNumber: order.OrderNumber,
		Quantity:    order.Quantity,
		Total:       order.Total,
		EventDate:   s.Event.Date,
		EventTime:   s.Event.Time,
		EventVenue:  s.Event.Venue,
	}
	if err := s.Notify.SendTickets(ctx, payload); err != nil {
		s.Logger.Warn("NOTIFY", fmt.Sprintf("order %s approved but notification failed: %v", order.OrderNumber, err))
	}
	return nil
}

func (s *OrderService) reclaimProof(ctx context.Context, order *models.Order) {
	if order.ProofFileURL != "" && s.Proofs != nil {
		if _, err := s.Proofs.Delete(order.ProofFileURL); err != nil {
			s.Logger.Warn("PROOF", (&models.DependencyFailure{Op: "delete rejected proof", Err: err}).Error())
		}
	}
	if err := s.DB.ClearProof(ctx, order.OrderNumber); err != nil {
		s.Logger.Warn("PROOF", fmt.Sprintf("failed to clear proof reference for %s: %v", order.OrderNumber, err))
	}
	order.ProofFileName = ""
	order.ProofFileURL = ""
}

// ExpireStaleOrders transitions every order still awaiting payment or
// verification past the TTL to expired and returns how many were swept.
// Each swept order is announced on the lifecycle topic.
func (s *OrderService) ExpireStaleOrders(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.DB.ExpireStale(ctx, now.Add(-s.TTL))
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale orders: %w", err)
	}
	if len(expired) > 0 {
		s.Logger.LogOrder("EXPIRE", "sweep", fmt.Sprintf("%d orders expired", len(expired)))
	}

	if s.Events != nil {
		for _, orderNumber := range expired {
			if err := s.Events.PublishOrderExpired(orderNumber); err != nil {
				s.Logger.Warn("KAFKA", fmt.Sprintf("publish order expired failed for %s: %v", orderNumber, err))
			}
		}
	}

	return int64(len(expired)), nil
}

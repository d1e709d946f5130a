package models

// OrderStatus is the closed set of states an order moves through. Every
// transition is validated at the boundary instead of comparing raw strings
// in handlers.
type OrderStatus string

const (
	StatusPendingPayment      OrderStatus = "pending_payment"
	StatusWaitingVerification OrderStatus = "waiting_verification"
	StatusVerified            OrderStatus = "verified"
	StatusRejected            OrderStatus = "rejected"
	StatusExpired             OrderStatus = "expired"
)

func (s OrderStatus) String() string {
	return string(s)
}

// Valid reports whether the value is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusWaitingVerification, StatusVerified, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether the order can no longer move to another status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusVerified, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo validates a single state-machine edge.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case StatusPendingPayment:
		return next == StatusWaitingVerification || next == StatusExpired
	case StatusWaitingVerification:
		return next == StatusVerified || next == StatusRejected || next == StatusExpired
	}
	return false
}

// ParseOrderStatus converts a raw string into an OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(raw)
	return s, s.Valid()
}

// Ticket statuses. Tickets are never deleted, only voided.
const (
	TicketActive = "active"
	TicketVoided = "voided"
)

// Verification log actions.
const (
	ActionApproved = "APPROVED"
	ActionRejected = "REJECTED"
)

package models

import (
	"fmt"
	"time"
)

// ValidationError reports malformed or missing input. The caller can fix
// the input and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown order or ticket.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// InvalidStateError reports an attempted transition that violates the order
// state machine. It names the current and expected states so the operator
// can tell a double-submit from a genuinely wrong call.
type InvalidStateError struct {
	OrderNumber string
	Current     OrderStatus
	Expected    OrderStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("order %s is %s, expected %s", e.OrderNumber, e.Current, e.Expected)
}

// AlreadyUsedError is returned by the redemption gate when a ticket was
// already checked in. CheckedInAt carries the original check-in time for
// the gate staff.
type AlreadyUsedError struct {
	TicketNumber string
	CheckedInAt  time.Time
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("ticket %s already used at %s", e.TicketNumber, e.CheckedInAt.Format("02 Jan 2006 15:04"))
}

// TicketInactiveError is returned when a scanned ticket is not active.
type TicketInactiveError struct {
	TicketNumber string
	Status       string
}

func (e *TicketInactiveError) Error() string {
	return fmt.Sprintf("ticket %s is %s", e.TicketNumber, e.Status)
}

// OrderNotVerifiedError is returned when a scanned ticket belongs to an order
// that is not (or no longer) verified.
type OrderNotVerifiedError struct {
	TicketNumber string
	OrderStatus  OrderStatus
}

func (e *OrderNotVerifiedError) Error() string {
	return fmt.Sprintf("ticket %s belongs to an unverified order (status: %s)", e.TicketNumber, e.OrderStatus)
}

// DependencyFailure wraps a non-fatal external failure (notification webhook,
// proof blob deletion). It is logged and surfaced as a warning, never rolled
// back into the primary transaction.
type DependencyFailure struct {
	Op  string
	Err error
}

func (e *DependencyFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *DependencyFailure) Unwrap() error {
	return e.Err
}

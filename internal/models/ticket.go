package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderID      int64     `bun:"order_id,notnull" json:"orderId"`
	TicketNumber string    `bun:"ticket_number,notnull,unique" json:"ticketNumber"`
	HolderName   string    `bun:"ticket_holder_name,notnull" json:"holderName"`
	Status       string    `bun:"status,notnull" json:"status"`
	QRCode       []byte    `bun:"qr_code" json:"-"`
	CheckedIn    bool      `bun:"checked_in,notnull,default:false" json:"checkedIn"`
	CheckedInAt  time.Time `bun:"checked_in_at,nullzero" json:"checkedInAt,omitempty"`
	IssuedAt     time.Time `bun:"issued_at,notnull" json:"issuedAt"`
}

// ScanResult is what the gate client displays after a successful redemption.
type ScanResult struct {
	TicketNumber string `json:"ticket_number"`
	HolderName   string `json:"holder_name"`
	OrderNumber  string `json:"order_number"`
}

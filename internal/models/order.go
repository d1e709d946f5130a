package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            int64       `bun:"id,pk,autoincrement" json:"id"`
	OrderNumber   string      `bun:"order_number,notnull,unique" json:"orderNumber"`
	FullName      string      `bun:"full_name,notnull" json:"fullName"`
	Email         string      `bun:"email,notnull" json:"email"`
	Phone         string      `bun:"phone,notnull" json:"phone"`
	IDNumber      string      `bun:"id_number,notnull" json:"idNumber"`
	Quantity      int         `bun:"quantity,notnull" json:"quantity"`
	TicketPrice   int         `bun:"ticket_price,notnull" json:"ticketPrice"`
	AdminFee      int         `bun:"admin_fee,notnull" json:"adminFee"`
	Total         int         `bun:"total,notnull" json:"total"`
	PaymentMethod string      `bun:"payment_method,notnull" json:"paymentMethod"`
	Status        OrderStatus `bun:"status,notnull" json:"status"`
	ProofFileName string      `bun:"proof_file_name,nullzero" json:"proofFileName,omitempty"`
	ProofFileURL  string      `bun:"proof_file_url,nullzero" json:"proofFileUrl,omitempty"`
	OrderDate     time.Time   `bun:"order_date,notnull" json:"orderDate"`
	CreatedAt     time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time   `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// ProofUploaded reports whether a payment proof reference is stored.
func (o *Order) ProofUploaded() bool {
	return o.ProofFileName != "" || o.ProofFileURL != ""
}

// OrderStats is the aggregate block the admin panel shows next to the order
// list. Revenue only counts verified orders.
type OrderStats struct {
	Total    int `json:"total"`
	Waiting  int `json:"waiting"`
	Verified int `json:"verified"`
	Revenue  int `json:"revenue"`
}

type OrderListing struct {
	Orders     []Order    `json:"orders"`
	Statistics OrderStats `json:"statistics"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// VerificationLog is the append-only audit trail of admin decisions. One row
// per decision, written in the same transaction as the status update.
type VerificationLog struct {
	bun.BaseModel `bun:"table:verification_logs"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderID   int64     `bun:"order_id,notnull" json:"orderId"`
	AdminName string    `bun:"admin_name,notnull" json:"adminName"`
	Action    string    `bun:"action,notnull" json:"action"`
	Notes     string    `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

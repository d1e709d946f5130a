package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	orderNumberPrefix = "UMB"
	ticketCodePrefix  = "UMBFEST"
)

// GenerateOrderNumber builds a globally unique order number: the UMB prefix,
// a 14-digit timestamp and a 4-digit random suffix so two orders created in
// the same second do not collide.
func GenerateOrderNumber(t time.Time) string {
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("%s%s%04d", orderNumberPrefix, t.Format("20060102150405"), randomNum.Int64())
}

// TicketCode builds the code for the seq-th ticket (1-based) of an order:
// UMBFEST-<order number without prefix>-<zero-padded sequence>.
func TicketCode(orderNumber string, seq int) string {
	suffix := strings.TrimPrefix(orderNumber, orderNumberPrefix)
	return fmt.Sprintf("%s-%s-%03d", ticketCodePrefix, suffix, seq)
}

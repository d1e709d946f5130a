package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	ts := time.Date(2025, 11, 26, 7, 12, 59, 0, time.UTC)

	got := GenerateOrderNumber(ts)

	assert.Regexp(t, regexp.MustCompile(`^UMB20251126071259\d{4}$`), got)
}

func TestGenerateOrderNumberCollisionResistance(t *testing.T) {
	ts := time.Date(2025, 11, 26, 7, 12, 59, 0, time.UTC)

	seen := make(map[string]bool)
	dup := 0
	for i := 0; i < 50; i++ {
		n := GenerateOrderNumber(ts)
		if seen[n] {
			dup++
		}
		seen[n] = true
	}
	// A handful of birthday collisions over a 10k space is possible;
	// everything colliding would mean the random suffix is broken.
	assert.Less(t, dup, 5)
}

func TestTicketCode(t *testing.T) {
	assert.Equal(t, "UMBFEST-20251126071259-001", TicketCode("UMB20251126071259", 1))
	assert.Equal(t, "UMBFEST-20251126071259-012", TicketCode("UMB20251126071259", 12))
	assert.Equal(t, "UMBFEST-20251126071259-123", TicketCode("UMB20251126071259", 123))
}

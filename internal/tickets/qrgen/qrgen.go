package qrgen

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Generator renders ticket codes as QR PNGs for the email attachment and
// the gate scanner.
type Generator struct {
	size int
}

func NewGenerator() *Generator {
	return &Generator{size: 256}
}

// Generate encodes the ticket code into a PNG image.
func (g *Generator) Generate(ticketNumber string) ([]byte, error) {
	png, err := qrcode.Encode(ticketNumber, qrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR for %s: %w", ticketNumber, err)
	}
	return png, nil
}

package models

type CreateOrderRequest struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	IDNumber      string `json:"idNumber"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"paymentMethod"`
}

type DecisionRequest struct {
	Decision  string `json:"decision"`
	AdminName string `json:"adminName"`
	Notes     string `json:"notes"`
}

type ScanRequest struct {
	Code string `json:"code"`
}

// TicketNotification is the payload posted to the external email webhook
// after tickets are issued.
type TicketNotification struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	TicketCodes []string `json:"ticket_codes"`
	OrderNumber string   `json:"order_number"`
	Quantity    int      `json:"quantity"`
	Total       int      `json:"total"`
	EventDate   string   `json:"event_date"`
	EventTime   string   `json:"event_time"`
	EventVenue  string   `json:"event_venue"`
}

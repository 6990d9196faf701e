package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Registration is the ledger record for one (event, user) pair. At most one
// non-cancelled row exists per pair; available/sold tier counts mutate only
// through this record's state transitions.
type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID              string        `bun:"registration_id,pk" json:"id"`
	EventID         string        `bun:"event_id,notnull" json:"eventId"`
	UserID          string        `bun:"user_id,notnull" json:"userId"`
	TicketType      string        `bun:"ticket_type" json:"ticketType"`
	Quantity        int           `bun:"quantity" json:"quantity"`
	Amount          float64       `bun:"amount" json:"amount"`
	Currency        string        `bun:"currency" json:"currency"`
	OrderID         string        `bun:"order_id,nullzero" json:"orderId,omitempty"`
	PaymentStatus   PaymentStatus `bun:"payment_status" json:"paymentStatus"`
	TicketNumber    string        `bun:"ticket_number,nullzero" json:"ticketNumber,omitempty"`
	TicketGenerated bool          `bun:"ticket_generated" json:"ticketGenerated"`
	QRCode          []byte        `bun:"qr_code" json:"qrCode,omitempty"`
	CreatedAt       time.Time     `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time     `bun:"updated_at" json:"updatedAt"`
}

type RegisterRequest struct {
	TicketType string `json:"ticketType"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderRequest struct {
	EventID    string `json:"eventId"`
	TicketType string `json:"ticketType"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderResponse struct {
	OrderID  string  `json:"orderId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// VerifyPaymentRequest mirrors the checkout callback the payment provider
// posts back to the client, which the client forwards verbatim.
type VerifyPaymentRequest struct {
	OrderID    string `json:"razorpay_order_id"`
	PaymentID  string `json:"razorpay_payment_id"`
	Signature  string `json:"razorpay_signature"`
	EventID    string `json:"eventId"`
	TicketType string `json:"ticketType"`
	Quantity   int    `json:"quantity"`
}

type RegistrationEvent struct {
	Type         string    `json:"type"`
	Registration string    `json:"registrationId"`
	EventID      string    `json:"eventId"`
	UserID       string    `json:"userId"`
	TicketType   string    `json:"ticketType"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

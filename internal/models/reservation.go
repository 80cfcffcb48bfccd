package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	StatusPendingVerification ReservationStatus = "pending_verification"
	StatusConfirmed           ReservationStatus = "confirmed"
	StatusRejected            ReservationStatus = "rejected"
	StatusCancelled           ReservationStatus = "cancelled"
	StatusCompleted           ReservationStatus = "completed"
)

// Terminal reports whether no further transitions are permitted.
func (s ReservationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusCompleted
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID            string `bun:"id,pk" json:"id"`
	BookingCode   string `bun:"booking_code,unique" json:"booking_code"`
	CustomerName  string `bun:"customer_name" json:"customer_name"`
	CustomerEmail string `bun:"customer_email" json:"customer_email"`
	CustomerPhone string `bun:"customer_phone" json:"customer_phone"`
	TableID       string `bun:"table_id" json:"table_id"`

	ReservationDate string  `bun:"reservation_date" json:"reservation_date"` // YYYY-MM-DD
	ReservationTime string  `bun:"reservation_time" json:"reservation_time"` // HH:MM
	NumberOfPeople  int     `bun:"number_of_people" json:"number_of_people"`
	DurationHours   float64 `bun:"duration_hours" json:"duration_hours"`

	TotalAmount  float64           `bun:"total_amount" json:"total_amount"`
	Status       ReservationStatus `bun:"status" json:"status"`
	SpecialNotes string            `bun:"special_notes,nullzero" json:"special_notes,omitempty"`

	VerifiedBy      string     `bun:"verified_by,nullzero" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	RejectionReason string     `bun:"rejection_reason,nullzero" json:"rejection_reason,omitempty"`

	// QR of the booking code, issued once the reservation is confirmed.
	BookingQR []byte `bun:"booking_qr,nullzero" json:"booking_qr,omitempty"`

	CreatedAt time.Time `bun:"created_at" json:"created_at"`

	Table   *Table             `bun:"rel:belongs-to,join:table_id=id" json:"table,omitempty"`
	Items   []*ReservationItem `bun:"rel:has-many,join:id=reservation_id" json:"items,omitempty"`
	Payment *Payment           `bun:"rel:has-one,join:id=reservation_id" json:"payment,omitempty"`
}

type ReservationItem struct {
	bun.BaseModel `bun:"table:reservation_items"`

	ID            string  `bun:"id,pk" json:"id"`
	ReservationID string  `bun:"reservation_id" json:"reservation_id"`
	MenuID        string  `bun:"menu_id" json:"menu_id"`
	Quantity      int     `bun:"quantity" json:"quantity"`
	PriceAtOrder  float64 `bun:"price_at_order" json:"price_at_order"`
	Variations    string  `bun:"variations,nullzero" json:"variations,omitempty"` // serialized selections
	Subtotal      float64 `bun:"subtotal" json:"subtotal"`

	Menu *Menu `bun:"rel:belongs-to,join:menu_id=id" json:"menu,omitempty"`
}

// OrderLine is one requested menu line on a create-reservation request.
type OrderLine struct {
	MenuID    string   `json:"menu_id"`
	Quantity  int      `json:"quantity"`
	OptionIDs []string `json:"variation_option_ids,omitempty"`
}

// ReservationRequest is the create-reservation payload.
type ReservationRequest struct {
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	TableID         string      `json:"table_id"`
	ReservationDate string      `json:"reservation_date"`
	ReservationTime string      `json:"reservation_time"`
	NumberOfPeople  int         `json:"number_of_people"`
	DurationHours   float64     `json:"duration_hours"`
	SpecialNotes    string      `json:"special_notes,omitempty"`
	OrderItems      []OrderLine `json:"order_items"`
	PaymentProofURL string      `json:"payment_proof_url,omitempty"`
}

// AvailabilityRequest is shared by the single-table and bulk checks.
type AvailabilityRequest struct {
	TableID         string  `json:"table_id,omitempty"`
	ReservationDate string  `json:"reservation_date"`
	ReservationTime string  `json:"reservation_time"`
	DurationHours   float64 `json:"duration_hours"`
}

// AvailabilityResult is the outcome of a single-table check.
type AvailabilityResult struct {
	Available bool            `json:"available"`
	Table     *Table          `json:"table,omitempty"`
	Conflict  *ConflictDetail `json:"conflict,omitempty"`
	Reason    string          `json:"reason,omitempty"`
}

// ReservationEvent is the lifecycle event published to Kafka.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	BookingCode   string    `json:"booking_code"`
	CustomerEmail string    `json:"customer_email"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

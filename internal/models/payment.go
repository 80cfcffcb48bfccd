package models

import (
	"time"

	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// Payment is the single payment record attached to a reservation (1:1).
// Created in the same transaction as the reservation, updated in place by
// the verification flow.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID            string        `bun:"id,pk" json:"id"`
	ReservationID string        `bun:"reservation_id,unique" json:"reservation_id"`
	Amount        float64       `bun:"amount" json:"amount"`
	PaymentMethod PaymentMethod `bun:"payment_method" json:"payment_method"`

	PaymentProofURL string        `bun:"payment_proof_url,nullzero" json:"payment_proof_url,omitempty"`
	PaymentStatus   PaymentStatus `bun:"payment_status" json:"payment_status"`

	VerifiedBy string     `bun:"verified_by,nullzero" json:"verified_by,omitempty"`
	VerifiedAt *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	PaidAt     *time.Time `bun:"paid_at,nullzero" json:"paid_at,omitempty"`

	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

package models

import "time"

// Payment status values for an item split.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Bill struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	TotalAmount int64     `db:"total_amount" json:"total_amount"`
	UserID      int64     `db:"user_id" json:"user_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// BillParticipant is one seat in a bill's split. UserID is nil for guests
// who have no registered account.
type BillParticipant struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	UserID    *int64 `db:"user_id" json:"user_id,omitempty"`
	BillID    int64  `db:"bill_id" json:"bill_id"`
	IsCreator bool   `db:"is_creator" json:"is_creator"`
}

// BillItem carries its surcharge amounts precomputed at write time.
// Amounts are minor units; percents are decimal strings.
type BillItem struct {
	ID             int64     `db:"id" json:"id"`
	BillID         int64     `db:"bill_id" json:"bill_id"`
	Name           string    `db:"name" json:"name"`
	BasePrice      int64     `db:"base_price" json:"base_price"`
	TaxPercent     string    `db:"tax_percent" json:"tax_percent"`
	TaxAmount      int64     `db:"tax_amount" json:"tax_amount"`
	ServicePercent string    `db:"service_percent" json:"service_percent"`
	ServiceAmount  int64     `db:"service_amount" json:"service_amount"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ItemSplit is one participant's share of one item. UserID is denormalized
// from the participant row; authorization always goes through the joined
// participant record, never this field.
type ItemSplit struct {
	ID                int64     `db:"id" json:"id"`
	BillItemID        int64     `db:"bill_item_id" json:"bill_item_id"`
	BillParticipantID int64     `db:"bill_participant_id" json:"bill_participant_id"`
	UserID            *int64    `db:"user_id" json:"user_id,omitempty"`
	ShareAmount       int64     `db:"share_amount" json:"share_amount"`
	PaymentStatus     string    `db:"payment_status" json:"payment_status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

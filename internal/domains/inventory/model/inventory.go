package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Default thresholds applied when a textbook first enters the warehouse.
const (
	DefaultMinThreshold = 10
	DefaultMaxThreshold = 1000
)

// Warning status derived from quantity against thresholds.
const (
	WarningLow    = "low"
	WarningHigh   = "high"
	WarningNormal = "normal"
)

// Inventory is a cumulative ledger per textbook: Quantity is the live
// balance and must always equal TotalIn - TotalOut.
type Inventory struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TextbookID   uuid.UUID `json:"textbook_id" db:"textbook_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	TotalIn      int       `json:"total_in_quantity" db:"total_in_quantity"`
	TotalOut     int       `json:"total_out_quantity" db:"total_out_quantity"`
	MinThreshold int       `json:"min_threshold" db:"min_threshold"`
	MaxThreshold int       `json:"max_threshold" db:"max_threshold"`

	LastInDate  *time.Time `json:"last_in_date,omitempty" db:"last_in_date"`
	LastOutDate *time.Time `json:"last_out_date,omitempty" db:"last_out_date"`

	// Denormalized for list views.
	TextbookName string `json:"textbook_name,omitempty" db:"textbook_name"`
	ISBN         string `json:"isbn,omitempty" db:"isbn"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WarningStatus reports whether the stock level is outside thresholds.
func (i *Inventory) WarningStatus() string {
	switch {
	case i.Quantity < i.MinThreshold:
		return WarningLow
	case i.Quantity > i.MaxThreshold:
		return WarningHigh
	default:
		return WarningNormal
	}
}

// InventoryView is an Inventory with its derived warning attached for
// API responses.
type InventoryView struct {
	Inventory
	Warning string `json:"warning"`
}

func NewView(inv Inventory) InventoryView {
	return InventoryView{Inventory: inv, Warning: inv.WarningStatus()}
}

type UpdateThresholdsRequest struct {
	MinThreshold int `json:"min_threshold"`
	MaxThreshold int `json:"max_threshold"`
}

func (r UpdateThresholdsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MinThreshold, validation.Min(0)),
		validation.Field(&r.MaxThreshold, validation.Min(1)),
	)
}

// ListFilter narrows inventory queries. Warning filters on the derived
// status: "low", "high" or empty for all.
type ListFilter struct {
	Keyword string
	Warning string
}

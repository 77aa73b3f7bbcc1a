package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"textbook-backend/internal/shared/validate"
)

// =====================================================
// STATUS STATE MACHINE
// =====================================================

// Purchase order lifecycle. Terminal states are issued and cancelled.
const (
	StatusPending          = "pending"
	StatusApproved         = "approved"
	StatusOrdered          = "ordered"
	StatusPartiallyArrived = "partially_arrived"
	StatusArrived          = "arrived"
	StatusIssued           = "issued"
	StatusCancelled        = "cancelled"
)

// transitions lists the legal forward edges. Cancellation is handled
// separately: it is legal from every non-terminal state.
var transitions = map[string][]string{
	StatusPending:          {StatusApproved},
	StatusApproved:         {StatusOrdered},
	StatusOrdered:          {StatusPartiallyArrived, StatusArrived},
	StatusPartiallyArrived: {StatusPartiallyArrived, StatusArrived},
	StatusArrived:          {StatusIssued},
}

// CanTransition reports whether from -> to is a legal forward edge.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(status string) bool {
	return status == StatusIssued || status == StatusCancelled
}

// CanCancel reports whether an order in the given status may still be
// cancelled. Fully arrived stock must be issued or written off through
// stock-in deletion, so arrived orders are not cancellable.
func CanCancel(status string) bool {
	switch status {
	case StatusArrived, StatusIssued, StatusCancelled:
		return false
	}
	return true
}

type Order struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderNo     string    `json:"order_no" db:"order_no"`
	TextbookID  uuid.UUID `json:"textbook_id" db:"textbook_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Arrived     int       `json:"arrived" db:"arrived"`
	Status      string    `json:"status" db:"status"`
	OrderPerson string    `json:"order_person" db:"order_person"`
	Remark      *string   `json:"remark,omitempty" db:"remark"`

	// Denormalized for list views.
	TextbookName string `json:"textbook_name,omitempty" db:"textbook_name"`
	ISBN         string `json:"isbn,omitempty" db:"isbn"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Remaining returns the quantity still expected to arrive.
func (o *Order) Remaining() int {
	return o.Quantity - o.Arrived
}

// ArrivalStatus computes the status implied by an arrived count: full
// delivery closes the order to arrived, anything in between is partial.
func ArrivalStatus(quantity, arrived int) string {
	if arrived >= quantity {
		return StatusArrived
	}
	return StatusPartiallyArrived
}

// DTOs
type CreateOrderRequest struct {
	TextbookID  uuid.UUID `json:"textbook_id"`
	Quantity    int       `json:"quantity"`
	OrderPerson string    `json:"order_person"`
	Remark      string    `json:"remark"`
}

func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TextbookID, validate.RequiredUUID),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type UpdateOrderRequest struct {
	Quantity *int    `json:"quantity"`
	Remark   *string `json:"remark"`
}

func (r UpdateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.When(r.Quantity != nil, validation.Min(1))),
	)
}

// ListFilter narrows order queries.
type ListFilter struct {
	Status      string
	Keyword     string
	OrderPerson string
}

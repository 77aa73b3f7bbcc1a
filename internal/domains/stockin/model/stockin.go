package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"textbook-backend/internal/shared/validate"
)

// Quality inspection results recorded at stock-in time.
const (
	QualityQualified          = "qualified"
	QualityPartiallyQualified = "partially_qualified"
	QualityUnqualified        = "unqualified"
)

var qualityStatuses = []interface{}{
	QualityQualified, QualityPartiallyQualified, QualityUnqualified,
}

// StockIn records one arrival. StockInQuantity is what the shipment
// declared; ActualQuantity is what the warehouse accepted after
// inspection, and is the number that moves the order and the inventory.
type StockIn struct {
	ID              uuid.UUID `json:"id" db:"id"`
	StockInNo       string    `json:"stock_in_no" db:"stock_in_no"`
	OrderID         uuid.UUID `json:"order_id" db:"order_id"`
	TextbookID      uuid.UUID `json:"textbook_id" db:"textbook_id"`
	StockInQuantity int       `json:"stock_in_quantity" db:"stock_in_quantity"`
	ActualQuantity  int       `json:"actual_quantity" db:"actual_quantity"`
	QualityStatus   string    `json:"quality_status" db:"quality_status"`
	Operator        string    `json:"operator" db:"operator"`
	Remark          *string   `json:"remark,omitempty" db:"remark"`

	// Denormalized for list views.
	OrderNo      string `json:"order_no,omitempty" db:"order_no"`
	TextbookName string `json:"textbook_name,omitempty" db:"textbook_name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateStockInRequest carries the declared shipment quantity and,
// optionally, the accepted quantity. A nil ActualQuantity means the
// whole shipment was accepted.
type CreateStockInRequest struct {
	OrderID         uuid.UUID `json:"order_id"`
	StockInQuantity int       `json:"stock_in_quantity"`
	ActualQuantity  *int      `json:"actual_quantity"`
	QualityStatus   string    `json:"quality_status"`
	Remark          string    `json:"remark"`
}

func (r CreateStockInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validate.RequiredUUID),
		validation.Field(&r.StockInQuantity, validation.Required, validation.Min(1)),
		validation.Field(&r.ActualQuantity, validation.Min(0)),
		validation.Field(&r.QualityStatus, validation.Required, validation.In(qualityStatuses...)),
	)
}

// DirectStockInRequest records goods that arrive without a prior
// purchase order. A backing order is created and closed in the same
// transaction so every stock movement still traces to an order.
type DirectStockInRequest struct {
	TextbookID    uuid.UUID `json:"textbook_id"`
	Quantity      int       `json:"quantity"`
	QualityStatus string    `json:"quality_status"`
	Remark        string    `json:"remark"`
}

func (r DirectStockInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TextbookID, validate.RequiredUUID),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.QualityStatus, validation.Required, validation.In(qualityStatuses...)),
	)
}

// ListFilter narrows stock-in queries.
type ListFilter struct {
	OrderID    *uuid.UUID
	TextbookID *uuid.UUID
	Keyword    string
}

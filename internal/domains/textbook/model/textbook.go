package model

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"textbook-backend/internal/shared/validate"
)

// ISBN numbers follow the legacy catalog format: the literal prefix
// "ISBN" followed by ten digits.
var isbnPattern = regexp.MustCompile(`^ISBN[0-9]{10}$`)

type Textbook struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	ISBN        string          `json:"isbn" db:"isbn"`
	Name        string          `json:"name" db:"name"`
	Author      *string         `json:"author,omitempty" db:"author"`
	Edition     *string         `json:"edition,omitempty" db:"edition"`
	Price       decimal.Decimal `json:"price" db:"price"`
	TypeID      uuid.UUID       `json:"type_id" db:"type_id"`
	PublisherID uuid.UUID       `json:"publisher_id" db:"publisher_id"`

	// Denormalized for list views, populated by joins.
	TypeName      string `json:"type_name,omitempty" db:"type_name"`
	PublisherName string `json:"publisher_name,omitempty" db:"publisher_name"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type CreateTextbookRequest struct {
	ISBN        string          `json:"isbn"`
	Name        string          `json:"name"`
	Author      string          `json:"author"`
	Edition     string          `json:"edition"`
	Price       decimal.Decimal `json:"price"`
	TypeID      uuid.UUID       `json:"type_id"`
	PublisherID uuid.UUID       `json:"publisher_id"`
}

func (r CreateTextbookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ISBN, validation.Required, validation.Match(isbnPattern).
			Error("must be ISBN followed by 10 digits")),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.TypeID, validate.RequiredUUID),
		validation.Field(&r.PublisherID, validate.RequiredUUID),
		validation.Field(&r.Price, validation.By(priceNonNegative)),
	)
}

type UpdateTextbookRequest struct {
	Name        *string          `json:"name"`
	Author      *string          `json:"author"`
	Edition     *string          `json:"edition"`
	Price       *decimal.Decimal `json:"price"`
	TypeID      *uuid.UUID       `json:"type_id"`
	PublisherID *uuid.UUID       `json:"publisher_id"`
}

func (r UpdateTextbookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 256)),
		validation.Field(&r.Price, validation.By(func(v interface{}) error {
			p, ok := v.(*decimal.Decimal)
			if !ok || p == nil {
				return nil
			}
			return priceNonNegative(*p)
		})),
	)
}

func priceNonNegative(v interface{}) error {
	p, ok := v.(decimal.Decimal)
	if !ok {
		return nil
	}
	if p.IsNegative() {
		return validation.NewError("validation_price", "price must not be negative")
	}
	return nil
}

// ListFilter narrows textbook queries.
type ListFilter struct {
	Keyword     string
	TypeID      *uuid.UUID
	PublisherID *uuid.UUID
}

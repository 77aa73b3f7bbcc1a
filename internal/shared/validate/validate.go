package validate

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// RequiredUUID rejects the zero UUID. ozzo's Required measures a
// uuid.UUID as a 16-byte array, which is never empty, so required UUID
// references need their own rule.
var RequiredUUID = validation.By(func(value interface{}) error {
	switch id := value.(type) {
	case uuid.UUID:
		if id == uuid.Nil {
			return validation.ErrRequired
		}
	case *uuid.UUID:
		if id == nil || *id == uuid.Nil {
			return validation.ErrRequired
		}
	}
	return nil
})

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarningStatus(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		min, max int
		want     string
	}{
		{"below minimum", 5, 10, 1000, WarningLow},
		{"at minimum is normal", 10, 10, 1000, WarningNormal},
		{"inside range", 500, 10, 1000, WarningNormal},
		{"at maximum is normal", 1000, 10, 1000, WarningNormal},
		{"above maximum", 1001, 10, 1000, WarningHigh},
		{"empty stock", 0, 10, 1000, WarningLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Inventory{
				Quantity:     tt.quantity,
				MinThreshold: tt.min,
				MaxThreshold: tt.max,
			}
			assert.Equal(t, tt.want, inv.WarningStatus())
		})
	}
}

func TestNewView(t *testing.T) {
	inv := Inventory{Quantity: 3, MinThreshold: 10, MaxThreshold: 1000}
	view := NewView(inv)

	assert.Equal(t, WarningLow, view.Warning)
	assert.Equal(t, 3, view.Quantity)
}

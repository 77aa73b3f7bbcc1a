package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		want       Params
	}{
		{"defaults on zero", 0, 0, Params{Page: 1, Size: 20}},
		{"negative page normalized", -3, 10, Params{Page: 1, Size: 10}},
		{"negative size normalized", 2, -1, Params{Page: 2, Size: 20}},
		{"size capped at max", 1, 500, Params{Page: 1, Size: 100}},
		{"valid values untouched", 3, 50, Params{Page: 3, Size: 50}},
		{"max size exactly", 1, 100, Params{Page: 1, Size: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.page, tt.size))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Size: 20}.Offset())
	assert.Equal(t, 20, Params{Page: 2, Size: 20}.Offset())
	assert.Equal(t, 90, Params{Page: 10, Size: 10}.Offset())
}

func TestFromQuery(t *testing.T) {
	assert.Equal(t, Params{Page: 2, Size: 50}, FromQuery("2", "50"))
	assert.Equal(t, Params{Page: 1, Size: 20}, FromQuery("", ""))
	assert.Equal(t, Params{Page: 1, Size: 20}, FromQuery("abc", "xyz"))
	assert.Equal(t, Params{Page: 1, Size: 100}, FromQuery("0", "9999"))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 20), "empty result still has one page")
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 5, TotalPages(100, 20))
}

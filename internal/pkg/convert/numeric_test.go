package convert

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToDecimal(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"json number", json.Number("1050"), "1050", true},
		{"numeric string", " 12.5 ", "12.5", true},
		{"float", 3.25, "3.25", true},
		{"int", 7, "7", true},
		{"nil", nil, "0", false},
		{"garbage", "abc", "0", false},
		{"bool", true, "0", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToDecimal(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s", got)
		})
	}
}

func TestToInt64(t *testing.T) {
	n, ok := ToInt64(json.Number("120"))
	assert.True(t, ok)
	assert.EqualValues(t, 120, n)

	n, ok = ToInt64("42")
	assert.True(t, ok)
	assert.EqualValues(t, 42, n)

	_, ok = ToInt64(1.5)
	assert.False(t, ok)

	_, ok = ToInt64(nil)
	assert.False(t, ok)
}

package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCorrelationResult_PriceChange(t *testing.T) {
	price := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name     string
		filing   *decimal.Decimal
		recent   *decimal.Decimal
		expected string
		ok       bool
	}{
		{"gain", price("100"), price("120"), "0.2", true},
		{"loss", price("200"), price("150"), "-0.25", true},
		{"missing filing price", nil, price("120"), "0", false},
		{"missing recent price", price("100"), nil, "0", false},
		{"zero filing price", price("0"), price("120"), "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CorrelationResult{FilingPriceAtOrAfterFilingDate: tt.filing, MostRecentPrice: tt.recent}
			change, ok := r.PriceChange()
			assert.Equal(t, tt.ok, ok)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(change), "got %s", change)
		})
	}
}

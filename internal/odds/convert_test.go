package odds

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmericanToImplied(t *testing.T) {
	tests := []struct {
		name     string
		odds     int
		expected float64
		delta    float64
	}{
		{"Even money +100", 100, 0.5, 0.001},
		{"Even money -100", -100, 0.5, 0.001},
		{"Favorite -150", -150, 0.6, 0.001},
		{"Underdog +150", 150, 0.4, 0.001},
		{"Heavy favorite -300", -300, 0.75, 0.001},
		{"Big underdog +300", 300, 0.25, 0.001},
		{"Standard -110", -110, 0.5238, 0.001},
		{"Zero odds", 0, 0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AmericanToImplied(tt.odds)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("AmericanToImplied(%d) = %v, want %v", tt.odds, result, tt.expected)
			}
		})
	}
}

func TestProfitOnStake(t *testing.T) {
	tests := []struct {
		name     string
		odds     int
		stake    int64
		expected string
	}{
		{"Standard -110", -110, 100, "90.91"},
		{"Even money", 100, 100, "100"},
		{"Underdog +150", 150, 100, "150"},
		{"Favorite -200", -200, 50, "25"},
		{"Zero odds", 0, 100, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfitOnStake(tt.odds, decimal.NewFromInt(tt.stake))
			want := decimal.RequireFromString(tt.expected)
			if !got.Equal(want) {
				t.Errorf("ProfitOnStake(%d, %d) = %s, want %s", tt.odds, tt.stake, got, want)
			}
		})
	}
}

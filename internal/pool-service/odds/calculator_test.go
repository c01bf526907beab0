package odds

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculator_Compute(t *testing.T) {
	calc := Default()

	tests := []struct {
		name         string
		poolA, poolB int64
		oddsA, oddsB string
		sentA, sentB int
	}{
		{"empty pools", 0, 0, "2.00", "2.00", 50, 50},
		{"only side A", 50, 0, "1.10", "2.00", 100, 0},
		{"only side B", 0, 75, "2.00", "1.10", 0, 100},
		{"three to two", 300, 200, "1.66", "2.50", 60, 40},
		{"even split", 100, 100, "2.00", "2.00", 50, 50},
		{"one third", 100, 200, "3.00", "1.50", 33, 67},
		{"half-up rounding", 1, 199, "200.00", "1.10", 1, 99},
		{"tiny side", 1, 999, "1000.00", "1.10", 0, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.Compute(tc.poolA, tc.poolB)
			assert.True(t, dec(tc.oddsA).Equal(got.OddsA), "oddsA: want %s got %s", tc.oddsA, got.OddsA)
			assert.True(t, dec(tc.oddsB).Equal(got.OddsB), "oddsB: want %s got %s", tc.oddsB, got.OddsB)
			assert.Equal(t, tc.sentA, got.SentimentA)
			assert.Equal(t, tc.sentB, got.SentimentB)
		})
	}
}

func TestCalculator_SentimentAlwaysSumsTo100(t *testing.T) {
	calc := Default()
	pools := []int64{0, 1, 2, 3, 7, 10, 33, 50, 99, 100, 101, 333, 1000, 12345, 999999}
	for _, a := range pools {
		for _, b := range pools {
			got := calc.Compute(a, b)
			assert.Equal(t, 100, got.SentimentA+got.SentimentB, "pools %d/%d", a, b)
			assert.GreaterOrEqual(t, got.SentimentA, 0)
			assert.LessOrEqual(t, got.SentimentA, 100)
		}
	}
}

func TestCalculator_OddsNeverBelowFloor(t *testing.T) {
	calc := NewCalculator(dec("2.00"), dec("1.25"))
	pools := []int64{0, 1, 5, 50, 500, 5000, 50000}
	for _, a := range pools {
		for _, b := range pools {
			got := calc.Compute(a, b)
			assert.False(t, got.OddsA.LessThan(calc.MinimumOdds), "oddsA %s for %d/%d", got.OddsA, a, b)
			assert.False(t, got.OddsB.LessThan(calc.MinimumOdds), "oddsB %s for %d/%d", got.OddsB, a, b)
		}
	}
}

func TestCalculator_Deterministic(t *testing.T) {
	calc := Default()
	first := calc.Compute(12345, 6789)
	for i := 0; i < 50; i++ {
		again := calc.Compute(12345, 6789)
		assert.True(t, first.OddsA.Equal(again.OddsA))
		assert.True(t, first.OddsB.Equal(again.OddsB))
		assert.Equal(t, first.SentimentA, again.SentimentA)
	}
}

func TestNewCalculator_DefaultRaisedToFloor(t *testing.T) {
	calc := NewCalculator(dec("1.05"), dec("1.10"))
	assert.True(t, calc.DefaultOdds.Equal(dec("1.10")))

	got := calc.Compute(0, 0)
	assert.True(t, got.OddsA.Equal(dec("1.10")))
}

func TestCalculator_NegativePoolsTreatedAsZero(t *testing.T) {
	got := Default().Compute(-10, 0)
	assert.Equal(t, 50, got.SentimentA)
	assert.True(t, got.OddsA.Equal(dec("2.00")))
}

package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReturns(t *testing.T) {
	prices := buildSeries(t, 100.0, 101.0, 99.5, 99.5)

	rets := LogReturns(prices)
	require.Equal(t, prices.Len(), rets.Len())

	assert.True(t, math.IsNaN(rets.Value(0)), "no prior observation for the first entry")
	assert.InDelta(t, math.Log(101.0/100.0), rets.Value(1), 1e-15)
	assert.InDelta(t, math.Log(99.5/101.0), rets.Value(2), 1e-15)
	assert.Equal(t, 0.0, rets.Value(3), "flat price yields zero return")

	for i := 0; i < prices.Len(); i++ {
		assert.Equal(t, prices.Date(i), rets.Date(i))
	}
}

func TestLogReturnsEmptyAndSingle(t *testing.T) {
	assert.Equal(t, 0, LogReturns(buildSeries(t)).Len())

	single := LogReturns(buildSeries(t, 100.0))
	require.Equal(t, 1, single.Len())
	assert.True(t, math.IsNaN(single.Value(0)))
}

func TestDropConsecutiveDuplicates(t *testing.T) {
	prices := buildSeries(t, 100.0, 100.0, 101.0, 101.0, 101.0, 102.0, 100.0)

	cleaned := DropConsecutiveDuplicates(prices)
	require.Equal(t, 4, cleaned.Len())

	// First occurrence survives, with its original date
	assert.Equal(t, 100.0, cleaned.Value(0))
	assert.Equal(t, day(0), cleaned.Date(0))
	assert.Equal(t, 101.0, cleaned.Value(1))
	assert.Equal(t, day(2), cleaned.Date(1))
	assert.Equal(t, 102.0, cleaned.Value(2))
	assert.Equal(t, day(5), cleaned.Date(2))

	// A revisited price level is not a consecutive duplicate
	assert.Equal(t, 100.0, cleaned.Value(3))
	assert.Equal(t, day(6), cleaned.Date(3))
}

func TestDropConsecutiveDuplicatesNoDuplicates(t *testing.T) {
	prices := buildSeries(t, 100.0, 101.0, 102.0)
	assert.Equal(t, 3, DropConsecutiveDuplicates(prices).Len())
}

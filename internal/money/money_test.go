package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1500.50", 150050},
		{"1000.00", 100000},
		{"1000", 100000},
		{"0.05", 5},
		{"0", 0},
		{" 42.1 ", 4210},
		{"+7.25", 725},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseAmountRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "-10", "10.005", "abc", "10.5x", "1,000", "."} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
}

func TestParseAmountExactAtBoundary(t *testing.T) {
	// 1500.50 must not lose a cent the way a float64 round-trip can.
	rent, err := ParseAmount("1500.50")
	require.NoError(t, err)
	max, err := ParseAmount("1500.50")
	require.NoError(t, err)
	assert.True(t, rent <= max)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1500.50", Format(150050))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "-12.00", Format(-1200))
}

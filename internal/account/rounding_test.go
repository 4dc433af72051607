package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRounding(t *testing.T) {
	r, err := ParseRounding("")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfUp, r)

	r, err = ParseRounding(" HALF_EVEN ")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfEven, r)

	_, err = ParseRounding("ceiling")
	require.Error(t, err)
}

func TestRoundingTies(t *testing.T) {
	cases := []struct {
		in       string
		halfUp   string
		halfEven string
	}{
		{"0.00005", "0.0001", "0"},
		{"0.00015", "0.0002", "0.0002"},
		{"-0.00005", "-0.0001", "0"},
		{"1.23456", "1.2346", "1.2346"},
		{"1.5", "1.5", "1.5"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.halfUp, RoundHalfUp.Round(dec(tc.in)).String(), "half_up %s", tc.in)
		assert.Equal(t, tc.halfEven, RoundHalfEven.Round(dec(tc.in)).String(), "half_even %s", tc.in)
	}
}

func TestZeroRoundingDefaultsToHalfUp(t *testing.T) {
	var r Rounding
	assert.Equal(t, "0.0001", r.Round(dec("0.00005")).String())
}

package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateXP(t *testing.T) {
	cases := []struct {
		priority Priority
		want     int
	}{
		{PriorityHigh, 100},
		{PriorityMedium, 50},
		{PriorityLow, 25},
		{Priority("Urgent"), 0},
		{Priority("high"), 0},
		{Priority(""), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CalculateXP(tc.priority), "priority %q", tc.priority)
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" Medium ")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	_, err = ParsePriority("Critical")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestPriorityCode(t *testing.T) {
	assert.Equal(t, 1, PriorityHigh.Code())
	assert.Equal(t, 2, PriorityMedium.Code())
	assert.Equal(t, 3, PriorityLow.Code())
	assert.Equal(t, 0, Priority("Other").Code())
}

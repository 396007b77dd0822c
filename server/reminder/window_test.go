package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinutesOfDay(t *testing.T) {
	assert.Equal(t, 0, MinutesOfDay("00:00"))
	assert.Equal(t, 721, MinutesOfDay("12:01"))
	assert.Equal(t, 1439, MinutesOfDay("23:59"))

	// Malformed input resolves to minute 0.
	assert.Equal(t, 0, MinutesOfDay("noon"))
	assert.Equal(t, 0, MinutesOfDay("25:00"))
	assert.Equal(t, 0, MinutesOfDay(""))
}

func TestIsValidClock(t *testing.T) {
	assert.True(t, IsValidClock("09:15"))
	assert.True(t, IsValidClock("23:59"))
	assert.False(t, IsValidClock("24:00"))
	assert.False(t, IsValidClock("noon"))
	assert.False(t, IsValidClock(""))
}

func TestIsDue(t *testing.T) {
	// Exact match and one minute either side.
	assert.True(t, IsDue("12:00", "12:00", false))
	assert.True(t, IsDue("12:01", "12:00", false))
	assert.True(t, IsDue("11:59", "12:00", false))

	// Outside the window.
	assert.False(t, IsDue("12:03", "12:00", false))
	assert.False(t, IsDue("11:57", "12:00", false))

	// Already reminded today wins over everything.
	assert.False(t, IsDue("12:00", "12:00", true))

	// A malformed event time reads as 00:00, so it is only due around
	// midnight.
	assert.True(t, IsDue("00:01", "bogus", false))
	assert.False(t, IsDue("12:00", "bogus", false))
}

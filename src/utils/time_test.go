package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarketClock(t *testing.T) {
	loc, err := MarketLocation()
	assert.NoError(t, err)

	t.Run("market close is 4pm eastern", func(t *testing.T) {
		day := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)
		closeAt := MarketCloseOn(day, loc)

		assert.Equal(t, 16, closeAt.Hour())
		assert.Equal(t, 0, closeAt.Minute())
		assert.Equal(t, day.Year(), closeAt.Year())
		assert.Equal(t, day.Month(), closeAt.Month())
		assert.Equal(t, day.Day(), closeAt.Day())
	})

	t.Run("minutes to close counts down", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 14, 30, 0, 0, loc)
		assert.Equal(t, 90.0, MinutesToClose(now, now, loc))
	})

	t.Run("minutes to close floors at zero after the bell", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 17, 0, 0, 0, loc)
		assert.Equal(t, 0.0, MinutesToClose(now, now, loc))
	})
}

func TestTimeToExpiryYears(t *testing.T) {
	loc, err := MarketLocation()
	assert.NoError(t, err)

	t.Run("measures to the close on expiration day", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 16, 0, 0, 0, loc)
		expiration := time.Date(2025, 6, 11, 0, 0, 0, 0, loc)

		// Exactly 24 hours from the June 10 close to the June 11 close.
		assert.InDelta(t, 1.0/365, TimeToExpiryYears(expiration, now, loc), 1e-9)
	})

	t.Run("floors at the minimum after the close", func(t *testing.T) {
		expiration := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)
		now := time.Date(2025, 6, 10, 16, 0, 0, 0, loc)

		assert.Equal(t, minTimeToExpiryYears, TimeToExpiryYears(expiration, now, loc))
		assert.Equal(t, minTimeToExpiryYears, TimeToExpiryYears(expiration, now.Add(24*time.Hour), loc))
	})
}

func TestDaysToExpiration(t *testing.T) {
	t.Run("ignores time of day", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 15, 59, 0, 0, time.UTC)
		expiration := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

		assert.Equal(t, 3, DaysToExpiration(expiration, now))
	})

	t.Run("same day is zero", func(t *testing.T) {
		now := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)
		expiration := time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)

		assert.Equal(t, 0, DaysToExpiration(expiration, now))
	})
}

func TestTargetExpirationDate(t *testing.T) {
	loc, err := MarketLocation()
	assert.NoError(t, err)

	now := time.Date(2025, 6, 10, 11, 45, 0, 0, loc)
	target := TargetExpirationDate(7, now, loc)

	assert.Equal(t, time.Date(2025, 6, 17, 0, 0, 0, 0, loc), target)
}

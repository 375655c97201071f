package utils

import (
	"fmt"
	"time"
)

// Market-time arithmetic happens in Eastern Time; options settle at the
// 16:00 ET close on expiration day.
const marketTimezone = "America/New_York"

const minTimeToExpiryYears = 1e-6

func MarketLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(marketTimezone)
	if err != nil {
		return nil, fmt.Errorf("MarketLocation: failed to load %s: %v", marketTimezone, err)
	}

	return loc, nil
}

// MarketCloseOn returns 16:00 ET on the given date.
func MarketCloseOn(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 16, 0, 0, 0, loc)
}

// MinutesToClose is the number of minutes from now until the close on the
// given date, floored at zero.
func MinutesToClose(date time.Time, now time.Time, loc *time.Location) float64 {
	closeAt := MarketCloseOn(date, loc)
	mins := closeAt.Sub(now).Minutes()
	if mins < 0 {
		return 0
	}

	return mins
}

// TimeToExpiryYears converts the time until the close on expiration day into
// years, floored at a small positive value so volatility terms never divide
// by zero on expiration day.
func TimeToExpiryYears(expiration time.Time, now time.Time, loc *time.Location) float64 {
	years := MinutesToClose(expiration, now, loc) / (60 * 24 * 365)
	if years < minTimeToExpiryYears {
		return minTimeToExpiryYears
	}

	return years
}

// DaysToExpiration counts calendar days between now and the expiration date,
// ignoring the time of day on both ends.
func DaysToExpiration(expiration time.Time, now time.Time) int {
	expDay := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return int(expDay.Sub(nowDay).Hours() / 24)
}

// TargetExpirationDate is today's date in ET shifted forward by daysAhead.
func TargetExpirationDate(daysAhead int, now time.Time, loc *time.Location) time.Time {
	d := now.In(loc).AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

package orders

import (
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/clock"
	pkgerrors "github.com/fjod/go_cart/storefront/internal/errors"
)

const DefaultPickupWindowDays = 7

// ValidatePickupDate accepts calendar dates in [today, today+windowDays] that
// are not Sundays. Only the date part of date is considered.
func ValidatePickupDate(c clock.Clock, date time.Time, windowDays int) error {
	today := clock.Today(c)
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	last := today.AddDate(0, 0, windowDays)

	switch {
	case day.Before(today):
		return pickupError("pickup date cannot be in the past")
	case day.After(last):
		return pickupError(fmt.Sprintf("pickup date must be within %d days", windowDays))
	case day.Weekday() == time.Sunday:
		return pickupError("pickups are not available on Sundays")
	}
	return nil
}

func pickupError(msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, msg).
		WithDetails(map[string]string{"pickupDate": msg})
}

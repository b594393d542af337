package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	day        = 24 * time.Hour
)

var hundred = decimal.NewFromInt(100)

// ParseDateTime accepts either a full RFC3339 timestamp or a yyyy-mm-dd date.
// Bare dates are interpreted as midnight UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd or RFC3339: %q", value)
	}
	return t.UTC(), nil
}

// RentalDays returns the number of started 24h periods between start and end
// (the ceiling of the span in days). Non-positive spans yield 0.
func RentalDays(start, end time.Time) int {
	span := end.Sub(start)
	if span <= 0 {
		return 0
	}
	return int(math.Ceil(float64(span) / float64(day)))
}

// RoundCents rounds to two decimal places, half away from zero.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// ApplyDiscount reduces price by percentage percent. Zero or negative
// percentages leave the price untouched.
func ApplyDiscount(price, percentage decimal.Decimal) decimal.Decimal {
	if !percentage.IsPositive() {
		return price
	}
	return price.Mul(decimal.NewFromInt(1).Sub(percentage.Div(hundred)))
}

// ApplySurcharge increases price by percentage percent. Zero or negative
// percentages leave the price untouched.
func ApplySurcharge(price, percentage decimal.Decimal) decimal.Decimal {
	if !percentage.IsPositive() {
		return price
	}
	return price.Mul(decimal.NewFromInt(1).Add(percentage.Div(hundred)))
}

// BasePrice is dailyRate * days, rounded to cents.
func BasePrice(dailyRate decimal.Decimal, days int) decimal.Decimal {
	return RoundCents(dailyRate.Mul(decimal.NewFromInt(int64(days))))
}

// ProrateBase rescales a base price computed for oldDays to newDays keeping
// the same per-day rate. Multiplication happens before division so that
// whole-number rates stay exact.
func ProrateBase(base decimal.Decimal, oldDays, newDays int) decimal.Decimal {
	if oldDays <= 0 {
		return base
	}
	return base.Mul(decimal.NewFromInt(int64(newDays))).DivRound(decimal.NewFromInt(int64(oldDays)), 2)
}

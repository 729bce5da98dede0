package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// parseAmount parses a non-negative monetary value.
func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apierror.Ef(apierror.KindInvalidAmount, "%q is not a valid amount", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, apierror.E(apierror.KindInvalidAmount, "amount must not be negative")
	}
	return d, nil
}

// parsePositiveAmount parses a strictly positive monetary value.
func parsePositiveAmount(raw string) (decimal.Decimal, error) {
	d, err := parseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, apierror.E(apierror.KindInvalidAmount, "amount must be greater than zero")
	}
	return d, nil
}

// parseQuantity parses a non-negative integer quantity. An empty string
// parses as zero.
func parseQuantity(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() || d.IsNegative() {
		return 0, apierror.Ef(apierror.KindInvalidAmount, "%q is not a valid quantity", raw)
	}
	return int(d.IntPart()), nil
}

// parseFutureDate parses a YYYY-MM-DD value that must fall after today.
// Empty and same-day values both report ok=false; the caller treats the
// field as absent (matching the batch reception/expiry rules).
func parseFutureDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if !d.After(today) {
		return time.Time{}, false
	}
	return d, true
}

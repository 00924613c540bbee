package lib

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Database errors
var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

// Domain errors
var (
	ErrDataUnavailable        = errors.New("analytics data unavailable")
	ErrUnidentifiableCustomer = errors.New("order has no usable customer identifier")
	ErrInvalidPeriod          = errors.New("invalid prediction period")
	ErrInvalidStatusChange    = errors.New("invalid order status transition")
)

// InsufficientHistoryError is returned when a restaurant does not have
// enough order history to train a demand model for the requested period.
type InsufficientHistoryError struct {
	RequiredDays  int
	AvailableDays int
	Reason        string
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf(
		"insufficient history for prediction: %s (required %d days, available %d)",
		e.Reason, e.RequiredDays, e.AvailableDays,
	)
}

func MapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code { // SQLSTATE
		case "23505": // unique_violation
			return ErrConflict
		case "P0002": // no_data_found
			return ErrNotFound
		}
	}
	return err
}

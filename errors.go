/*
Copyright 2024 Tim St. Pierre
Error values for the lcd44780 package
*/
package lcd44780

import "errors"

// Positioning errors. These are checked before any bus traffic, so a
// failed check means nothing reached the display. Bus-level errors are
// returned as-is from whatever periph transport is underneath and are not
// listed here.
var (
	ErrRowTooLow  = errors.New("lcd44780: row number too low")
	ErrRowTooHigh = errors.New("lcd44780: row number too high")
	ErrColTooLow  = errors.New("lcd44780: column number too low")
	ErrColTooHigh = errors.New("lcd44780: column number too high")
)

// Describe returns a human readable description of an error produced by
// this package, suitable for an operator-facing diagnostic.
func Describe(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRowTooLow):
		return "Row number too low (less than ORIGIN) specified"
	case errors.Is(err, ErrRowTooHigh):
		return "Row number too high (greater than ORIGIN+rows-1) specified"
	case errors.Is(err, ErrColTooLow):
		return "Column number too low (less than ORIGIN) specified"
	case errors.Is(err, ErrColTooHigh):
		return "Column number too high (greater than ORIGIN+cols-1) specified"
	default:
		return "Unknown LCD HD44780U error"
	}
}

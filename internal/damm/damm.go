// Package damm implements the Damm check digit and the reference codes built
// on it.
//
// The quasigroup table below is a persisted-state contract: every identifier
// ever issued was checked against it, so it must never change.
package damm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDigits is returned when a digit string holds anything but 0-9.
	ErrNotDigits = errors.New("damm: input is not a digit string")
	// ErrInvalidIdentifier is returned when an identifier is malformed or
	// fails its check digit.
	ErrInvalidIdentifier = errors.New("damm: invalid identifier")
	// ErrSequenceOverflow is returned when a sequence no longer fits the
	// configured width.
	ErrSequenceOverflow = errors.New("damm: sequence overflows identifier width")
)

var table = [10][10]byte{
	{0, 3, 1, 7, 5, 9, 8, 6, 4, 2},
	{7, 0, 9, 2, 1, 5, 4, 8, 6, 3},
	{4, 2, 0, 6, 8, 7, 1, 3, 5, 9},
	{1, 7, 5, 0, 9, 8, 3, 4, 2, 6},
	{6, 1, 2, 3, 0, 4, 5, 9, 7, 8},
	{3, 6, 7, 4, 2, 0, 9, 5, 8, 1},
	{5, 8, 6, 9, 7, 2, 0, 1, 3, 4},
	{8, 9, 4, 5, 3, 6, 2, 0, 1, 7},
	{9, 4, 3, 8, 6, 1, 7, 2, 0, 5},
	{2, 5, 8, 1, 4, 3, 6, 7, 9, 0},
}

// interim runs the Damm recurrence over digits.
func interim(digits string) (byte, error) {
	if digits == "" {
		return 0, ErrNotDigits
	}
	var state byte
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrNotDigits, digits)
		}
		state = table[state][c-'0']
	}
	return state, nil
}

// Checksum returns the check digit for digits.
func Checksum(digits string) (int, error) {
	d, err := interim(digits)
	if err != nil {
		return 0, err
	}
	return int(d), nil
}

// Valid reports whether digits, whose last digit is the check digit,
// passes the Damm check.
func Valid(digits string) bool {
	d, err := interim(digits)
	return err == nil && d == 0
}

// Encode returns the zero-padded sequence with its check digit appended.
func Encode(seq, width int) (string, error) {
	if seq < 0 {
		return "", fmt.Errorf("%w: negative sequence %d", ErrSequenceOverflow, seq)
	}
	digits := fmt.Sprintf("%0*d", width, seq)
	if width > 0 && len(digits) > width {
		return "", fmt.Errorf("%w: %d does not fit %d digits", ErrSequenceOverflow, seq, width)
	}
	check, err := Checksum(digits)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", digits, check), nil
}

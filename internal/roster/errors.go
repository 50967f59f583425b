package roster

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCategoryField is returned when no column of the header can be
	// identified as the college column.
	ErrMissingCategoryField = errors.New("category column not found")

	// ErrEmptyDataset is returned when a sheet yields no data rows, so the
	// reordered result would be empty.
	ErrEmptyDataset = errors.New("empty result after partition: no data rows")

	// ErrUnknownField is returned when a field name is not part of the dataset.
	ErrUnknownField = errors.New("unknown field")

	// ErrDuplicateField is returned when a header names the same field twice.
	ErrDuplicateField = errors.New("duplicate field name")

	// ErrDuplicateLabel is returned when a canonical order lists a label twice.
	ErrDuplicateLabel = errors.New("duplicate label in canonical order")

	// ErrAliasCycle is returned when alias entries point back at themselves.
	ErrAliasCycle = errors.New("alias cycle")
)

// DecodeError reports that a raw upload could not be turned into rows.
type DecodeError struct {
	Format string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode failure: %v", e.Cause)
	}
	return fmt.Sprintf("decode failure (%s): %v", e.Format, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

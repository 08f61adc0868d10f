package datatable

import "errors"

// Common errors returned by the datatable package.
var (
	// ErrUnknownColumn is returned when an operation references a column
	// the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNotGrouping is returned when group-by is asked to partition by a
	// column that is neither a declared grouping nor the timestamp column.
	ErrNotGrouping = errors.New("not a grouping column")

	// ErrUnsupportedMethod is returned for aggregation methods other than
	// sum and mean.
	ErrUnsupportedMethod = errors.New("unsupported aggregation method")

	// ErrNoTimestamp is returned when a row does not carry exactly one
	// timestamp column, or carries it under an inconsistent name.
	ErrNoTimestamp = errors.New("row must have exactly one timestamp column")

	// ErrMissingGrouping is returned when a row has no value for one of
	// the table's grouping columns.
	ErrMissingGrouping = errors.New("row is missing a grouping column")

	// ErrBadValue is returned when a cell value's kind does not match the
	// role of its column.
	ErrBadValue = errors.New("value kind does not match column")
)

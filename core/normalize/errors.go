package normalize

import "errors"

var (
	// ErrEmpty is returned when the input holds no value at all.
	ErrEmpty = errors.New("empty value")
	// ErrFormat is returned when the input cannot be interpreted.
	ErrFormat = errors.New("unrecognised format")
	// ErrRange is returned for values that parse but cannot be valid, such as
	// negative distances or minutes above 59.
	ErrRange = errors.New("value out of range")
)

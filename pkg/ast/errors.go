package ast

import "errors"

var (
	// ErrUnsupported is returned when a pass meets a construct it does not cover.
	ErrUnsupported = errors.New("unsupported construct")

	// ErrMalformed is returned for trees that violate structural expectations,
	// such as a loop target that is not built from names.
	ErrMalformed = errors.New("malformed tree")
)

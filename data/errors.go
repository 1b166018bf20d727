package data

import "errors"

var (
	// ErrInvalidPath reports a path that cannot take part in path
	// arithmetic, such as the empty top marker.
	ErrInvalidPath = errors.New("snaptree: invalid path")

	// ErrOutsidePath reports a target path that is not located under
	// the given root path.
	ErrOutsidePath = errors.New("snaptree: path outside of root")
)

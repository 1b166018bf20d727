package snaptree

import "errors"

// Standard browse errors returned by the cache and tree.
var (
	// ErrUnknownNode reports a node id that is not present in the
	// flat array.
	ErrUnknownNode = errors.New("snaptree: unknown node")

	// ErrNoSource reports a cache constructed without a child source.
	ErrNoSource = errors.New("snaptree: no child source configured")

	// ErrNoCache reports a tree constructed without a children cache.
	ErrNoCache = errors.New("snaptree: no children cache configured")
)

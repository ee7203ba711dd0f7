package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Table contracts
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")

	// Graph metrics that are undefined for the given graph
	ErrEmptyGraph   = errors.New("graph has no nodes")
	ErrDisconnected = errors.New("graph is not connected")
	ErrNotConverged = errors.New("power iteration did not converge")
	ErrUndirected   = errors.New("not defined for undirected graphs")
)

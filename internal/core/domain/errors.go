package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownElement indicates an element symbol with no periodic-table entry
	ErrUnknownElement = errors.New("unknown element")

	// ErrUnsupportedConstraintKind indicates a constraint document whose kind
	// is not registered; decoding must fail rather than misinterpret it
	ErrUnsupportedConstraintKind = errors.New("unsupported constraint kind")

	// ErrResultUnavailable indicates a calculator quantity that was never computed
	ErrResultUnavailable = errors.New("result unavailable")

	// ErrAtomCountMismatch indicates paired structures with different atom counts
	ErrAtomCountMismatch = errors.New("atom count mismatch")

	// ErrIngestInProgress indicates a catalog update is already running
	ErrIngestInProgress = errors.New("ingest already in progress")

	// ErrDegenerateCell indicates a cell whose vectors do not span a volume
	ErrDegenerateCell = errors.New("degenerate cell")
)

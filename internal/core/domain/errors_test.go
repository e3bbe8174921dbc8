package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrAlreadyExists", ErrAlreadyExists, "already exists"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnknownElement", ErrUnknownElement, "unknown element"},
		{"ErrUnsupportedConstraintKind", ErrUnsupportedConstraintKind, "unsupported constraint kind"},
		{"ErrResultUnavailable", ErrResultUnavailable, "result unavailable"},
		{"ErrAtomCountMismatch", ErrAtomCountMismatch, "atom count mismatch"},
		{"ErrIngestInProgress", ErrIngestInProgress, "ingest already in progress"},
		{"ErrDegenerateCell", ErrDegenerateCell, "degenerate cell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrors_WrappedMatching(t *testing.T) {
	wrapped := fmt.Errorf("job 42: %w", ErrAtomCountMismatch)
	if !errors.Is(wrapped, ErrAtomCountMismatch) {
		t.Error("expected wrapped sentinel to match")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("expected unrelated sentinel not to match")
	}
}

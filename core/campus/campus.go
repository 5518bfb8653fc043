package campus

import (
	"context"

	"github.com/trezcool/carline/core"
)

var ErrNotFound = core.NewNotFoundError("campus")

type (
	Campus struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		IsActive bool   `json:"is_active"`
	}

	// Directory resolves a campus reference to its canonical record.
	// A reference is matched against the id first, then against the display name (case-insensitive).
	Directory interface {
		Resolve(ctx context.Context, ref string) (Campus, error)
	}
)

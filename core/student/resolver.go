package student

import (
	"context"

	"github.com/pkg/errors"
)

// Resolver finds the students to pick up for a car number.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve prefers students attending campusID and falls back to every match,
// since car numbers are unique system-wide and siblings may attend different campuses.
// An empty result is not an error.
func (r *Resolver) Resolve(ctx context.Context, carNumber int, campusID string) ([]Summary, error) {
	if carNumber == NoCar {
		return []Summary{}, nil
	}

	matches, err := r.repo.QueryActiveByCarNumber(ctx, carNumber)
	if err != nil {
		return nil, errors.Wrap(err, "querying students by car number")
	}

	local := make([]Summary, 0, len(matches))
	all := make([]Summary, 0, len(matches))
	for _, s := range matches {
		if !s.IsActive {
			continue
		}
		all = append(all, s.Summary())
		if s.AttendsCampus(campusID) {
			local = append(local, s.Summary())
		}
	}
	if len(local) > 0 {
		return local, nil
	}
	return all, nil
}

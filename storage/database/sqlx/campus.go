package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core/campus"
)

type campusRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
}

type campusDirectory struct {
	db *sqlx.DB
}

var _ campus.Directory = (*campusDirectory)(nil)

func NewCampusDirectory(db *sqlx.DB) campus.Directory {
	return &campusDirectory{db: db}
}

// Resolve matches the id before the name so that a campus named like another's id cannot shadow it.
func (dir *campusDirectory) Resolve(ctx context.Context, ref string) (campus.Campus, error) {
	var row campusRow
	err := dir.db.GetContext(ctx, &row, `
		SELECT id, name, is_active FROM campuses
		WHERE id = $1 OR lower(name) = lower($1)
		ORDER BY (id = $1) DESC
		LIMIT 1`,
		ref)
	if err != nil {
		return campus.Campus{}, trapNoRowsErr(errors.Wrap(err, "selecting campus"), campus.ErrNotFound)
	}
	return campus.Campus{ID: row.ID, Name: row.Name, IsActive: row.IsActive}, nil
}

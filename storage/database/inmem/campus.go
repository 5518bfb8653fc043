package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/carline/core/campus"
)

type campusDirectory struct {
	db *DB
}

var _ campus.Directory = (*campusDirectory)(nil)

func NewCampusDirectory(db *DB) campus.Directory {
	return &campusDirectory{db: db}
}

func (dir *campusDirectory) Resolve(_ context.Context, ref string) (campus.Campus, error) {
	dir.db.mutex.RLock()
	defer dir.db.mutex.RUnlock()

	if c, ok := dir.db.campuses[ref]; ok {
		return c, nil
	}
	for _, c := range dir.db.campuses {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return campus.Campus{}, campus.ErrNotFound
}

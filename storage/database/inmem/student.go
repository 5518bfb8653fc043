package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/carline/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) QueryActiveByCarNumber(_ context.Context, carNumber int) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	out := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if s.IsActive && s.CarNumber == carNumber {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/carline/core/student"
)

type studentRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Grade     string         `db:"grade"`
	Avatar    null.String    `db:"avatar"`
	Birthday  null.Time      `db:"birthday"`
	CarNumber int            `db:"car_number"`
	CampusIDs pq.StringArray `db:"campus_ids"`
	IsActive  bool           `db:"is_active"`
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) QueryActiveByCarNumber(ctx context.Context, carNumber int) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, name, grade, avatar, birthday, car_number, campus_ids, is_active
		FROM students WHERE car_number = $1 AND is_active
		ORDER BY name`,
		carNumber)
	if err != nil {
		return nil, errors.Wrap(err, "selecting students by car number")
	}

	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, student.Student{
			ID:        r.ID,
			Name:      r.Name,
			Grade:     r.Grade,
			Avatar:    r.Avatar.String,
			Birthday:  r.Birthday.Ptr(),
			CarNumber: r.CarNumber,
			CampusIDs: []string(r.CampusIDs),
			IsActive:  r.IsActive,
		})
	}
	return students, nil
}

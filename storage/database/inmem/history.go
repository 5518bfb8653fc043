package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/carline/core/history"
)

var errDuplicateHistory = errors.New("entry already archived")

type historyRepository struct {
	db *DB
}

var _ history.Repository = (*historyRepository)(nil)

func NewHistoryRepository(db *DB) history.Repository {
	return &historyRepository{db: db}
}

func (repo *historyRepository) QueryRecords(_ context.Context, filter history.Filter) ([]history.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return queryHistory(repo.db.history, filter), nil
}

func queryHistory(recs []history.Record, filter history.Filter) []history.Record {
	out := make([]history.Record, 0)
	for _, r := range recs {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if filter.NewestFirst {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].CompletedAt.Before(out[j].CompletedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

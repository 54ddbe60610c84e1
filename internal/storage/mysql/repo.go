package mysql

import (
	"context"
	"database/sql"

	"campus_market/internal/domain"
)

// Repo is the search-log store: one row per executed search, read back as
// aggregates for analytics and cache warming.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) LogSearch(ctx context.Context, query string, results int) error {
	_, err := r.db.ExecContext(ctx, insertSearchSQL, query, results)
	return err
}

func (r *Repo) TopQueries(ctx context.Context, limit int) ([]domain.QueryStat, error) {
	rows, err := r.db.QueryContext(ctx, topQueriesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QueryStat
	for rows.Next() {
		var qs domain.QueryStat
		if err := rows.Scan(&qs.Query, &qs.Count); err != nil {
			return nil, err
		}
		out = append(out, qs)
	}
	return out, rows.Err()
}

func (r *Repo) RecentSearches(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	rows, err := r.db.QueryContext(ctx, recentSearchesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SearchRecord
	for rows.Next() {
		var sr domain.SearchRecord
		if err := rows.Scan(&sr.Query, &sr.Results); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

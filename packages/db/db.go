// Package db
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"serptrack/packages/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            BIGSERIAL PRIMARY KEY,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL,
	strategy      TEXT NOT NULL,
	success_rate  DOUBLE PRECISION NOT NULL,
	keyword_count INT NOT NULL
);

CREATE TABLE IF NOT EXISTS keyword_ranks (
	run_id      BIGINT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	keyword_pos INT NOT NULL,
	keyword     TEXT NOT NULL,
	site        TEXT NOT NULL,
	rank        INT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_keyword_ranks_run ON keyword_ranks (run_id, keyword_pos);
CREATE INDEX IF NOT EXISTS idx_keyword_ranks_history ON keyword_ranks (site, keyword, recorded_at);
`

// Storage is the time-series store for extracted ranks. Each run appends a
// fresh set of rows; nothing is ever patched in place, so analytics can
// re-derive comparisons from any point in the history.
type Storage struct {
	DB *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Storage{DB: pool}, nil
}

func (s *Storage) Close() {
	s.DB.Close()
}

// Migrate applies the schema. Safe to run at every boot.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Storage) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// RunMeta describes one finished tracking run.
type RunMeta struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	Strategy     domain.Strategy
	SuccessRate  float64
	KeywordCount int
}

// SaveRun persists a run and its ranking rows in one transaction. The row's
// position in the input slice is stored so the original keyword order
// survives a round trip. Ranks go in via COPY; one run produces
// len(rows) * len(tracked sites) rank rows.
func (s *Storage) SaveRun(ctx context.Context, meta RunMeta, rows []domain.RankingRow) (int64, error) {
	var runID int64
	err := s.WithTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO runs (started_at, finished_at, strategy, success_rate, keyword_count)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			meta.StartedAt, meta.FinishedAt, string(meta.Strategy), meta.SuccessRate, meta.KeywordCount,
		).Scan(&runID)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		var rankRows [][]any
		for pos, row := range rows {
			for site, r := range row.Ranks {
				rank := pgtype.Int4{}
				if r != nil {
					rank = pgtype.Int4{Int32: int32(*r), Valid: true}
				}
				rankRows = append(rankRows, []any{runID, pos, row.Keyword, site, rank, meta.FinishedAt})
			}
		}
		if len(rankRows) > 0 {
			_, err := tx.CopyFrom(ctx,
				pgx.Identifier{"keyword_ranks"},
				[]string{"run_id", "keyword_pos", "keyword", "site", "rank", "recorded_at"},
				pgx.CopyFromRows(rankRows),
			)
			if err != nil {
				return fmt.Errorf("copy keyword ranks: %w", err)
			}
		}
		return nil
	})
	return runID, err
}

// LatestRankings loads the most recent run's ranking table in its original
// keyword order. Returns run ID 0 and no rows when the store is empty.
func (s *Storage) LatestRankings(ctx context.Context) (int64, []domain.RankingRow, error) {
	var runID int64
	err := s.DB.QueryRow(ctx,
		`SELECT id FROM runs ORDER BY finished_at DESC, id DESC LIMIT 1`,
	).Scan(&runID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("select latest run: %w", err)
	}

	dbRows, err := s.DB.Query(ctx,
		`SELECT keyword_pos, keyword, site, rank
		 FROM keyword_ranks WHERE run_id = $1 ORDER BY keyword_pos`,
		runID,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("select keyword ranks: %w", err)
	}
	defer dbRows.Close()

	var rows []domain.RankingRow
	byPos := make(map[int]int)
	for dbRows.Next() {
		var (
			pos     int
			keyword string
			site    string
			rank    pgtype.Int4
		)
		if err := dbRows.Scan(&pos, &keyword, &site, &rank); err != nil {
			return 0, nil, fmt.Errorf("scan keyword rank: %w", err)
		}
		idx, ok := byPos[pos]
		if !ok {
			rows = append(rows, domain.RankingRow{Keyword: keyword, Ranks: make(map[string]*int)})
			idx = len(rows) - 1
			byPos[pos] = idx
		}
		if rank.Valid {
			r := int(rank.Int32)
			rows[idx].Ranks[site] = &r
		} else {
			rows[idx].Ranks[site] = nil
		}
	}
	return runID, rows, dbRows.Err()
}

// RankPoint is one historical observation of a site's rank for a keyword.
type RankPoint struct {
	RunID      int64
	Rank       *int
	RecordedAt time.Time
}

// RankHistory returns up to limit observations for (site, keyword), most
// recent first.
func (s *Storage) RankHistory(ctx context.Context, site, keyword string, limit int32) ([]RankPoint, error) {
	dbRows, err := s.DB.Query(ctx,
		`SELECT run_id, rank, recorded_at
		 FROM keyword_ranks
		 WHERE site = $1 AND keyword = $2
		 ORDER BY recorded_at DESC LIMIT $3`,
		site, keyword, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select rank history: %w", err)
	}
	defer dbRows.Close()

	var points []RankPoint
	for dbRows.Next() {
		var (
			p    RankPoint
			rank pgtype.Int4
		)
		if err := dbRows.Scan(&p.RunID, &rank, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan rank point: %w", err)
		}
		if rank.Valid {
			r := int(rank.Int32)
			p.Rank = &r
		}
		points = append(points, p)
	}
	return points, dbRows.Err()
}

// PruneRuns deletes runs finished before the cutoff; their rank rows go with
// them via the FK cascade. Returns how many runs were removed.
func (s *Storage) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `DELETE FROM runs WHERE finished_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

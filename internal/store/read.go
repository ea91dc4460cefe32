package store

import (
	"context"
	"fmt"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const runColumns = `id, status, tests, count, error_code, error, started_at, ended_at`

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTests returns the entries of a run in execution order.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadTests(ctx context.Context, runID string) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, name, kind, directive, start, count, plan, pass, fail, skip, status, error_code, error
		FROM tests
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tests: %w", err)
	}
	defer rows.Close()

	tests := []Test{}
	for rows.Next() {
		var t Test
		if err := rows.Scan(
			&t.RunID, &t.Seq, &t.Name, &t.Kind, &t.Directive, &t.Start, &t.Count,
			&t.Plan, &t.Pass, &t.Fail, &t.Skip, &t.Status, &t.ErrorCode, &t.Error,
		); err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tests: %w", err)
	}
	return tests, nil
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var started, ended string
	if err := row.Scan(
		&run.ID, &run.Status, &run.Tests, &run.Count,
		&run.ErrorCode, &run.Error, &started, &ended,
	); err != nil {
		return Run{}, err
	}

	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.EndedAt, err = parseTime(ended); err != nil {
		return Run{}, err
	}
	return run, nil
}

package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, status, tests, count, error_code, error, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Status,
		run.Tests,
		run.Count,
		run.ErrorCode,
		run.Error,
		formatTime(run.StartedAt),
		formatTime(run.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// FinishRun records the terminal state of a run. The run must exist.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, count = ?, error_code = ?, error = ?, ended_at = ?
		WHERE id = ?
	`,
		run.Status,
		run.Count,
		run.ErrorCode,
		run.Error,
		formatTime(run.EndedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: unknown run %q", run.ID)
	}
	return nil
}

// WriteTest inserts a test record.
// Uses ON CONFLICT(run_id, seq) DO NOTHING for idempotency.
//
// Note: The run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteTest(ctx context.Context, t Test) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tests
		(run_id, seq, name, kind, directive, start, count, plan, pass, fail, skip, status, error_code, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		t.RunID,
		t.Seq,
		t.Name,
		t.Kind,
		t.Directive,
		t.Start,
		t.Count,
		t.Plan,
		t.Pass,
		t.Fail,
		t.Skip,
		t.Status,
		t.ErrorCode,
		t.Error,
	)
	if err != nil {
		return fmt.Errorf("write test: %w", err)
	}
	return nil
}

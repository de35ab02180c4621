package runlog

import (
	"context"
	"encoding/json"
	"fmt"

	"profileai/internal/infra"
	"profileai/internal/sqlinline"
)

// PostgresStore keeps runs in the inference_runs table.
type PostgresStore struct {
	sql infra.SQLExecutor
}

func NewPostgresStore(sql infra.SQLExecutor) *PostgresStore {
	return &PostgresStore{sql: sql}
}

// EnsureSchema creates the table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QEnsureInferenceRuns); err != nil {
		return fmt.Errorf("runlog: ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, run Run) error {
	images := run.Images
	if images == nil {
		images = []Preview{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return fmt.Errorf("runlog: encode images: %w", err)
	}
	_, err = s.sql.Exec(ctx, sqlinline.QInsertInferenceRun,
		run.ID,
		run.UseCase,
		run.Prompt,
		run.ResultText,
		run.Fallback,
		imagesJSON,
		run.Error,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("runlog: insert run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QListRecentInferenceRuns, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("runlog: list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run        Run
			imagesJSON []byte
		)
		if err := rows.Scan(&run.ID, &run.UseCase, &run.Prompt, &run.ResultText, &run.Fallback, &imagesJSON, &run.Error, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("runlog: scan run: %w", err)
		}
		if len(imagesJSON) > 0 {
			if err := json.Unmarshal(imagesJSON, &run.Images); err != nil {
				return nil, fmt.Errorf("runlog: decode images: %w", err)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runlog: iterate runs: %w", err)
	}
	return runs, nil
}

var _ Store = (*PostgresStore)(nil)

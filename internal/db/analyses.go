package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveAnalysis stores resultJSON verbatim and returns the new analysis ID.
// userID is nil for anonymous callers.
func (db *DB) SaveAnalysis(ctx context.Context, userID *uuid.UUID, filename string, resultJSON []byte) (uuid.UUID, error) {
	if !json.Valid(resultJSON) {
		return uuid.Nil, fmt.Errorf("failed to save analysis: results are not valid JSON")
	}

	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO analyses (id, user_id, cv_name, results)
		 VALUES ($1, $2, $3, $4)`,
		id, userID, filename, resultJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	return id, nil
}

// GetAnalysis retrieves an analysis by ID
func (db *DB) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var a Analysis
	var results []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, cv_name, results, created_at FROM analyses WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.UserID, &a.CVName, &results, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	a.Results = results
	return &a, nil
}

// ListAnalyses retrieves a user's analyses, newest first
func (db *DB) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]AnalysisSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, cv_name, created_at FROM analyses
		 WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	analyses := []AnalysisSummary{}
	for rows.Next() {
		var s AnalysisSummary
		if err := rows.Scan(&s.ID, &s.CVName, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

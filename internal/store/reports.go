package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/caucus-labs/caucus/internal/analysis"
)

// WriteReport stores an analysis report as a JSONB document keyed by session.
// Reports are append-only; LatestReport picks the newest by generation time.
func (s *Store) WriteReport(ctx context.Context, report *analysis.Report) (uuid.UUID, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal report: %w", err)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (id, study_id, session_id, generated_at, body)
		VALUES ($1, $2, $3, $4, $5)`,
		id, report.StudyID, report.SessionID, report.GeneratedAt, body,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// LatestReport fetches the most recent report for a session, or nil when the
// session has not been analyzed yet.
func (s *Store) LatestReport(ctx context.Context, sessionID string) (*analysis.Report, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT body FROM reports WHERE session_id = $1
		ORDER BY generated_at DESC LIMIT 1`, sessionID)

	var body []byte
	if err := row.Scan(&body); err != nil {
		return nil, err
	}
	var report analysis.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

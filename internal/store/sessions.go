package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/caucus-labs/caucus/internal/registry"
	"github.com/caucus-labs/caucus/internal/session"
)

// WriteSession records a finished session and all of its turns in one
// transaction. Tables: sessions, turns. Re-running a session replaces its
// turns rather than appending duplicates.
func (s *Store) WriteSession(ctx context.Context, result *session.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id, study_id, topic, state, rounds_completed, rounds_planned, degraded_turns, cancelled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			rounds_completed = EXCLUDED.rounds_completed,
			degraded_turns = EXCLUDED.degraded_turns,
			cancelled = EXCLUDED.cancelled`,
		result.SessionID, result.StudyID, result.Topic, string(result.State),
		result.RoundsCompleted, result.RoundsPlanned, result.DegradedTurns, result.Cancelled,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM turns WHERE session_id = $1`, result.SessionID)
	if err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}

	for _, t := range result.Turns {
		_, err = tx.Exec(ctx, `
			INSERT INTO turns (id, session_id, study_id, participant_id, round, question, answer, confidence, tags, follow_up_question, follow_up_answer, sentiment, degraded, ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			uuid.New(), t.SessionID, t.StudyID, t.ParticipantID, t.Round, t.Question, t.Answer,
			t.Confidence, t.Tags, t.FollowUpQuestion, t.FollowUpAnswer, t.Sentiment, t.Degraded, t.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadTurns returns a session's turns in round-then-insertion order, the order
// they were produced in.
func (s *Store) LoadTurns(ctx context.Context, sessionID string) ([]session.Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT study_id, participant_id, round, question, answer, confidence, tags, follow_up_question, follow_up_answer, sentiment, degraded, ts
		FROM turns WHERE session_id = $1 ORDER BY round, ts, participant_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []session.Turn
	for rows.Next() {
		t := session.Turn{SessionID: sessionID}
		err := rows.Scan(&t.StudyID, &t.ParticipantID, &t.Round, &t.Question, &t.Answer,
			&t.Confidence, &t.Tags, &t.FollowUpQuestion, &t.FollowUpAnswer, &t.Sentiment, &t.Degraded, &t.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// WriteWeights snapshots a study's weight registry. Each call replaces the
// study's previous snapshot so the stored weights always match the latest
// session.
func (s *Store) WriteWeights(ctx context.Context, studyID string, weighted bool, entries []registry.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM persona_weights WHERE study_id = $1`, studyID)
	if err != nil {
		return fmt.Errorf("clear weights: %w", err)
	}
	for _, e := range entries {
		var rank *int
		if e.Rank > 0 {
			rank = &e.Rank
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO persona_weights (id, study_id, participant_id, weight, rank, primary_icp, notes, weighted_mode, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
			uuid.New(), studyID, e.ParticipantID, e.Weight, rank, e.PrimaryICP, e.Notes, weighted,
		)
		if err != nil {
			return fmt.Errorf("insert weight: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// LoadWeights rebuilds a study's registry from its stored snapshot. Returns
// an empty unweighted registry when no snapshot exists.
func (s *Store) LoadWeights(ctx context.Context, studyID string) (*registry.Registry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT participant_id, weight, rank, primary_icp, notes, weighted_mode
		FROM persona_weights WHERE study_id = $1 ORDER BY participant_id`, studyID)
	if err != nil {
		return nil, fmt.Errorf("query weights: %w", err)
	}
	defer rows.Close()

	weighted := false
	var entries []registry.Entry
	for rows.Next() {
		var e registry.Entry
		var rank *int
		err := rows.Scan(&e.ParticipantID, &e.Weight, &rank, &e.PrimaryICP, &e.Notes, &weighted)
		if err != nil {
			return nil, fmt.Errorf("scan weight: %w", err)
		}
		if rank != nil {
			e.Rank = *rank
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return registry.FromEntries(weighted, entries), nil
}

package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/caucus-labs/caucus/internal/analysis"
	"github.com/caucus-labs/caucus/internal/events"
	"github.com/caucus-labs/caucus/internal/export"
	"github.com/caucus-labs/caucus/internal/persona"
	"github.com/caucus-labs/caucus/internal/registry"
	"github.com/caucus-labs/caucus/internal/session"
	"github.com/caucus-labs/caucus/internal/store"
)

const defaultQuestionCount = 5

// Processor runs the full session pipeline: registry validation, turn
// orchestration, sentiment scoring, aggregation, persistence, export, and
// lifecycle events. Store, events and exporter are each optional; a nil one
// skips that stage.
type Processor struct {
	gen         session.Generator
	profiles    *persona.Library
	facilitator *session.Facilitator
	aggregator  *analysis.Aggregator
	store       *store.Store
	events      *events.Client
	exporter    *export.Exporter
	concurrency int
	logger      *slog.Logger
}

func New(gen session.Generator, profiles *persona.Library, s *store.Store, ev *events.Client, exp *export.Exporter, concurrency int, logger *slog.Logger) *Processor {
	return &Processor{
		gen:         gen,
		profiles:    profiles,
		facilitator: session.NewFacilitator(gen, logger),
		aggregator:  analysis.NewAggregator(logger),
		store:       s,
		events:      ev,
		exporter:    exp,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RunSession executes one session synchronously and returns its report.
// Registry or session config problems fail the run before any turn is
// generated; failures in persistence, export, or events are logged and the
// run continues.
func (p *Processor) RunSession(ctx context.Context, req events.SessionRequest) (*analysis.Report, error) {
	reg, err := buildRegistry(req)
	if err != nil {
		return nil, err
	}

	profiles := p.resolveProfiles(req.Participants)

	questions := req.Questions
	if len(questions) == 0 {
		questions = p.facilitator.GenerateQuestions(ctx, req.Topic, defaultQuestionCount)
	}

	p.publish(events.SubjectSessionStarted, events.SessionEvent{
		StudyID:   req.StudyID,
		SessionID: req.SessionID,
		State:     string(session.StateRunning),
		At:        time.Now().UTC(),
	})

	orch := session.NewOrchestrator(p.gen, p.logger)
	result, err := orch.Run(ctx, session.Config{
		StudyID:      req.StudyID,
		SessionID:    req.SessionID,
		Topic:        req.Topic,
		Questions:    questions,
		Participants: profiles,
		Concurrency:  p.concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}

	p.scoreSentiment(result.Turns)

	if p.store != nil {
		if err := p.store.WriteWeights(ctx, req.StudyID, req.Weighted, reg.Entries()); err != nil {
			p.logger.Error("failed to persist weights", "study_id", req.StudyID, "error", err)
		}
		if err := p.store.WriteSession(ctx, result); err != nil {
			p.logger.Error("failed to persist session", "session_id", result.SessionID, "error", err)
		}
	}

	report := p.aggregator.Aggregate(result.Turns, reg, nil)
	report.StudyID = req.StudyID
	report.SessionID = result.SessionID

	if p.store != nil {
		if _, err := p.store.WriteReport(ctx, report); err != nil {
			p.logger.Error("failed to persist report", "session_id", result.SessionID, "error", err)
		}
	}
	if p.exporter != nil {
		if _, err := p.exporter.WriteTurnsJSONL(req.StudyID, result.SessionID, result.Turns); err != nil {
			p.logger.Error("failed to export turns", "session_id", result.SessionID, "error", err)
		}
		if _, err := p.exporter.WriteTurnsCSV(req.StudyID, result.SessionID, result.Turns); err != nil {
			p.logger.Error("failed to export csv", "session_id", result.SessionID, "error", err)
		}
		if _, err := p.exporter.WriteReport(report); err != nil {
			p.logger.Error("failed to export report", "session_id", result.SessionID, "error", err)
		}
	}

	if result.DegradedTurns > 0 {
		p.publish(events.SubjectSessionDegraded, events.SessionEvent{
			StudyID:       req.StudyID,
			SessionID:     result.SessionID,
			State:         string(result.State),
			DegradedTurns: result.DegradedTurns,
			At:            time.Now().UTC(),
		})
	}
	p.publish(events.SubjectSessionCompleted, events.SessionEvent{
		StudyID:       req.StudyID,
		SessionID:     result.SessionID,
		State:         string(result.State),
		Turns:         len(result.Turns),
		DegradedTurns: result.DegradedTurns,
		Cancelled:     result.Cancelled,
		At:            time.Now().UTC(),
	})

	return report, nil
}

// LatestReport serves the API's report lookups. A session without a stored
// report returns (nil, nil).
func (p *Processor) LatestReport(ctx context.Context, sessionID string) (*analysis.Report, error) {
	if p.store == nil {
		return nil, nil
	}
	report, err := p.store.LatestReport(ctx, sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return report, err
}

// HandleSessionRequested is the NATS handler for caucus.session.requested.
func (p *Processor) HandleSessionRequested(subject string, data []byte) {
	ctx := context.Background()

	var req events.SessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse session request", "error", err)
		return
	}

	p.logger.Info("processing session request",
		"study_id", req.StudyID,
		"topic", req.Topic,
		"participants", len(req.Participants),
	)

	if _, err := p.RunSession(ctx, req); err != nil {
		p.logger.Error("session failed", "study_id", req.StudyID, "error", err)
	}
}

func buildRegistry(req events.SessionRequest) (*registry.Registry, error) {
	entries := make([]registry.Entry, 0, len(req.Participants))
	seen := make(map[string]bool, len(req.Participants))
	for _, pr := range req.Participants {
		// Duplicate ids are a session configuration problem, not a weight one.
		if seen[pr.ParticipantID] {
			return nil, fmt.Errorf("%w: duplicate participant id %s", session.ErrInvalidSessionConfig, pr.ParticipantID)
		}
		seen[pr.ParticipantID] = true

		weight := pr.Weight
		if !req.Weighted && weight == 0 {
			weight = 1.0
		}
		entries = append(entries, registry.Entry{
			ParticipantID: pr.ParticipantID,
			Weight:        weight,
			Rank:          pr.Rank,
			PrimaryICP:    pr.PrimaryICP,
			Notes:         pr.Notes,
		})
	}
	reg := registry.FromEntries(req.Weighted, entries)
	if problems := reg.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", registry.ErrInvalidWeight, strings.Join(problems, "; "))
	}
	return reg, nil
}

// resolveProfiles maps participant IDs to persona profiles. Unknown IDs get a
// bare placeholder so a typo degrades one participant instead of killing the
// session.
func (p *Processor) resolveProfiles(participants []events.ParticipantRequest) []persona.Profile {
	profiles := make([]persona.Profile, 0, len(participants))
	for _, pr := range participants {
		profile, ok := p.profiles.Profile(pr.ParticipantID)
		if !ok {
			p.logger.Warn("persona profile not found, using placeholder", "participant_id", pr.ParticipantID)
			profile = persona.Profile{ID: pr.ParticipantID, Name: pr.ParticipantID}
		}
		profiles = append(profiles, profile)
	}
	return profiles
}

// scoreSentiment fills in sentiment for turns the generation step left
// unscored.
func (p *Processor) scoreSentiment(turns []session.Turn) {
	for i := range turns {
		if turns[i].Sentiment != nil {
			continue
		}
		text := turns[i].Answer
		if turns[i].FollowUpAnswer != "" {
			text += " " + turns[i].FollowUpAnswer
		}
		turns[i].Sentiment = analysis.ScoreSentiment(text)
	}
}

func (p *Processor) publish(subject string, evt events.SessionEvent) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(subject, evt); err != nil {
		p.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

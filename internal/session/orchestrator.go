package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/caucus-labs/caucus/internal/persona"
)

// ErrInvalidSessionConfig covers configurations the orchestrator refuses to
// run: zero participants, zero questions, or duplicate participant ids.
var ErrInvalidSessionConfig = errors.New("invalid session config")

// State is the session lifecycle: Created → Running → Completed or Failed.
type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Config describes one session run. Questions define the rounds: round r
// asks Questions[r-1] of every participant in registration order.
type Config struct {
	StudyID      string
	SessionID    string // generated when empty
	Topic        string
	Questions    []string
	Participants []persona.Profile

	// Concurrency caps how many participants answer in parallel within a
	// round. Zero or one keeps the reference sequential behavior. Rounds are
	// always sequential so prior-round context stays coherent.
	Concurrency int
}

// Result is a completed session: the ordered turn sequence plus run
// accounting.
type Result struct {
	StudyID         string
	SessionID       string
	Topic           string
	State           State
	Turns           []Turn
	RoundsCompleted int
	RoundsPlanned   int
	DegradedTurns   int
	Cancelled       bool
}

// Orchestrator drives round-based interviews. One orchestrator may run many
// sessions; each Run call carries its own state.
type Orchestrator struct {
	gen         Generator
	facilitator *Facilitator
	logger      *slog.Logger
	now         func() time.Time

	cancelled atomic.Bool
}

func NewOrchestrator(gen Generator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gen:         gen,
		facilitator: NewFacilitator(gen, logger),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Cancel requests a cooperative stop. The orchestrator checks the flag at
// round boundaries only; the session completes with partial rounds rather
// than failing.
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
}

func validateConfig(cfg Config) error {
	if len(cfg.Participants) == 0 {
		return fmt.Errorf("%w: no participants", ErrInvalidSessionConfig)
	}
	if len(cfg.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidSessionConfig)
	}
	seen := make(map[string]bool, len(cfg.Participants))
	for _, p := range cfg.Participants {
		if p.ID == "" {
			return fmt.Errorf("%w: participant with empty id", ErrInvalidSessionConfig)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate participant id %s", ErrInvalidSessionConfig, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// Run executes all rounds and returns the ordered turn sequence. Generation
// failures degrade to deterministic fallback answers; only configuration
// errors fail the session, and those emit no turns.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) (*Result, error) {
	result := &Result{
		StudyID:       cfg.StudyID,
		SessionID:     cfg.SessionID,
		Topic:         cfg.Topic,
		State:         StateCreated,
		RoundsPlanned: len(cfg.Questions),
	}
	if result.SessionID == "" {
		result.SessionID = "session_" + uuid.NewString()[:8]
	}

	if err := validateConfig(cfg); err != nil {
		result.State = StateFailed
		return result, err
	}

	o.cancelled.Store(false)
	result.State = StateRunning

	o.logger.Info("session starting",
		"study_id", cfg.StudyID,
		"session_id", result.SessionID,
		"participants", len(cfg.Participants),
		"rounds", len(cfg.Questions),
	)

	// Previous primary answer per participant, used as next-round context.
	// Written only between rounds, so round workers read it race-free.
	prior := make(map[string]string, len(cfg.Participants))

	for round, question := range cfg.Questions {
		roundNum := round + 1

		if o.cancelled.Load() || ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		turns := o.runRound(ctx, cfg, result.SessionID, roundNum, question, prior)
		for i := range turns {
			if turns[i].Degraded {
				result.DegradedTurns++
			}
			prior[turns[i].ParticipantID] = turns[i].Answer
		}
		result.Turns = append(result.Turns, turns...)
		result.RoundsCompleted = roundNum
	}

	result.State = StateCompleted
	o.logger.Info("session complete",
		"session_id", result.SessionID,
		"turns", len(result.Turns),
		"rounds_completed", result.RoundsCompleted,
		"degraded_turns", result.DegradedTurns,
		"cancelled", result.Cancelled,
	)
	return result, nil
}

// runRound answers one question across all participants. Each worker writes
// only its own slot, so the merged sequence keeps registration order no
// matter how goroutines interleave.
func (o *Orchestrator) runRound(ctx context.Context, cfg Config, sessionID string, round int, question string, prior map[string]string) []Turn {
	slots := make([]Turn, len(cfg.Participants))

	workers := cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range cfg.Participants {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int) {
			defer wg.Done()
			defer func() { <-sem }()
			p := &cfg.Participants[slot]
			slots[slot] = o.runTurn(ctx, cfg, sessionID, round, question, p, prior[p.ID])
		}(i)
	}
	wg.Wait()

	return slots
}

// runTurn produces one participant's turn: primary answer, tags, and at most
// one follow-up exchange.
func (o *Orchestrator) runTurn(ctx context.Context, cfg Config, sessionID string, round int, question string, p *persona.Profile, priorAnswer string) Turn {
	roundContext := fmt.Sprintf("This is round %d of %d", round, len(cfg.Questions))
	if priorAnswer != "" {
		roundContext += fmt.Sprintf(". Earlier you said: %s", truncate(priorAnswer, 200))
	}

	answer, confidence, degraded := o.generateAnswer(ctx, p, question, roundContext)

	turn := Turn{
		StudyID:       cfg.StudyID,
		SessionID:     sessionID,
		ParticipantID: p.ID,
		Round:         round,
		Question:      question,
		Answer:        answer,
		Confidence:    confidence,
		Degraded:      degraded,
		Timestamp:     o.now(),
	}

	if followUp := o.facilitator.FollowUp(ctx, question, answer, p); followUp != "" {
		followUpContext := fmt.Sprintf("Follow-up to: %s", truncate(answer, 100))
		followUpAnswer, _, followUpDegraded := o.generateAnswer(ctx, p, followUp, followUpContext)
		turn.FollowUpQuestion = followUp
		turn.FollowUpAnswer = followUpAnswer
		turn.Degraded = turn.Degraded || followUpDegraded
	}

	turn.Tags = extractTags(question, turn.Answer, turn.FollowUpAnswer)
	return turn
}

// generateAnswer invokes the generator and scores the result. A failed or
// absent generator yields the profile-derived fallback with base confidence.
func (o *Orchestrator) generateAnswer(ctx context.Context, p *persona.Profile, question, promptContext string) (answer string, confidence float64, degraded bool) {
	if o.gen != nil {
		prompt := persona.BuildPrompt(p, question, promptContext)
		raw, err := o.gen.Generate(ctx, persona.SystemPrompt, prompt)
		if err == nil && raw != "" {
			return raw, scoreConfidence(raw), false
		}
		if err != nil {
			o.logger.Warn("generation failed, substituting fallback answer",
				"participant", p.ID,
				"error", err,
			)
		}
	}
	return persona.FallbackAnswer(p, question), baseConfidence, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects for the session lifecycle. Requested is consumed by the
// processor; the rest are emitted for downstream listeners (dashboards,
// exporters, alerting).
const (
	SubjectSessionRequested = "caucus.session.requested"
	SubjectSessionStarted   = "caucus.session.started"
	SubjectSessionCompleted = "caucus.session.completed"
	SubjectSessionDegraded  = "caucus.session.degraded"
)

// SessionRequest asks the processor to run a session. Participants carry
// their registry weights inline so a request is self-contained.
type SessionRequest struct {
	StudyID      string               `json:"study_id"`
	SessionID    string               `json:"session_id,omitempty"`
	Topic        string               `json:"topic"`
	Questions    []string             `json:"questions,omitempty"`
	Weighted     bool                 `json:"weighted"`
	Participants []ParticipantRequest `json:"participants"`
}

type ParticipantRequest struct {
	ParticipantID string  `json:"participant_id"`
	Weight        float64 `json:"weight"`
	Rank          int     `json:"rank,omitempty"`
	PrimaryICP    bool    `json:"primary_icp,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

// SessionEvent is the payload for started/completed/degraded notifications.
type SessionEvent struct {
	StudyID       string    `json:"study_id"`
	SessionID     string    `json:"session_id"`
	State         string    `json:"state"`
	Turns         int       `json:"turns,omitempty"`
	DegradedTurns int       `json:"degraded_turns,omitempty"`
	Cancelled     bool      `json:"cancelled,omitempty"`
	At            time.Time `json:"at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// SubjectBulkItem receives one message per bulk item status change.
	SubjectBulkItem = "autograder.bulk.item"
	// SubjectGradingCompleted receives one message per graded submission.
	SubjectGradingCompleted = "autograder.grading.completed"
)

// BulkItemEvent reports a bulk item transition.
type BulkItemEvent struct {
	BatchID      string    `json:"batchId"`
	Index        int       `json:"index"`
	StudentID    string    `json:"studentId"`
	AssignmentID string    `json:"assignmentId"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Progress     float64   `json:"progress"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// GradingCompletedEvent summarises a graded submission.
type GradingCompletedEvent struct {
	AssignmentID string    `json:"assignmentId"`
	PassedCount  int       `json:"passedCount"`
	TotalCount   int       `json:"totalCount"`
	FinalScore   float64   `json:"finalScore"`
	MaxScore     float64   `json:"maxScore"`
	Fallback     bool      `json:"fallback"`
	GradedAt     time.Time `json:"gradedAt"`
}

// Publisher emits grading lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event interface{}) error
}

type natsConn interface {
	Publish(subject string, data []byte) error
}

type natsPublisher struct {
	conn   natsConn
	logger zerolog.Logger
}

// NewNATSPublisher publishes JSON encoded events on the given connection.
func NewNATSPublisher(nc *nats.Conn, logger zerolog.Logger) Publisher {
	return newNATSPublisher(nc, logger)
}

func newNATSPublisher(conn natsConn, logger zerolog.Logger) *natsPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug().Str("subject", subject).Int("bytes", len(payload)).Msg("event published")
	return nil
}

type nopPublisher struct{}

// NewNopPublisher discards every event. Used when NATS is not configured.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}

// Connect dials NATS with the reconnect settings the service expects.
func Connect(url string, name string) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return nc, nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	subject string
	data    []byte
}

type fakeConn struct {
	messages []recordedMessage
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, recordedMessage{subject: subject, data: data})
	return nil
}

func TestNATSPublisherEncodesEvents(t *testing.T) {
	conn := &fakeConn{}
	publisher := newNATSPublisher(conn, zerolog.Nop())

	event := BulkItemEvent{BatchID: "b1", Index: 2, Status: "failed", Error: "assignment not found", Progress: 1, OccurredAt: time.Unix(0, 0).UTC()}
	require.NoError(t, publisher.Publish(context.Background(), SubjectBulkItem, event))

	require.Len(t, conn.messages, 1)
	require.Equal(t, SubjectBulkItem, conn.messages[0].subject)

	var decoded BulkItemEvent
	require.NoError(t, json.Unmarshal(conn.messages[0].data, &decoded))
	require.Equal(t, event, decoded)
}

func TestNATSPublisherWrapsErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	publisher := newNATSPublisher(conn, zerolog.Nop())

	err := publisher.Publish(context.Background(), SubjectGradingCompleted, GradingCompletedEvent{})
	require.ErrorContains(t, err, "publish autograder.grading.completed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, publisher.Publish(ctx, SubjectGradingCompleted, GradingCompletedEvent{}), context.Canceled)
}

func TestNopPublisher(t *testing.T) {
	require.NoError(t, NewNopPublisher().Publish(context.Background(), SubjectBulkItem, nil))
}

func TestConnectRequiresURL(t *testing.T) {
	_, err := Connect("", "autograder")
	require.Error(t, err)
}

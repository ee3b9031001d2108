package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTransport is a mock implementation of the Transport interface.
type mockTransport struct {
	SendFunc      func(ctx context.Context, destination, body string) error
	ConnectedFunc func() bool
	sent          []Message
}

func (m *mockTransport) Send(ctx context.Context, destination, body string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, destination, body); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, Message{Destination: destination, Body: body})
	return nil
}

func (m *mockTransport) Connected() bool {
	if m.ConnectedFunc != nil {
		return m.ConnectedFunc()
	}
	return true
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Message{Destination: "31612345678", Body: "first"})
	q.Enqueue(Message{Destination: "31612345678", Body: "second"})
	assert.Equal(t, 2, q.Len())

	m, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "first", m.Body)

	m, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "second", m.Body)

	_, ok = q.Dequeue()
	assert.False(t, ok)
}

func TestWorker_DeliversOneMessagePerTick(t *testing.T) {
	q := NewQueue()
	transport := &mockTransport{}
	w := NewWorker(q, transport, time.Second, 3)

	q.Enqueue(Message{Destination: "31612345678", Body: "zone entry", VesselName: "EVER GLORY"})
	q.Enqueue(Message{Destination: "31687654321", Body: "zone entry", VesselName: "EVER GLORY"})

	w.ProcessOne(context.Background())
	assert.Len(t, transport.sent, 1)
	assert.Equal(t, 1, q.Len())

	w.ProcessOne(context.Background())
	assert.Len(t, transport.sent, 2)
	assert.Equal(t, 0, q.Len())
}

func TestWorker_DisconnectedTransportKeepsMessagesQueued(t *testing.T) {
	q := NewQueue()
	transport := &mockTransport{
		ConnectedFunc: func() bool { return false },
	}
	w := NewWorker(q, transport, time.Second, 3)

	q.Enqueue(Message{Destination: "31612345678", Body: "arrival"})
	w.ProcessOne(context.Background())

	assert.Empty(t, transport.sent)
	assert.Equal(t, 1, q.Len(), "message must stay queued while disconnected")
}

func TestWorker_RetriesThenDrops(t *testing.T) {
	q := NewQueue()
	sendAttempts := 0
	transport := &mockTransport{
		SendFunc: func(context.Context, string, string) error {
			sendAttempts++
			return errors.New("gateway timeout")
		},
	}
	w := NewWorker(q, transport, time.Second, 3)

	q.Enqueue(Message{Destination: "31612345678", Body: "12h warning"})

	// Each tick dequeues, fails, and requeues with attempts incremented,
	// until the cap drops the message.
	for i := 0; i < 5; i++ {
		w.ProcessOne(context.Background())
	}

	assert.Equal(t, 3, sendAttempts)
	assert.Equal(t, 0, q.Len())
}

func TestWorker_FailureDoesNotBlockLaterMessages(t *testing.T) {
	q := NewQueue()
	transport := &mockTransport{
		SendFunc: func(_ context.Context, destination, _ string) error {
			if destination == "31600000000" {
				return errors.New("unreachable")
			}
			return nil
		},
	}
	w := NewWorker(q, transport, time.Second, 2)

	q.Enqueue(Message{Destination: "31600000000", Body: "warning"})
	q.Enqueue(Message{Destination: "31612345678", Body: "warning"})

	w.ProcessOne(context.Background()) // fails, requeued behind the good one
	w.ProcessOne(context.Background()) // delivers the good one
	w.ProcessOne(context.Background()) // fails again, dropped

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "31612345678", transport.sent[0].Destination)
	assert.Equal(t, 0, q.Len())
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "31612345678", NormalizePhone("+31612345678"))
	assert.Equal(t, "31612345678", NormalizePhone(" 31612345678 "))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestZoneEntryMessage_PortSpecificWording(t *testing.T) {
	assert.Contains(t, ZoneEntryMessage("EVER GLORY", "BEANR", "Antwerp"), "Antwerp")
	assert.Contains(t, ZoneEntryMessage("EVER GLORY", "NLRTM", "Rotterdam"), "2-3 hours")
	assert.Contains(t, ZoneEntryMessage("EVER GLORY", "ESBCN", "Barcelona"), "Barcelona")
}

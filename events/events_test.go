package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "field.loop.created", Subject("loop_created"))
	assert.Equal(t, "field.swarm.signal_created", Subject("swarm_signal_created"))
	assert.Equal(t, "field.triggers", Subject("triggers"))
}

func TestNoopPublisher(t *testing.T) {
	var pub Publisher = &NoopPublisher{}
	require.NoError(t, pub.Publish(context.Background(), Subject("loop_created"), Message{}))
	require.NoError(t, pub.Close())
}

func TestNATSPublisher_ImplementsPublisher(t *testing.T) {
	var _ Publisher = (*NATSPublisher)(nil)
}

func TestNATSPublisher_Publish(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(AllSubjects, ch)
	require.NoError(t, err)
	defer sub.Unsubscribe() //nolint:errcheck
	require.NoError(t, nc.Flush())

	msg := Message{Type: "signal_created", Data: map[string]any{"id": 3}}
	require.NoError(t, pub.Publish(context.Background(), Subject(msg.Type), msg))

	select {
	case m := <-ch:
		assert.Equal(t, "field.signal.created", m.Subject)
		var got Message
		require.NoError(t, json.Unmarshal(m.Data, &got))
		assert.Equal(t, "signal_created", got.Type)
		assert.Equal(t, map[string]any{"id": 3.0}, got.Data)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestNATSSubscriber_Follow(t *testing.T) {
	url := startTestNATS(t)

	pub, err := NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()

	s, err := NewNATSSubscriber(url)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Follow(ctx, AllSubjects, func(_ string, msg Message) {
			select {
			case got <- msg:
			default:
			}
			cancel()
		})
	}()

	// Follow subscribes asynchronously; keep publishing until one arrives.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case msg := <-got:
			assert.Equal(t, "decision_joined", msg.Type)
			require.NoError(t, <-done)
			return
		case <-tick.C:
			require.NoError(t, pub.Publish(context.Background(), Subject("decision_joined"), Message{Type: "decision_joined"}))
		case <-deadline:
			t.Fatal("timed out waiting for follow")
		}
	}
}

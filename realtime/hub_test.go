package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"field-swarm/events"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Count() == n }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastReachesConnectedClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	pub := &recordingPublisher{}
	h := NewHub(8, pub, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	a := dial(t, srv)
	defer a.Close()
	b := dial(t, srv)
	defer b.Close()
	waitForClients(t, h, 2)

	h.Broadcast("loop_created", map[string]any{"id": 12})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg events.Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "loop_created", msg.Type)
		assert.Equal(t, map[string]any{"id": 12.0}, msg.Data)
	}
	assert.Equal(t, []string{"field.loop.created"}, pub.subjects)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, h.Count())
}

func TestHub_DisconnectedClientIsForgotten(t *testing.T) {
	h := NewHub(0, nil, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
}

func TestHub_LateClientMissesEarlierBroadcast(t *testing.T) {
	h := NewHub(8, nil, nil)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	h.Broadcast("signal_created", map[string]any{"id": 1})
	h.deliver(<-h.queue)

	conn := dial(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx) //nolint:errcheck

	h.Broadcast("signal_created", map[string]any{"id": 2})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":2`)
}

func TestHub_BroadcastDropsWhenQueueFull(t *testing.T) {
	h := NewHub(1, nil, nil)

	h.Broadcast("a", nil)
	h.Broadcast("b", nil)

	assert.Len(t, h.queue, 1)
}

func TestHub_PublishErrorDoesNotBlockDelivery(t *testing.T) {
	h := NewHub(2, &recordingPublisher{err: errors.New("bus down")}, nil)

	h.Broadcast("resource_created", map[string]any{})

	assert.Len(t, h.queue, 1)
}

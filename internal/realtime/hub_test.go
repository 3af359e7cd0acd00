package realtime

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-tasksync/internal/config"
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		SendBuffer:           16,
		WriteWait:            time.Second,
		PongWait:             5 * time.Second,
		MaxMessageSize:       1 << 16,
		RejectedSubprotocols: []string{"vite-hmr"},
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(zerolog.Nop(), testRealtimeConfig(), nil)
}

var testClientSeq atomic.Int64

// newTestClient creates a client without a network connection; tests
// read what the hub queued straight from its send channel.
func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		id:     fmt.Sprintf("test-%d", testClientSeq.Add(1)),
		hub:    hub,
		logger: zerolog.Nop(),
		send:   make(chan []byte, buffer),
	}
}

func drain(c *Client) []string {
	var out []string
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, string(data))
		default:
			return out
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub, 1)

	require.True(t, hub.Register(c))
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, c.closed)

	// Unregistering twice is a no-op.
	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := newTestHub(t)
	clients := []*Client{newTestClient(hub, 4), newTestClient(hub, 4), newTestClient(hub, 4)}
	for _, c := range clients {
		require.True(t, hub.Register(c))
	}

	hub.Broadcast(TaskDeleted{TaskID: 42})

	for _, c := range clients {
		assert.Equal(t, []string{`{"type":"TASK_DELETED","taskId":42}`}, drain(c))
	}
}

func TestHub_BroadcastExclude(t *testing.T) {
	hub := newTestHub(t)
	origin := newTestClient(hub, 4)
	peer := newTestClient(hub, 4)
	hub.Register(origin)
	hub.Register(peer)

	hub.Broadcast(TaskDeleted{TaskID: 1}, origin)

	assert.Empty(t, drain(origin))
	assert.Len(t, drain(peer), 1)
}

func TestHub_RelaySkipsSender(t *testing.T) {
	hub := newTestHub(t)
	sender := newTestClient(hub, 4)
	a := newTestClient(hub, 4)
	b := newTestClient(hub, 4)
	for _, c := range []*Client{sender, a, b} {
		hub.Register(c)
	}

	hub.Relay([]byte("not even json"), sender)

	assert.Empty(t, drain(sender))
	assert.Equal(t, []string{"not even json"}, drain(a))
	assert.Equal(t, []string{"not even json"}, drain(b))
}

func TestHub_NoReplayForLateJoiners(t *testing.T) {
	hub := newTestHub(t)
	early := newTestClient(hub, 8)
	hub.Register(early)

	for i := int64(1); i <= 3; i++ {
		hub.Broadcast(TaskDeleted{TaskID: i})
	}

	late := newTestClient(hub, 8)
	hub.Register(late)
	assert.Empty(t, drain(late))

	hub.Broadcast(TaskDeleted{TaskID: 4})
	assert.Equal(t, []string{`{"type":"TASK_DELETED","taskId":4}`}, drain(late))
	assert.Len(t, drain(early), 4)
}

func TestHub_FailedDeliveryDoesNotAbortOthers(t *testing.T) {
	hub := newTestHub(t)
	stuck := newTestClient(hub, 1)
	closing := newTestClient(hub, 4)
	healthy := newTestClient(hub, 4)
	for _, c := range []*Client{stuck, closing, healthy} {
		hub.Register(c)
	}

	// Fill the stuck client's queue and mark the other one as closing.
	require.True(t, stuck.enqueue([]byte("backlog")))
	closing.close()

	hub.Broadcast(TaskDeleted{TaskID: 9})

	assert.Len(t, drain(healthy), 1)
	assert.Equal(t, 1, hub.ClientCount(), "clients that refused the send are dropped")
	assert.Equal(t, []string{"backlog"}, drain(stuck))
}

func TestHub_CloseRefusesRegistration(t *testing.T) {
	hub := newTestHub(t)
	c := newTestClient(hub, 1)
	hub.Register(c)

	hub.Close()

	assert.Equal(t, 0, hub.ClientCount())
	assert.True(t, c.closed)
	assert.False(t, hub.Register(newTestClient(hub, 1)))
}

func TestHub_ConcurrentMembershipDuringBroadcast(t *testing.T) {
	hub := newTestHub(t)
	stable := newTestClient(hub, 1024)
	hub.Register(stable)

	const broadcasts = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < broadcasts; i++ {
			hub.Broadcast(TaskDeleted{TaskID: int64(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < broadcasts; i++ {
			c := newTestClient(hub, 1024)
			hub.Register(c)
			hub.Unregister(c)
		}
	}()
	wg.Wait()

	assert.Len(t, drain(stable), broadcasts)
	assert.Equal(t, 1, hub.ClientCount())
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"coach_server/server/common/infra/cache"
	commonlog "coach_server/server/common/log"
	"coach_server/server/common/session"
)

type Client struct {
	UserID string
	ConnID string
	Conn   *websocket.Conn
	mu     sync.Mutex
}

func (c *Client) send(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(payload)
}

// Hub tracks one workflow snapshot per user and fans state transitions out
// to that user's websocket connections. Events arrive over the Redis
// session channel from mediaman and coachman; illegal transitions are
// dropped by the state machine, not forwarded.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[string]*Client
	states  map[string]session.Snapshot

	redis  *redis.Client
	sub    *redis.PubSub
	cancel context.CancelFunc
}

func NewHub() *Hub {
	return &Hub{
		clients: map[string]map[string]*Client{},
		states:  map[string]session.Snapshot{},
	}
}

func (h *Hub) UseRedis(client *redis.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redis = client
}

func (h *Hub) StartSubscriber(ctx context.Context) error {
	h.mu.Lock()
	if h.redis == nil {
		h.mu.Unlock()
		return errors.New("redis client is nil")
	}
	if h.sub != nil {
		h.mu.Unlock()
		return nil
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := h.redis.Subscribe(subCtx, cache.SessionEventsChannel)
	h.sub = sub
	h.cancel = cancel
	h.mu.Unlock()

	go h.consumeEvents(subCtx, sub)
	return nil
}

func (h *Hub) StopSubscriber() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.sub != nil {
		_ = h.sub.Close()
		h.sub = nil
	}
}

func (h *Hub) consumeEvents(ctx context.Context, sub *redis.PubSub) {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev session.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				commonlog.Warnf("decode session event: %v", err)
				continue
			}
			h.Dispatch(ev)
		}
	}
}

// Dispatch applies one event to the owning user's state machine and, if
// the transition is legal, pushes the new snapshot to their connections.
func (h *Hub) Dispatch(ev session.Event) {
	if ev.UserID == "" {
		return
	}
	h.mu.Lock()
	current, ok := h.states[ev.UserID]
	if !ok {
		current = session.NewSnapshot()
	}
	next, applied := current.Apply(ev)
	if applied {
		h.states[ev.UserID] = next
	}
	conns := make([]*Client, 0, 4)
	for _, cl := range h.clients[ev.UserID] {
		conns = append(conns, cl)
	}
	h.mu.Unlock()

	if !applied {
		commonlog.Debugf("dropped illegal transition %s -> %s user_id=%s", current.State, ev.State, ev.UserID)
		return
	}
	for _, cl := range conns {
		if err := cl.send(next); err != nil {
			commonlog.Warnf("push session state conn_id=%s user_id=%s: %v", cl.ConnID, cl.UserID, err)
		}
	}
}

// Register adds a connection and replays the user's current snapshot.
func (h *Hub) Register(cl *Client) {
	h.mu.Lock()
	if _, ok := h.clients[cl.UserID]; !ok {
		h.clients[cl.UserID] = map[string]*Client{}
	}
	h.clients[cl.UserID][cl.ConnID] = cl
	snapshot, ok := h.states[cl.UserID]
	if !ok {
		snapshot = session.NewSnapshot()
	}
	h.mu.Unlock()

	if err := cl.send(snapshot); err != nil {
		commonlog.Warnf("replay session state conn_id=%s: %v", cl.ConnID, err)
	}
}

func (h *Hub) Unregister(cl *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[cl.UserID]; ok {
		delete(conns, cl.ConnID)
		if len(conns) == 0 {
			delete(h.clients, cl.UserID)
		}
	}
	h.mu.Unlock()
	_ = cl.Conn.Close()
}

// StateFor returns the user's current snapshot.
func (h *Hub) StateFor(userID string) session.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if snapshot, ok := h.states[userID]; ok {
		return snapshot
	}
	return session.NewSnapshot()
}

package cache

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"coach_server/server/common/session"
)

// SessionEventsChannel carries session.Event payloads from the orchestrator
// services to the sessionman hub.
const SessionEventsChannel = "coach:session:events"

type SessionNotifier struct {
	client *redis.Client
}

func NewSessionNotifier(client *redis.Client) *SessionNotifier {
	return &SessionNotifier{client: client}
}

func (n *SessionNotifier) Publish(ctx context.Context, ev session.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, SessionEventsChannel, body).Err()
}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"slurpsocial/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel events are mirrored on.
const DefaultChannel = "slurp:events"

// Notifier mirrors bus events through Redis pub/sub so other client
// processes sharing the session see auth and post changes.
type Notifier struct {
	rdb     *redis.Client
	bus     *Bus
	channel string
	origin  string
}

// NewNotifier creates a Notifier. A nil client makes Start a no-op.
func NewNotifier(rdb *redis.Client, bus *Bus) *Notifier {
	return &Notifier{rdb: rdb, bus: bus, channel: DefaultChannel, origin: uuid.NewString()}
}

// Origin identifies this process on the channel.
func (n *Notifier) Origin() string {
	return n.origin
}

// Start forwards local events to Redis and republishes remote ones locally
// until ctx is done.
func (n *Notifier) Start(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}

	sub := n.rdb.Subscribe(ctx, n.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}
	local, unsubscribe := n.bus.Subscribe(64)

	go func() {
		defer func() { _ = sub.Close() }()
		defer unsubscribe()
		remote := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-local:
				if !ok {
					return
				}
				if ev.Remote {
					continue
				}
				n.forward(ctx, ev)
			case msg, ok := <-remote:
				if !ok {
					return
				}
				n.receive(ctx, msg.Payload)
			}
		}
	}()

	return nil
}

func (n *Notifier) forward(ctx context.Context, ev Event) {
	ev.Origin = n.origin
	payload, err := json.Marshal(ev)
	if err != nil {
		observability.LogAsyncOperationError(ctx, "events.forward", err, nil)
		return
	}
	if err := n.rdb.Publish(ctx, n.channel, payload).Err(); err != nil {
		observability.LogAsyncOperationError(ctx, "events.forward", err,
			map[string]interface{}{"kind": string(ev.Kind)})
	}
}

func (n *Notifier) receive(ctx context.Context, payload string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC in event subscriber: %v\n%s", r, debug.Stack())
		}
	}()

	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		observability.LogAsyncOperationError(ctx, "events.receive", err, nil)
		return
	}
	if ev.Origin == n.origin {
		return
	}
	ev.Remote = true
	n.bus.Publish(ctx, ev)
}

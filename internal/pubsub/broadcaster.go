// Package pubsub wraps watermill's in-process pub/sub with replay-last-value
// semantics: a new subscriber immediately receives the current value, then
// every subsequent publish.
package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type Broadcaster[T any] struct {
	topic  string
	pubSub *gochannel.GoChannel

	mu      sync.RWMutex
	last    T
	hasLast bool
}

func NewBroadcaster[T any](topic string) *Broadcaster[T] {
	return &Broadcaster[T]{
		topic: topic,
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NewStdLogger(false, false),
		),
	}
}

// Publish records v as the last value and broadcasts it to all current
// subscribers.
func (b *Broadcaster[T]) Publish(v T) error {
	b.mu.Lock()
	b.last = v
	b.hasLast = true
	b.mu.Unlock()

	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.pubSub.Publish(b.topic, message.NewMessage(uuid.NewString(), payload))
}

// Last returns the most recently published value, if any.
func (b *Broadcaster[T]) Last() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.hasLast
}

// Subscribe returns a channel that first replays the current value, then
// delivers every later publish until ctx is cancelled. A publish racing the
// subscription may be delivered twice; values are full snapshots so replay
// is harmless.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) (<-chan T, error) {
	messages, err := b.pubSub.Subscribe(ctx, b.topic)
	if err != nil {
		return nil, err
	}

	out := make(chan T, 1)
	if last, ok := b.Last(); ok {
		out <- last
	}

	go func() {
		defer close(out)
		for msg := range messages {
			var v T
			if err := json.Unmarshal(msg.Payload, &v); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (b *Broadcaster[T]) Close() error {
	return b.pubSub.Close()
}

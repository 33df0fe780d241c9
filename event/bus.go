// Package event carries shortcut collection changes to out-of-process
// consumers over a watermill pub/sub topic.
package event

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"shortcut-panel/logging"
	"shortcut-panel/shortcut"
)

// Topic is where every change is published.
const Topic = "shortcuts.changed"

// Source is a collection that reports its changes.
type Source interface {
	Subscribe(fn func(shortcut.Change)) func()
}

// Bus republishes collection changes as JSON messages.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.Mutex
	unsubs []func()
	closed bool
}

func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 100},
			watermill.NopLogger{},
		),
	}
}

// Attach forwards every change of src onto the topic until Close.
func (b *Bus) Attach(src Source) {
	unsub := src.Subscribe(func(ch shortcut.Change) {
		if err := b.Publish(ch); err != nil {
			logging.Warn().Err(err).Str("op", string(ch.Op)).Msg("failed to publish change")
		}
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		unsub()
		return
	}
	b.unsubs = append(b.unsubs, unsub)
}

// Publish sends one change. Changes published while nobody listens are
// dropped.
func (b *Bus) Publish(ch shortcut.Change) error {
	payload, err := json.Marshal(ch)
	if err != nil {
		return err
	}
	return b.pubsub.Publish(Topic, message.NewMessage(watermill.NewUUID(), payload))
}

// Subscribe streams changes until ctx is done; the channel is closed then.
func (b *Bus) Subscribe(ctx context.Context) (<-chan shortcut.Change, error) {
	msgs, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, err
	}

	out := make(chan shortcut.Change, 16)
	go func() {
		defer close(out)
		for msg := range msgs {
			var ch shortcut.Change
			if err := json.Unmarshal(msg.Payload, &ch); err != nil {
				logging.Warn().Err(err).Str("uuid", msg.UUID).Msg("dropping malformed change")
				msg.Ack()
				continue
			}
			select {
			case out <- ch:
			case <-ctx.Done():
			}
			msg.Ack()
		}
	}()
	return out, nil
}

// Close detaches every source and shuts the pub/sub down.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	unsubs := b.unsubs
	b.unsubs = nil
	b.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	return b.pubsub.Close()
}

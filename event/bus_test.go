package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortcut-panel/clock"
	"shortcut-panel/kv"
	"shortcut-panel/shortcut"
)

func receive(t *testing.T, ch <-chan shortcut.Change) shortcut.Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "stream closed")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return shortcut.Change{}
	}
}

func TestBusForwardsCollectionChanges(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	svc := shortcut.NewSnippetService(kv.NewMemoryStore(), shortcut.NewIDGenerator(clock.Real()))
	bus.Attach(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	sn, err := svc.Add("Log", "*", "log()", "")
	require.NoError(t, err)

	got := receive(t, stream)
	assert.Equal(t, shortcut.Change{Kind: shortcut.KindSnippet, Op: shortcut.OpAdded, ID: sn.ID, Title: "Log"}, got)
}

func TestBusSubscribeEndsWithContext(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-stream:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestBusCloseDetachesSources(t *testing.T) {
	bus := NewBus()
	svc := shortcut.NewCommandService(kv.NewMemoryStore(), shortcut.NewIDGenerator(nil), nil, nil)
	bus.Attach(svc)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	// publishing after close must not reach the closed pub/sub
	_, err := svc.Add("after", nil, "")
	require.NoError(t, err)
}

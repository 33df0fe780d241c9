// Package app wires configuration, storage and services into one graph
// shared by the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"shortcut-panel/clock"
	"shortcut-panel/completion"
	"shortcut-panel/config"
	"shortcut-panel/dispatch"
	"shortcut-panel/event"
	"shortcut-panel/kv"
	"shortcut-panel/logging"
	"shortcut-panel/session"
	"shortcut-panel/shortcut"
	"shortcut-panel/tree"
)

// Container holds the services of one running instance.
type Container struct {
	Config     config.Config
	Store      kv.Store
	Sessions   *session.Manager
	Dispatcher *dispatch.Dispatcher
	Commands   *shortcut.CommandService
	Snippets   *shortcut.SnippetService
	Completion *completion.Bridge
	Tree       *tree.View
	Events     *event.Bus

	closeStore func() error
}

// Option adjusts how the container is built.
type Option func(*buildOptions)

type buildOptions struct {
	store   kv.Store
	spawnFn session.SpawnFunc
	clock   clock.Clock
}

// WithStore uses store instead of the configured backend.
func WithStore(store kv.Store) Option {
	return func(o *buildOptions) { o.store = store }
}

// WithSpawnFn replaces how terminal sessions are started.
func WithSpawnFn(fn session.SpawnFunc) Option {
	return func(o *buildOptions) { o.spawnFn = fn }
}

// WithClock drives ids and dispatch pacing from c.
func WithClock(c clock.Clock) Option {
	return func(o *buildOptions) { o.clock = c }
}

// Build constructs the dependency graph.
func Build(cfg config.Config, opts ...Option) (*Container, error) {
	bo := buildOptions{clock: clock.Real()}
	for _, opt := range opts {
		opt(&bo)
	}

	closeStore := func() error { return nil }
	store := bo.store
	if store == nil {
		var err error
		store, closeStore, err = OpenStore(cfg.Store)
		if err != nil {
			return nil, err
		}
	}

	sessOpts := []session.Option{session.WithShell(cfg.Terminal.Shell, cfg.Terminal.Args...)}
	if bo.spawnFn != nil {
		sessOpts = append(sessOpts, session.WithSpawnFn(bo.spawnFn))
	}
	sessions := session.NewManager(sessOpts...)

	dispatcher := dispatch.New(
		dispatch.WithClock(bo.clock),
		dispatch.WithDelays(cfg.Dispatcher.ShowDelay, cfg.Dispatcher.NextDelay),
	)
	ids := shortcut.NewIDGenerator(bo.clock)
	commands := shortcut.NewCommandService(store, ids, sessions, dispatcher)
	snippets := shortcut.NewSnippetService(store, ids)

	bus := event.NewBus()
	bus.Attach(commands)
	bus.Attach(snippets)

	logging.Debug().Str("backend", cfg.Store.Backend).Str("path", cfg.Store.Path).Msg("container built")
	return &Container{
		Config:     cfg,
		Store:      store,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Commands:   commands,
		Snippets:   snippets,
		Completion: completion.NewBridge(snippets),
		Tree:       tree.NewView(commands, snippets),
		Events:     bus,
		closeStore: closeStore,
	}, nil
}

// OpenStore opens the configured key-value backend.
func OpenStore(cfg config.StoreSettings) (kv.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.StoreFile, "":
		s, err := kv.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case config.StoreSQLite:
		s, err := kv.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreMemory:
		return kv.NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Watch reloads the collections whenever the backing file is edited by
// another process. It blocks until ctx is done and returns nil right away
// when the store cannot be watched or watching is disabled.
func (c *Container) Watch(ctx context.Context) error {
	fs, ok := c.Store.(*kv.FileStore)
	if !ok || !c.Config.Store.Watch {
		return nil
	}
	err := fs.Watch(ctx, c.reloadKeys)
	if errors.Is(err, kv.ErrWatchUnsupported) {
		return nil
	}
	return err
}

func (c *Container) reloadKeys(keys []string) {
	for _, key := range keys {
		switch key {
		case shortcut.CommandKey:
			logging.Info().Msg("command shortcuts changed on disk, reloading")
			c.Commands.Reload()
		case shortcut.SnippetKey:
			logging.Info().Msg("snippet shortcuts changed on disk, reloading")
			c.Snippets.Reload()
		}
	}
}

// Close releases sessions, the event bus and the store.
func (c *Container) Close() error {
	c.Completion.Close()
	c.Tree.Close()
	c.Sessions.Close()
	return errors.Join(c.Events.Close(), c.closeStore())
}

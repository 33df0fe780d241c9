package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortcut-panel/clock"
	"shortcut-panel/config"
	"shortcut-panel/editor"
	"shortcut-panel/kv"
	"shortcut-panel/session"
)

func testConfig(t *testing.T, backend string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Backend = backend
	cfg.Store.Path = filepath.Join(t.TempDir(), "shortcuts.json")
	return cfg
}

func TestSnippetScenario(t *testing.T) {
	c, err := Build(testConfig(t, config.StoreMemory), WithSpawnFn(session.MockSpawnFn))
	require.NoError(t, err)
	defer c.Close()

	sn, err := c.Snippets.Add("Console Log", ".ts,.js", "console.log();", "")
	require.NoError(t, err)

	items := c.Completion.Complete("app.ts", 0)
	require.Len(t, items, 1)
	assert.Equal(t, "Console Log", items[0].Label)
	assert.Equal(t, "Shortcut snippet", items[0].Documentation)
	assert.Empty(t, c.Completion.Complete("app.py", 0))

	buf := editor.NewBuffer(&editor.Document{FileName: "app.ts", Text: "", Selection: editor.Cursor(0)})
	require.NoError(t, c.Snippets.Execute(sn, buf))
	doc, _ := buf.Snapshot()
	assert.Equal(t, "console.log();", doc.Text)

	roots := c.Tree.Roots()
	require.Len(t, roots[1].Children, 1)
	assert.Equal(t, "File types: .ts,.js", roots[1].Children[0].Description)
}

func TestCommandRunsInSession(t *testing.T) {
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c, err := Build(testConfig(t, config.StoreMemory), WithSpawnFn(session.MockSpawnFn), WithClock(clk))
	require.NoError(t, err)
	defer c.Close()

	sc, err := c.Commands.Add("Build", []string{"make", "make test"}, "")
	require.NoError(t, err)
	run, err := c.Commands.Execute(sc)
	require.NoError(t, err)

	s, ok := c.Sessions.Focused()
	require.True(t, ok)
	assert.Equal(t, "Shortcut - Build", s.Name)
	assert.Equal(t, 1, run.Sent())

	clk.Advance(c.Config.Dispatcher.ShowDelay)
	<-run.Done()
	require.NoError(t, run.Err())
	assert.Eventually(t, func() bool {
		return string(s.ScrollbackSnapshot()) == "make\nmake test\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileBackendPersistsAcrossBuilds(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	c, err := Build(cfg, WithSpawnFn(session.MockSpawnFn))
	require.NoError(t, err)
	_, err = c.Commands.Add("Build", []string{"make"}, "")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	again, err := Build(cfg, WithSpawnFn(session.MockSpawnFn))
	require.NoError(t, err)
	defer again.Close()
	require.Len(t, again.Commands.List(), 1)
	assert.Equal(t, "Build", again.Commands.List()[0].Title)
}

func TestWatchReloadsExternalEdits(t *testing.T) {
	cfg := testConfig(t, config.StoreFile)
	c, err := Build(cfg, WithSpawnFn(session.MockSpawnFn))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	doc := `{"snippetShortcuts":[{"id":"ext","title":"External","fileTypes":"*","snippetCode":"x","description":""}]}`
	require.NoError(t, os.WriteFile(cfg.Store.Path, []byte(doc), 0o644))

	assert.Eventually(t, func() bool {
		_, ok := c.Snippets.Get("ext")
		return ok
	}, 3*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(c.Completion.Complete("a.go", 0)) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchSkipsMemoryStore(t *testing.T) {
	c, err := Build(testConfig(t, config.StoreMemory), WithStore(kv.NewMemoryStore()), WithSpawnFn(session.MockSpawnFn))
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Watch(context.Background()))
}

func TestOpenStoreRejectsUnknownBackend(t *testing.T) {
	_, _, err := OpenStore(config.StoreSettings{Backend: "redis"})
	assert.ErrorContains(t, err, "redis")

	s, closeFn, err := OpenStore(config.StoreSettings{Backend: config.StoreSQLite, Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Set("k", []byte(`[]`)))
	require.NoError(t, closeFn())
}

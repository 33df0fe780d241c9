package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"shortcut-panel/completion"
	"shortcut-panel/shortcut"
	"shortcut-panel/tree"
)

func TestCompletions(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	addSnippet(t, srv.URL, `{"title":"Log","fileTypes":".ts,.js","snippetCode":"console.log();"}`)
	addSnippet(t, srv.URL, `{"title":"Widget","fileTypes":".dart","snippetCode":"class W {}"}`)

	resp, err := http.Get(srv.URL + "/api/completions?file=web/main.js&pos=4")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var items []completion.Item
	json.NewDecoder(resp.Body).Decode(&items)
	if len(items) != 1 || items[0].Label != "Log" || items[0].Detail != "Shortcuts: Log" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestCompletionsBadParams(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	for _, q := range []string{"", "?file=a.ts&pos=x", "?file=a.ts&pos=-1"} {
		resp, err := http.Get(srv.URL + "/api/completions" + q)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestTree(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/commands", `{"title":"Build","command":["make","make install"]}`)
	resp.Body.Close()

	treeResp, err := http.Get(srv.URL + "/api/tree")
	if err != nil {
		t.Fatal(err)
	}
	defer treeResp.Body.Close()
	var roots []tree.Node
	json.NewDecoder(treeResp.Body).Decode(&roots)
	if len(roots) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(roots))
	}
	if roots[0].Label != tree.CommandCategoryLabel || len(roots[0].Children) != 1 {
		t.Fatalf("unexpected command category %+v", roots[0])
	}
	if got := roots[0].Children[0].Description; got != "make → make install" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestEventsStream(t *testing.T) {
	c := newTestApp(t)
	srv := newServerFor(c)
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "/api/events")
	if err != nil {
		t.Fatalf("WS dial: %v", err)
	}
	defer conn.Close()

	// The subscription is set up after the upgrade; retry until it is live.
	received := make(chan shortcut.Change, 1)
	go func() {
		var ch shortcut.Change
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if err := conn.ReadJSON(&ch); err == nil {
			received <- ch
		}
		close(received)
	}()

	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case ch, ok := <-received:
			if !ok {
				t.Fatal("no change received")
			}
			if ch.Kind != shortcut.KindCommand || ch.Op != shortcut.OpAdded {
				t.Fatalf("unexpected change %+v", ch)
			}
			return
		case <-tick.C:
			if _, err := c.Commands.Add("Build", []string{"make"}, ""); err != nil {
				t.Fatal(err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for change")
		}
	}
}

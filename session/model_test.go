package session

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

func newBareSession() *Session {
	return &Session{
		scrollback: newScrollbackBuf(),
		done:       make(chan struct{}),
	}
}

func TestClientOwnership(t *testing.T) {
	s := newBareSession()

	first := make(chan []byte, 1)
	kickFirst := s.SetClient(first)
	if !s.Connected || kickFirst == nil {
		t.Fatal("SetClient should mark the session connected")
	}

	second := make(chan []byte, 1)
	s.SetClient(second)
	select {
	case <-kickFirst:
	default:
		t.Fatal("attaching a second client should kick the first")
	}

	s.ClearClient(first)
	if !s.Connected {
		t.Fatal("a displaced client must not disconnect its successor")
	}
	s.ClearClient(second)
	if s.Connected {
		t.Fatal("the owning client should disconnect the session")
	}
}

func TestPublishFeedsScrollbackAndClient(t *testing.T) {
	s := newBareSession()
	out := make(chan []byte, 1)
	s.SetClient(out)

	s.publish([]byte("flutter pub get\n"))

	if got := string(s.ScrollbackSnapshot()); got != "flutter pub get\n" {
		t.Fatalf("scrollback: got %q", got)
	}
	select {
	case data := <-out:
		if string(data) != "flutter pub get\n" {
			t.Fatalf("client: got %q", data)
		}
	default:
		t.Fatal("attached client received nothing")
	}
}

func TestWriteAfterExit(t *testing.T) {
	s := newBareSession()
	s.markExited()
	s.markExited()

	if !s.Exited() {
		t.Fatal("expected Exited after markExited")
	}
	if err := s.SendLine("make"); !errors.Is(err, ErrExited) {
		t.Fatalf("SendLine after exit: got %v, want ErrExited", err)
	}
}

func TestShowNotifiesManager(t *testing.T) {
	s := newBareSession()
	s.ID = "abc"
	var shown string
	s.onShow = func(id string) { shown = id }

	s.Show()
	if shown != "abc" {
		t.Fatalf("expected onShow with abc, got %q", shown)
	}

	// A session without a manager hook is a no-op.
	newBareSession().Show()
}

func TestMarshalWhileOutputFlows(t *testing.T) {
	s := newBareSession()
	s.ID = "abc"
	s.Name = "Shortcut - Build"
	out := make(chan []byte, 1)
	s.SetClient(out)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				s.publish([]byte("x"))
			}
		}
	}()

	for i := 0; i < 100; i++ {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		var v struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Connected bool   `json:"connected"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if v.ID != "abc" || v.Name != "Shortcut - Build" || !v.Connected {
			t.Fatalf("unexpected encoding %s", data)
		}
	}
	close(stop)
	wg.Wait()
}

func TestAttachSplitsScrollbackFromLiveOutput(t *testing.T) {
	s := newBareSession()
	s.publish([]byte("flutter clean\n"))

	out := make(chan []byte, 4)
	snap, kick := s.Attach(out)
	if string(snap) != "flutter clean\n" {
		t.Fatalf("snapshot: got %q", snap)
	}
	select {
	case data := <-out:
		t.Fatalf("output before Attach was also queued: %q", data)
	default:
	}

	s.publish([]byte("flutter pub get\n"))
	if data := <-out; string(data) != "flutter pub get\n" {
		t.Fatalf("live output: got %q", data)
	}

	s.SetClient(make(chan []byte, 1))
	select {
	case <-kick:
	default:
		t.Fatal("attached client was not kicked by a newer one")
	}
}

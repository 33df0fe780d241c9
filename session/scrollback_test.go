package session

import (
	"strings"
	"sync"
	"testing"
)

func TestScrollbackBuffer(t *testing.T) {
	tests := []struct {
		name   string
		max    int
		writes []string
		want   string
	}{
		{"empty", 16, nil, ""},
		{"appends", 16, []string{"flutter ", "clean\n"}, "flutter clean\n"},
		{"keeps tail", 6, []string{"pub get\n"}, "b get\n"},
		{"trims across writes", 4, []string{"ab", "cdef"}, "cdef"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := &scrollbackBuf{max: tc.max}
			for _, w := range tc.writes {
				buf.Write([]byte(w))
			}
			if got := string(buf.Snapshot()); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestScrollbackEmptySnapshotIsNil(t *testing.T) {
	if snap := newScrollbackBuf().Snapshot(); snap != nil {
		t.Fatalf("expected nil, got %v", snap)
	}
}

func TestScrollbackSnapshotIsCopy(t *testing.T) {
	buf := newScrollbackBuf()
	buf.Write([]byte("make"))
	buf.Snapshot()[0] = 'X'
	if got := string(buf.Snapshot()); got != "make" {
		t.Fatalf("snapshot aliases the buffer: %q", got)
	}
}

func TestScrollbackConcurrentWriters(t *testing.T) {
	buf := newScrollbackBuf()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf.Write([]byte("ok\n"))
			buf.Snapshot()
		}()
	}
	wg.Wait()
	if n := strings.Count(string(buf.Snapshot()), "ok\n"); n != 50 {
		t.Fatalf("expected 50 lines, got %d", n)
	}
}

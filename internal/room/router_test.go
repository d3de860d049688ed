package room

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// recordingPersister collects Persist calls; an optional per-content delay
// simulates a slow store.
type recordingPersister struct {
	mu     sync.Mutex
	writes []string
	last   string
	delays map[string]time.Duration
	done   chan struct{}
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{done: make(chan struct{}, 64)}
}

func (p *recordingPersister) Persist(documentID, content string) {
	p.mu.Lock()
	delay := p.delays[content]
	p.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	p.mu.Lock()
	p.writes = append(p.writes, content)
	p.last = content
	p.mu.Unlock()
	p.done <- struct{}{}
}

func (p *recordingPersister) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("persister saw %d of %d expected writes", i, n)
		}
	}
}

func (p *recordingPersister) lastWrite() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func TestRouteChangeExcludesSender(t *testing.T) {
	reg := NewRegistry()
	p := newRecordingPersister()
	router := NewRouter(reg, p)

	sender, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.Join("doc1", sender, "S")
	reg.Join("doc1", b, "B")
	reg.Join("doc1", c, "C")

	router.RouteChange("doc1", "hello", "S", sender)
	p.waitFor(t, 1)

	if got := sender.received(); len(got) != 0 {
		t.Fatalf("sender must not see its own edit, got %d events", len(got))
	}
	for _, member := range []*fakeConn{b, c} {
		evts := member.received()
		if len(evts) != 1 {
			t.Fatalf("expected one event, got %d", len(evts))
		}
		if evts[0].Name != EventDocumentUpdate || evts[0].Content != "hello" || evts[0].DisplayName != "S" {
			t.Fatalf("unexpected event: %+v", evts[0])
		}
	}
}

func TestAnnouncementsReachWholeRoom(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, newRecordingPersister())

	a, b := &fakeConn{}, &fakeConn{}
	reg.Join("doc1", a, "A")
	reg.Join("doc1", b, "B")

	router.AnnounceJoin("doc1", "B")
	router.AnnounceLeave("doc1", "B")

	// both members, the subject included, see both announcements
	for _, member := range []*fakeConn{a, b} {
		evts := member.received()
		if len(evts) != 2 {
			t.Fatalf("expected 2 events, got %d", len(evts))
		}
		if evts[0].Name != EventUserJoined || evts[0].DisplayName != "B" {
			t.Fatalf("unexpected first event: %+v", evts[0])
		}
		if evts[1].Name != EventUserLeft || evts[1].DisplayName != "B" {
			t.Fatalf("unexpected second event: %+v", evts[1])
		}
	}
}

func TestMembersObserveSameOrder(t *testing.T) {
	reg := NewRegistry()
	p := newRecordingPersister()
	router := NewRouter(reg, p)

	s1, s2 := &fakeConn{}, &fakeConn{}
	b, c := &fakeConn{}, &fakeConn{}
	reg.Join("doc1", s1, "S1")
	reg.Join("doc1", s2, "S2")
	reg.Join("doc1", b, "B")
	reg.Join("doc1", c, "C")

	const rounds = 25
	var wg sync.WaitGroup
	for i, src := range []struct {
		conn *fakeConn
		name string
	}{{s1, "S1"}, {s2, "S2"}} {
		wg.Add(1)
		go func(conn *fakeConn, name string, offset int) {
			defer wg.Done()
			for n := 0; n < rounds; n++ {
				router.RouteChange("doc1", fmt.Sprintf("%s-%d", name, n), name, conn)
			}
		}(src.conn, src.name, i)
	}
	wg.Wait()
	p.waitFor(t, 2*rounds)

	bSeen, cSeen := b.received(), c.received()
	if len(bSeen) != 2*rounds || len(cSeen) != 2*rounds {
		t.Fatalf("expected %d events each, got %d and %d", 2*rounds, len(bSeen), len(cSeen))
	}
	for i := range bSeen {
		if bSeen[i].Content != cSeen[i].Content {
			t.Fatalf("order diverged at %d: %q vs %q", i, bSeen[i].Content, cSeen[i].Content)
		}
	}
}

func TestBroadcastDoesNotWaitOnPersistence(t *testing.T) {
	reg := NewRegistry()
	p := newRecordingPersister()
	p.delays = map[string]time.Duration{"slow": 500 * time.Millisecond}
	router := NewRouter(reg, p)

	sender, b := &fakeConn{}, &fakeConn{}
	reg.Join("doc1", sender, "S")
	reg.Join("doc1", b, "B")

	start := time.Now()
	router.RouteChange("doc1", "slow", "S", sender)
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("RouteChange blocked on the store for %v", elapsed)
	}
	if got := b.received(); len(got) != 1 {
		t.Fatalf("broadcast must land before the store write, got %d events", len(got))
	}
	p.waitFor(t, 1)
}

func TestLastLandedWriteWins(t *testing.T) {
	reg := NewRegistry()
	p := newRecordingPersister()
	// the earlier edit's write is slow, so it lands after the later one
	p.delays = map[string]time.Duration{"v1": 150 * time.Millisecond}
	router := NewRouter(reg, p)

	sender := &fakeConn{}
	reg.Join("doc1", sender, "S")

	router.RouteChange("doc1", "v1", "S", sender)
	router.RouteChange("doc1", "v2", "S", sender)
	p.waitFor(t, 2)

	// no ordering is promised between concurrent store writes; whichever
	// lands last is what the store keeps
	if got := p.lastWrite(); got != "v1" {
		t.Fatalf("expected the late-landing write to win, got %q", got)
	}
}

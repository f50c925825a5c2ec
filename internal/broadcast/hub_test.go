package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/civic-pulse/internal/domain"
	"github.com/spec-kit/civic-pulse/internal/events"
	"github.com/spec-kit/civic-pulse/internal/registry"
)

// snapshotOf builds a SnapshotFunc over a mutable issue list guarded by mu.
func snapshotOf(mu *sync.Mutex, issues *[]domain.Issue) SnapshotFunc {
	return func() events.Event {
		mu.Lock()
		defer mu.Unlock()
		cp := append([]domain.Issue(nil), *issues...)
		return events.Event{
			Type:      events.EventSnapshot,
			Timestamp: time.Now(),
			Payload:   events.SnapshotPayload{Issues: cp},
		}
	}
}

func startHub(t *testing.T, snapshot SnapshotFunc, bufSize int) *Hub {
	t.Helper()
	h := New(snapshot, bufSize, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.Run(ctx)
	return h
}

func recv(t *testing.T, sub Subscription) events.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return events.Event{}
}

func TestAttach_SnapshotArrivesFirst(t *testing.T) {
	var mu sync.Mutex
	issues := []domain.Issue{{ID: 1, Title: "existing"}}
	h := startHub(t, snapshotOf(&mu, &issues), 16)

	sub, ok := h.Attach()
	if !ok {
		t.Fatal("Attach failed")
	}
	h.Publish(events.Event{Type: events.EventIssueVoted, IssueID: 1})

	first := recv(t, sub)
	if first.Type != events.EventSnapshot {
		t.Fatalf("first event = %s, want snapshot", first.Type)
	}
	payload := first.Payload.(events.SnapshotPayload)
	if len(payload.Issues) != 1 || payload.Issues[0].ID != 1 {
		t.Fatalf("snapshot payload = %+v", payload)
	}

	second := recv(t, sub)
	if second.Type != events.EventIssueVoted {
		t.Fatalf("second event = %s, want issue_voted", second.Type)
	}
}

func TestDeltas_NeverReferenceUnseenIssues(t *testing.T) {
	var mu sync.Mutex
	var issues []domain.Issue
	h := startHub(t, snapshotOf(&mu, &issues), 64)

	// mimic the registry: every created issue is appended to state before
	// its delta is published
	create := func(id int64) {
		mu.Lock()
		issues = append(issues, domain.Issue{ID: id})
		mu.Unlock()
		h.Publish(events.Event{Type: events.EventIssueCreated, IssueID: id})
	}

	for id := int64(1); id <= 10; id++ {
		create(id)
	}
	sub, _ := h.Attach()
	for id := int64(11); id <= 20; id++ {
		create(id)
	}

	seen := map[int64]bool{}
	first := recv(t, sub)
	if first.Type != events.EventSnapshot {
		t.Fatalf("first event = %s, want snapshot", first.Type)
	}
	for _, issue := range first.Payload.(events.SnapshotPayload).Issues {
		seen[issue.ID] = true
	}

	deadline := time.After(2 * time.Second)
	for len(seen) < 20 {
		select {
		case ev := <-sub.Events:
			if ev.Type != events.EventIssueCreated {
				continue
			}
			if !seen[ev.IssueID] {
				// a delta may only introduce an issue the snapshot missed
				// because it was created after the snapshot was taken
				if ev.IssueID <= 10 {
					t.Fatalf("delta for issue %d not in snapshot", ev.IssueID)
				}
			}
			seen[ev.IssueID] = true
		case <-deadline:
			t.Fatalf("timed out; saw %d issues", len(seen))
		}
	}
}

func TestSlowSubscriberIsDisconnected(t *testing.T) {
	h := startHub(t, nil, 4)

	slow, _ := h.Attach()

	// overflow the slow subscriber's buffer without draining it
	for i := 0; i < 20; i++ {
		h.Publish(events.Event{Type: events.EventIssueUpdated, IssueID: int64(i)})
	}

	// the slow feed must be closed rather than stall the hub
	deadline := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, ok := <-slow.Events:
			open = ok
		case <-deadline:
			t.Fatal("slow subscriber was not disconnected")
		}
	}

	// the hub keeps serving fresh subscribers after the disconnect
	fresh, ok := h.Attach()
	if !ok {
		t.Fatal("Attach after backpressure disconnect failed")
	}
	h.Publish(events.Event{Type: events.EventNotification})
	if ev := recv(t, fresh); ev.Type != events.EventNotification {
		t.Fatalf("fresh subscriber received %s", ev.Type)
	}
}

// The registry publishes while holding its mutex and the attach snapshot
// re-enters the registry from the run loop. Publish must never wait on the
// run loop or sustained writes plus a concurrent attach wedge both sides.
func TestPublishUnderRegistryLockNeverDeadlocks(t *testing.T) {
	var h *Hub
	reg := registry.New(nil, func(ev events.Event) { h.Publish(ev) })
	h = startHub(t, func() events.Event {
		return events.Event{
			Type:    events.EventSnapshot,
			Payload: events.SnapshotPayload{Issues: reg.List()},
		}
	}, 1)

	const writers = 8
	const insertsPerWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < insertsPerWriter; i++ {
				if _, err := reg.Insert(domain.Issue{Title: "load", Category: domain.CategoryRoad, Severity: 5}); err != nil {
					t.Errorf("Insert: %v", err)
					return
				}
			}
		}()
	}

	churn := make(chan struct{})
	go func() {
		defer close(churn)
		for i := 0; i < 50; i++ {
			sub, ok := h.Attach()
			if !ok {
				return
			}
			h.Detach(sub.ID)
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("inserts stalled: registry publish and hub snapshot are waiting on each other")
	}
	<-churn

	if got := reg.Len(); got != writers*insertsPerWriter {
		t.Fatalf("registry len = %d, want %d", got, writers*insertsPerWriter)
	}
}

func TestSendTo_OnlyTargetReceives(t *testing.T) {
	h := startHub(t, nil, 16)
	a, _ := h.Attach()
	b, _ := h.Attach()

	h.SendTo(a.ID, events.Event{Type: events.EventActionPlan})

	ev := recv(t, a)
	if ev.Type != events.EventActionPlan {
		t.Fatalf("target received %s", ev.Type)
	}
	select {
	case ev := <-b.Events:
		t.Fatalf("non-target received %s", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDetach_Silent(t *testing.T) {
	h := startHub(t, nil, 16)
	sub, _ := h.Attach()
	h.Detach(sub.ID)

	if _, ok := <-sub.Events; ok {
		t.Fatal("expected closed channel after detach")
	}
	// publishing after detach must not panic or block
	h.Publish(events.Event{Type: events.EventNotification})
}

func TestShutdown_ClosesSubscribers(t *testing.T) {
	h := New(nil, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	sub, _ := h.Attach()
	cancel()

	select {
	case _, ok := <-sub.Events:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber channel not closed on shutdown")
	}

	if _, ok := h.Attach(); ok {
		t.Fatal("Attach after shutdown must fail")
	}
}

package simulation

import (
	"context"
	"sync"
	"testing"

	"github.com/spec-kit/civic-pulse/internal/analytics"
	"github.com/spec-kit/civic-pulse/internal/domain"
	"github.com/spec-kit/civic-pulse/internal/events"
	"github.com/spec-kit/civic-pulse/internal/registry"
)

type captureGateway struct {
	mu      sync.Mutex
	reg     *registry.Registry
	reports []domain.RawReport
}

func (g *captureGateway) SubmitReport(_ context.Context, _ string, report domain.RawReport) (domain.Issue, error) {
	g.mu.Lock()
	g.reports = append(g.reports, report)
	g.mu.Unlock()
	return g.reg.Insert(domain.Issue{
		Title:    report.Title,
		Category: report.Category,
		Location: report.Location,
		Ward:     report.Ward,
		Severity: 5,
		Votes:    1,
	})
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, ev events.Event) error {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}
func (d *captureDispatcher) SubscribeAll(events.EventHandler)               {}

func (d *captureDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, ev := range d.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func alwaysFire() Config {
	cfg := Defaults()
	cfg.EngagementChance = 1
	cfg.IncidentChance = 1
	cfg.SocialChance = 1
	cfg.ProgressChance = 1
	return cfg
}

func newDriver(t *testing.T) (*Driver, *registry.Registry, *captureGateway, *captureDispatcher) {
	t.Helper()
	reg := registry.New(nil, nil)
	gw := &captureGateway{reg: reg}
	disp := &captureDispatcher{}
	d := New(alwaysFire(), reg, gw, analytics.NewTracker(15), disp, nil)
	return d, reg, gw, disp
}

func TestEngagementTick_BumpsOpenIssue(t *testing.T) {
	d, reg, _, _ := newDriver(t)
	stored, _ := reg.Insert(domain.Issue{Title: "pothole", Category: domain.CategoryRoad, Severity: 5, Votes: 1})

	d.engagementTick(context.Background())

	got, _ := reg.Get(stored.ID)
	if got.Votes <= stored.Votes {
		t.Errorf("votes = %d, want > %d", got.Votes, stored.Votes)
	}
	if got.SocialMentions <= stored.SocialMentions {
		t.Errorf("social = %d, want > %d", got.SocialMentions, stored.SocialMentions)
	}
	if got.PriorityScore < stored.PriorityScore {
		t.Error("engagement tick must rescore")
	}
}

func TestEngagementTick_SkipsResolvedIssues(t *testing.T) {
	d, reg, _, _ := newDriver(t)
	stored, _ := reg.Insert(domain.Issue{Title: "done", Category: domain.CategoryRoad, Severity: 5})
	if _, err := reg.ApplyEnrichment(stored.ID, domain.Enrichment{Status: domain.PtrStatus(domain.StatusResolved)}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for i := 0; i < 20; i++ {
		d.engagementTick(context.Background())
	}

	got, _ := reg.Get(stored.ID)
	if got.Votes != stored.Votes {
		t.Errorf("resolved issue received engagement: votes %d -> %d", stored.Votes, got.Votes)
	}
}

func TestIncidentTick_GoesThroughGateway(t *testing.T) {
	d, reg, gw, disp := newDriver(t)

	d.incidentTick(context.Background())

	if len(gw.reports) != 1 {
		t.Fatalf("gateway received %d reports, want 1", len(gw.reports))
	}
	if reg.Len() != 1 {
		t.Fatalf("registry has %d issues, want 1", reg.Len())
	}
	if gw.reports[0].Title == "" || gw.reports[0].Location == "" {
		t.Errorf("synthesized report incomplete: %+v", gw.reports[0])
	}
	alerts := disp.byType(events.EventNotification)
	if len(alerts) != 1 {
		t.Fatalf("notifications = %d, want 1", len(alerts))
	}
	payload := alerts[0].Payload.(events.NotificationPayload)
	if payload.Title != "New Incident" {
		t.Errorf("notification title = %q", payload.Title)
	}
}

func TestSocialTick_RecordsSentimentAndPublishes(t *testing.T) {
	d, _, _, disp := newDriver(t)

	d.socialTick(context.Background())

	posts := disp.byType(events.EventSocialPost)
	if len(posts) != 1 {
		t.Fatalf("social posts = %d, want 1", len(posts))
	}
	payload := posts[0].Payload.(events.SocialPostPayload)
	if payload.Text == "" || payload.Sentiment == "" {
		t.Errorf("post incomplete: %+v", payload)
	}
}

func TestStatsTick_PublishesHeartbeat(t *testing.T) {
	d, reg, _, disp := newDriver(t)
	_, _ = reg.Insert(domain.Issue{Title: "x", Category: domain.CategoryRoad, Severity: 5})

	d.statsTick(context.Background())

	beats := disp.byType(events.EventStatsUpdate)
	if len(beats) != 1 {
		t.Fatalf("stats updates = %d, want 1", len(beats))
	}
	stats := beats[0].Payload.(analytics.CityStats)
	if stats.Active != 1 {
		t.Errorf("active = %d, want 1", stats.Active)
	}
}

func TestProgressTick_AdvancesWorkedIssue(t *testing.T) {
	d, reg, _, _ := newDriver(t)
	stored, _ := reg.Insert(domain.Issue{Title: "repair underway", Category: domain.CategoryRoad, Severity: 5, Status: domain.StatusInProgress, ProgressPercent: 10})

	d.progressTick(context.Background())

	got, _ := reg.Get(stored.ID)
	if got.ProgressPercent <= stored.ProgressPercent {
		t.Errorf("progress = %d, want > %d", got.ProgressPercent, stored.ProgressPercent)
	}
}

func TestProgressTick_IgnoresPendingAndResolved(t *testing.T) {
	d, reg, _, _ := newDriver(t)
	pending, _ := reg.Insert(domain.Issue{Title: "waiting", Category: domain.CategoryRoad, Severity: 5})
	resolved, _ := reg.Insert(domain.Issue{Title: "done", Category: domain.CategoryRoad, Severity: 5, Status: domain.StatusResolved, ProgressPercent: 100})

	for i := 0; i < 20; i++ {
		d.progressTick(context.Background())
	}

	got, _ := reg.Get(pending.ID)
	if got.ProgressPercent != 0 {
		t.Errorf("pending issue progressed to %d", got.ProgressPercent)
	}
	got, _ = reg.Get(resolved.ID)
	if got.Status != domain.StatusResolved || got.ProgressPercent != 100 {
		t.Errorf("resolved issue changed: %+v", got)
	}
}

func TestProgressTick_ResolvesAtFullProgress(t *testing.T) {
	d, reg, _, _ := newDriver(t)
	stored, _ := reg.Insert(domain.Issue{Title: "almost there", Category: domain.CategoryRoad, Severity: 5, Status: domain.StatusInProgress, ProgressPercent: 10})

	for i := 0; i < 100; i++ {
		d.progressTick(context.Background())
		got, _ := reg.Get(stored.ID)
		if got.Resolved() {
			if got.ProgressPercent != 100 {
				t.Fatalf("resolved at progress %d, want 100", got.ProgressPercent)
			}
			return
		}
	}
	t.Fatal("issue never resolved despite repeated progress ticks")
}

func TestTicks_RespectCancelledContext(t *testing.T) {
	d, reg, gw, disp := newDriver(t)
	_, _ = reg.Insert(domain.Issue{Title: "x", Category: domain.CategoryRoad, Severity: 5, Votes: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.engagementTick(ctx)
	d.incidentTick(ctx)
	d.socialTick(ctx)
	d.statsTick(ctx)
	d.progressTick(ctx)

	if len(gw.reports) != 0 || len(disp.events) != 0 {
		t.Fatal("cancelled context must suppress simulation effects")
	}
}

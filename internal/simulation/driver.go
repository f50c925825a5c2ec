package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/analytics"
	"github.com/spec-kit/civic-pulse/internal/domain"
	"github.com/spec-kit/civic-pulse/internal/events"
	"github.com/spec-kit/civic-pulse/internal/registry"
)

// Template vocabularies for synthetic traffic.
var (
	incidentTitles = []string{
		"Streetlight flickering", "Garbage pileup", "Water leakage",
		"Illegal parking", "Broken footpath", "Traffic signal dead",
		"Open drain danger",
	}
	incidentLocations = []string{
		"HSR Layout", "BTM Layout", "Electronic City", "Marathahalli",
		"Bellandur", "Malleshwaram", "Rajajinagar",
	}
	incidentCategories = []domain.Category{
		domain.CategoryRoad, domain.CategoryWater,
		domain.CategoryElectricity, domain.CategorySanitation,
	}
	socialTopics = []struct {
		text      string
		sentiment string
	}{
		{"Traffic is a nightmare in Whitefield today! #BangaloreTraffic", "neg"},
		{"Thank you BESCOM for fixing the light so fast! #GoodJob", "pos"},
		{"Garbage piling up in Koramangala again. @BBMP please help.", "neg"},
		{"Beautiful weather in the city today.", "neu"},
		{"Water supply cut for 2 days? Unacceptable. #BWSSB", "neg"},
		{"New metro line is super convenient. #NammaMetro", "pos"},
		{"Why is the road dug up again near Indiranagar?", "neg"},
	}
)

// SimVoterID marks simulated traffic in the vote ledger and logs.
const SimVoterID = "simulator"

// ReportGateway is the submission path the driver shares with real traffic.
// Synthetic incidents go through the same pipeline, never around it.
type ReportGateway interface {
	SubmitReport(ctx context.Context, voterID string, report domain.RawReport) (domain.Issue, error)
}

// Config tunes the driver's timers and per-tick probabilities.
type Config struct {
	EngagementInterval time.Duration
	IncidentInterval   time.Duration
	SocialInterval     time.Duration
	StatsInterval      time.Duration
	ProgressInterval   time.Duration
	EngagementChance   float64
	IncidentChance     float64
	SocialChance       float64
	ProgressChance     float64
}

// Defaults mirrors the live demo cadence.
func Defaults() Config {
	return Config{
		EngagementInterval: 2 * time.Second,
		IncidentInterval:   2 * time.Second,
		SocialInterval:     2 * time.Second,
		StatsInterval:      2 * time.Second,
		ProgressInterval:   2 * time.Second,
		EngagementChance:   0.40,
		IncidentChance:     0.10,
		SocialChance:       0.40,
		ProgressChance:     0.30,
	}
}

// Driver produces synthetic engagement, incidents and social chatter on
// independent timers. All registry effects flow through the same mutation
// APIs as real input.
type Driver struct {
	cfg        Config
	registry   *registry.Registry
	gateway    ReportGateway
	tracker    *analytics.Tracker
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand

	cron *cron.Cron
}

// New builds a driver. It does nothing until Start is called.
func New(cfg Config, reg *registry.Registry, gateway ReportGateway, tracker *analytics.Tracker, dispatcher events.Dispatcher, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		cfg:        cfg,
		registry:   reg,
		gateway:    gateway,
		tracker:    tracker,
		dispatcher: dispatcher,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start schedules the periodic effects and runs them until ctx is cancelled.
func (d *Driver) Start(ctx context.Context) error {
	d.cron = cron.New()
	jobs := []struct {
		every time.Duration
		run   func()
	}{
		{d.cfg.EngagementInterval, func() { d.engagementTick(ctx) }},
		{d.cfg.IncidentInterval, func() { d.incidentTick(ctx) }},
		{d.cfg.SocialInterval, func() { d.socialTick(ctx) }},
		{d.cfg.StatsInterval, func() { d.statsTick(ctx) }},
		{d.cfg.ProgressInterval, func() { d.progressTick(ctx) }},
	}
	for _, job := range jobs {
		if job.every <= 0 {
			continue
		}
		if _, err := d.cron.AddFunc("@every "+job.every.String(), job.run); err != nil {
			return fmt.Errorf("schedule simulation job: %w", err)
		}
	}
	d.cron.Start()
	d.logger.Info("simulation driver started")

	go func() {
		<-ctx.Done()
		stopCtx := d.cron.Stop()
		<-stopCtx.Done()
		d.logger.Info("simulation driver stopped")
	}()
	return nil
}

// engagementTick bumps votes and social mentions on one random open issue.
func (d *Driver) engagementTick(ctx context.Context) {
	if ctx.Err() != nil || !d.roll(d.cfg.EngagementChance) {
		return
	}
	open := openIssues(d.registry.List())
	if len(open) == 0 {
		return
	}
	target := open[d.intn(len(open))]
	votes := 1 + d.intn(12)
	social := 1 + d.intn(40)
	if _, err := d.registry.UpdateEngagement(target.ID, votes, social); err != nil {
		d.logger.Warn("engagement tick failed", zap.Int64("id", target.ID), zap.Error(err))
	}
}

// incidentTick synthesizes a new report and submits it through the gateway.
func (d *Driver) incidentTick(ctx context.Context) {
	if ctx.Err() != nil || !d.roll(d.cfg.IncidentChance) {
		return
	}
	title := incidentTitles[d.intn(len(incidentTitles))]
	loc := incidentLocations[d.intn(len(incidentLocations))]
	cat := incidentCategories[d.intn(len(incidentCategories))]

	report := domain.RawReport{
		Title:    fmt.Sprintf("%s near %s", title, loc),
		Category: cat,
		Location: loc,
		Ward:     loc,
		Hashtag:  fmt.Sprintf("#%s%s", strings.ReplaceAll(loc, " ", ""), cat),
	}
	issue, err := d.gateway.SubmitReport(ctx, SimVoterID, report)
	if err != nil {
		d.logger.Warn("incident tick rejected", zap.Error(err))
		return
	}
	d.publish(ctx, events.Event{
		Type:    events.EventNotification,
		IssueID: issue.ID,
		Payload: events.NotificationPayload{Title: "New Incident", Message: issue.Title},
	})
}

// progressTick advances work on one random issue under active repair and
// resolves it when the work completes.
func (d *Driver) progressTick(ctx context.Context) {
	if ctx.Err() != nil || !d.roll(d.cfg.ProgressChance) {
		return
	}
	working := workingIssues(d.registry.List())
	if len(working) == 0 {
		return
	}
	target := working[d.intn(len(working))]
	percent := target.ProgressPercent + 2 + d.intn(9)
	status := domain.Status("")
	if percent >= 100 {
		percent = 100
		status = domain.StatusResolved
	}
	if _, err := d.registry.SetProgress(target.ID, percent, status); err != nil {
		d.logger.Warn("progress tick failed", zap.Int64("id", target.ID), zap.Error(err))
	}
}

// socialTick emits one synthetic social post and records its sentiment.
func (d *Driver) socialTick(ctx context.Context) {
	if ctx.Err() != nil || !d.roll(d.cfg.SocialChance) {
		return
	}
	topic := socialTopics[d.intn(len(socialTopics))]
	if d.tracker != nil {
		d.tracker.RecordSentiment(topic.sentiment)
	}
	now := time.Now()
	d.publish(ctx, events.Event{
		Type: events.EventSocialPost,
		Payload: events.SocialPostPayload{
			ID:        now.UnixMilli(),
			User:      fmt.Sprintf("@user_%04d", d.intn(10000)),
			Text:      topic.text,
			Sentiment: topic.sentiment,
			Time:      now.Format("15:04:05"),
		},
	})
}

// statsTick broadcasts the analytics heartbeat.
func (d *Driver) statsTick(ctx context.Context) {
	if ctx.Err() != nil || d.tracker == nil {
		return
	}
	d.publish(ctx, events.Event{
		Type:    events.EventStatsUpdate,
		Payload: d.tracker.Snapshot(d.registry.List()),
	})
}

func (d *Driver) publish(ctx context.Context, ev events.Event) {
	if d.dispatcher == nil {
		return
	}
	_ = d.dispatcher.Publish(ctx, ev)
}

func (d *Driver) roll(chance float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Float64() < chance
}

func (d *Driver) intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(n)
}

func openIssues(issues []domain.Issue) []domain.Issue {
	out := issues[:0]
	for _, issue := range issues {
		if !issue.Resolved() {
			out = append(out, issue)
		}
	}
	return out
}

// workingIssues filters to issues a crew is actively on: assigned or beyond,
// not yet resolved.
func workingIssues(issues []domain.Issue) []domain.Issue {
	out := issues[:0]
	for _, issue := range issues {
		switch issue.Status {
		case domain.StatusAssigned, domain.StatusInProgress, domain.StatusEscalated, domain.StatusCritical:
			out = append(out, issue)
		}
	}
	return out
}

package analytics

import (
	"math/rand"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

// SentimentCounts aggregates the simulated social feed mood.
type SentimentCounts struct {
	Positive int `json:"pos"`
	Neutral  int `json:"neu"`
	Negative int `json:"neg"`
}

// CityStats is the analytics snapshot broadcast with each heartbeat.
type CityStats struct {
	Time        string          `json:"time"`
	Active      int             `json:"active"`
	Resolved    int             `json:"resolved"`
	Risk        int             `json:"risk"`
	MeanScore   float64         `json:"meanScore"`
	MedianScore float64         `json:"medianScore"`
	P90Score    float64         `json:"p90Score"`
	Sentiment   SentimentCounts `json:"sentiment"`
}

// Tracker accumulates sentiment and derives score aggregates from registry
// snapshots. The risk index is a bounded random walk, purely cosmetic.
type Tracker struct {
	mu        sync.Mutex
	sentiment SentimentCounts
	risk      float64
	rng       *rand.Rand
}

// NewTracker seeds the tracker with the given starting risk index.
func NewTracker(initialRisk float64) *Tracker {
	return &Tracker{
		risk: clampRisk(initialRisk),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		sentiment: SentimentCounts{
			Positive: 30,
			Neutral:  50,
			Negative: 20,
		},
	}
}

// RecordSentiment counts one social post by mood ("pos", "neu", "neg").
func (t *Tracker) RecordSentiment(mood string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch mood {
	case "pos":
		t.sentiment.Positive++
	case "neg":
		t.sentiment.Negative++
	default:
		t.sentiment.Neutral++
	}
}

// Snapshot derives the current stats from an issue list. Each call advances
// the risk walk by one step.
func (t *Tracker) Snapshot(issues []domain.Issue) CityStats {
	t.mu.Lock()
	t.risk = clampRisk(t.risk + (t.rng.Float64()-0.5)*5)
	risk := int(t.risk + 0.5)
	sentiment := t.sentiment
	t.mu.Unlock()

	resolved := 0
	scores := make([]float64, 0, len(issues))
	for _, issue := range issues {
		if issue.Resolved() {
			resolved++
		}
		scores = append(scores, float64(issue.PriorityScore))
	}

	out := CityStats{
		Time:      time.Now().Format("15:04:05"),
		Active:    len(issues) - resolved,
		Resolved:  resolved,
		Risk:      risk,
		Sentiment: sentiment,
	}
	if len(scores) > 0 {
		out.MeanScore, _ = stats.Mean(scores)
		out.MedianScore, _ = stats.Median(scores)
		out.P90Score, _ = stats.Percentile(scores, 90)
	}
	return out
}

func clampRisk(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

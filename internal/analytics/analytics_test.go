package analytics

import (
	"testing"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

func TestSnapshot_CountsAndAggregates(t *testing.T) {
	tr := NewTracker(15)
	issues := []domain.Issue{
		{PriorityScore: 80, Status: domain.StatusCritical},
		{PriorityScore: 40, Status: domain.StatusResolved},
		{PriorityScore: 60, Status: domain.StatusAssigned},
	}

	got := tr.Snapshot(issues)
	if got.Active != 2 || got.Resolved != 1 {
		t.Errorf("active/resolved = %d/%d, want 2/1", got.Active, got.Resolved)
	}
	if got.MeanScore != 60 {
		t.Errorf("mean = %v, want 60", got.MeanScore)
	}
	if got.MedianScore != 60 {
		t.Errorf("median = %v, want 60", got.MedianScore)
	}
}

func TestSnapshot_EmptyRegistry(t *testing.T) {
	tr := NewTracker(15)
	got := tr.Snapshot(nil)
	if got.Active != 0 || got.Resolved != 0 || got.MeanScore != 0 {
		t.Errorf("empty snapshot not zeroed: %+v", got)
	}
}

func TestRiskStaysBounded(t *testing.T) {
	tr := NewTracker(99)
	for i := 0; i < 1000; i++ {
		got := tr.Snapshot(nil)
		if got.Risk < 0 || got.Risk > 100 {
			t.Fatalf("risk %d out of [0,100]", got.Risk)
		}
	}
}

func TestRecordSentiment(t *testing.T) {
	tr := NewTracker(10)
	base := tr.Snapshot(nil).Sentiment

	tr.RecordSentiment("pos")
	tr.RecordSentiment("neg")
	tr.RecordSentiment("neg")
	tr.RecordSentiment("whatever")

	got := tr.Snapshot(nil).Sentiment
	if got.Positive != base.Positive+1 {
		t.Errorf("positive = %d, want %d", got.Positive, base.Positive+1)
	}
	if got.Negative != base.Negative+2 {
		t.Errorf("negative = %d, want %d", got.Negative, base.Negative+2)
	}
	if got.Neutral != base.Neutral+1 {
		t.Errorf("neutral = %d, want %d", got.Neutral, base.Neutral+1)
	}
}

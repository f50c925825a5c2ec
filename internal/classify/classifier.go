package classify

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

// Classifier turns a raw report into an enrichment patch. Implementations may
// be slow and may fail; they never touch the registry.
type Classifier interface {
	Classify(ctx context.Context, report domain.RawReport) (domain.Enrichment, error)
}

// Keyword tiers mirror the triage vocabulary. First matching tier wins.
var (
	criticalKeywords = []string{"fire", "blood", "accident", "collapse", "explosion", "dead"}
	highKeywords     = []string{"blocked", "flood", "spark", "wire", "sewage"}
	mediumKeywords   = []string{"pothole", "garbage", "light", "water"}
)

const (
	severityCritical = 9.5
	severityHigh     = 7.5
	severityMedium   = 5.5
	severityLow      = 3.0

	keywordConfidence = 0.85
	defaultConfidence = 0.40
)

// KeywordClassifier is the template "AI": keyword matching plus simulated
// external-call latency.
type KeywordClassifier struct {
	minLatency time.Duration
	maxLatency time.Duration
	logger     *zap.Logger
	rng        *rand.Rand
}

// NewKeywordClassifier builds the classifier. Latencies of zero disable the
// simulated delay.
func NewKeywordClassifier(minLatency, maxLatency time.Duration, logger *zap.Logger) *KeywordClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLatency < minLatency {
		maxLatency = minLatency
	}
	return &KeywordClassifier{
		minLatency: minLatency,
		maxLatency: maxLatency,
		logger:     logger,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Classify rates severity from the report text, routes it to an authority and
// derives effort estimates.
func (k *KeywordClassifier) Classify(ctx context.Context, report domain.RawReport) (domain.Enrichment, error) {
	if err := k.simulateLatency(ctx); err != nil {
		return domain.Enrichment{}, err
	}

	text := strings.ToLower(report.Title + " " + report.Description + " " + string(report.Category))
	severity, priority := rateSeverity(text)
	category := resolveCategory(text, report.Category)
	authority := routeAuthority(category)
	status := domain.StatusAssigned
	if severity > domain.EscalationSeverityThreshold {
		status = domain.StatusEscalated
	}
	insight := fmt.Sprintf("Classified as %s based on keyword analysis. Assigned to %s.", priority, authority)
	confidence := defaultConfidence
	if severity > severityLow {
		confidence = keywordConfidence
	}

	k.logger.Debug("report classified",
		zap.String("title", report.Title),
		zap.Float64("severity", severity),
		zap.String("priority", priority))

	return domain.Enrichment{
		Category:        domain.PtrCategory(category),
		Severity:        domain.PtrFloat(severity),
		Authority:       domain.PtrString(authority),
		Status:          domain.PtrStatus(status),
		AIInsight:       domain.PtrString(insight),
		Confidence:      domain.PtrFloat(confidence),
		Manpower:        domain.PtrInt(int(math.Ceil(severity / 2))),
		EstimatedHours:  domain.PtrInt(int(math.Ceil(severity * 3))),
		ProgressPercent: domain.PtrInt(5),
	}, nil
}

func (k *KeywordClassifier) simulateLatency(ctx context.Context) error {
	if k.maxLatency <= 0 {
		return nil
	}
	delay := k.minLatency
	if span := k.maxLatency - k.minLatency; span > 0 {
		delay += time.Duration(k.rng.Int63n(int64(span)))
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func rateSeverity(text string) (float64, string) {
	switch {
	case containsAny(text, criticalKeywords):
		return severityCritical, "Critical"
	case containsAny(text, highKeywords):
		return severityHigh, "High"
	case containsAny(text, mediumKeywords):
		return severityMedium, "Medium"
	default:
		return severityLow, "Low"
	}
}

func resolveCategory(text string, hint domain.Category) domain.Category {
	switch {
	case strings.Contains(text, "fire"):
		return domain.CategoryFire
	case strings.Contains(text, "leak") || strings.Contains(text, "water"):
		return domain.CategoryWater
	}
	if hint == "" || hint == domain.CategoryAnalyzing {
		return domain.CategoryUncategorized
	}
	return hint
}

func routeAuthority(category domain.Category) string {
	if category == domain.CategoryFire {
		return "Fire Dept"
	}
	if category == domain.CategoryUncategorized || category == domain.CategoryOther {
		return "BBMP"
	}
	return "BBMP " + string(category)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Fallback is the conservative enrichment applied when classification times
// out or fails: the record stays fully populated and reviewable.
func Fallback(report domain.RawReport) domain.Enrichment {
	category := report.Category
	if category == "" || category == domain.CategoryAnalyzing {
		category = domain.CategoryUncategorized
	}
	return domain.Enrichment{
		Category:       domain.PtrCategory(category),
		Severity:       domain.PtrFloat(5.0),
		Status:         domain.PtrStatus(domain.StatusNeedsReview),
		AIInsight:      domain.PtrString("Automatic classification unavailable. Queued for manual review."),
		Confidence:     domain.PtrFloat(0.0),
		Authority:      domain.PtrString(routeAuthority(category)),
		Manpower:       domain.PtrInt(3),
		EstimatedHours: domain.PtrInt(24),
	}
}

// ClassifyWithFallback runs the classifier under a bounded timeout and
// absorbs every failure into the conservative fallback. It never errors.
func ClassifyWithFallback(ctx context.Context, c Classifier, timeout time.Duration, report domain.RawReport, logger *zap.Logger) domain.Enrichment {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	enrichment, err := c.Classify(cctx, report)
	if err != nil {
		logger.Warn("classification failed, applying fallback",
			zap.String("title", report.Title),
			zap.Error(err))
		return Fallback(report)
	}
	return enrichment
}

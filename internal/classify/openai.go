package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

const classifySystemPrompt = `You are a civic issue triage assistant. Given a citizen report, respond with a single JSON object: {"category": one of Road|Water|Electricity|Sanitation|Infrastructure|Fire|Other, "severity": number 0-10, "authority": owning department, "insight": one-sentence assessment, "confidence": number 0-1}.`

// OpenAIClassifier is the model-backed alternative to the keyword template.
// It satisfies the same Classifier contract, so the registry and broadcast
// paths are unaffected by which implementation is plugged in.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClassifier builds a classifier backed by the chat completion API.
func NewOpenAIClassifier(apiKey, model string, logger *zap.Logger) *OpenAIClassifier {
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClassifier{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

type modelVerdict struct {
	Category   string  `json:"category"`
	Severity   float64 `json:"severity"`
	Authority  string  `json:"authority"`
	Insight    string  `json:"insight"`
	Confidence float64 `json:"confidence"`
}

// Classify sends the report to the model and maps the verdict onto an
// enrichment patch. Errors propagate; the caller's fallback wrapper absorbs
// them.
func (o *OpenAIClassifier) Classify(ctx context.Context, report domain.RawReport) (domain.Enrichment, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Title: %s\nDescription: %s\nCategory hint: %s\nLocation: %s", report.Title, report.Description, report.Category, report.Location)},
		},
		MaxTokens: 200,
	})
	if err != nil {
		return domain.Enrichment{}, err
	}
	if len(resp.Choices) == 0 {
		return domain.Enrichment{}, fmt.Errorf("empty model response")
	}

	var verdict modelVerdict
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return domain.Enrichment{}, fmt.Errorf("malformed model response: %w", err)
	}
	if verdict.Severity < 0 || verdict.Severity > 10 {
		return domain.Enrichment{}, fmt.Errorf("model severity %v out of range", verdict.Severity)
	}

	category := domain.Category(verdict.Category)
	if category == "" {
		category = domain.CategoryUncategorized
	}
	authority := verdict.Authority
	if authority == "" {
		authority = routeAuthority(category)
	}
	status := domain.StatusAssigned
	if verdict.Severity > domain.EscalationSeverityThreshold {
		status = domain.StatusEscalated
	}

	o.logger.Debug("model verdict",
		zap.String("category", verdict.Category),
		zap.Float64("severity", verdict.Severity))

	return domain.Enrichment{
		Category:        domain.PtrCategory(category),
		Severity:        domain.PtrFloat(verdict.Severity),
		Authority:       domain.PtrString(authority),
		Status:          domain.PtrStatus(status),
		AIInsight:       domain.PtrString(verdict.Insight),
		Confidence:      domain.PtrFloat(clamp01(verdict.Confidence)),
		Manpower:        domain.PtrInt(int(math.Ceil(verdict.Severity / 2))),
		EstimatedHours:  domain.PtrInt(int(math.Ceil(verdict.Severity * 3))),
		ProgressPercent: domain.PtrInt(5),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

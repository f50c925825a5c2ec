package dto

import (
	"time"

	"github.com/spec-kit/civic-pulse/internal/domain"
)

// SessionResponse carries a freshly issued voter session.
type SessionResponse struct {
	VoterID   string    `json:"voterId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SubmitReportRequest is the citizen report submission payload.
type SubmitReportRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Location    string  `json:"location"`
	Ward        string  `json:"ward"`
	Hashtag     string  `json:"hashtag"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// RawReport converts the request into the domain submission type.
func (r SubmitReportRequest) RawReport() domain.RawReport {
	return domain.RawReport{
		Title:       r.Title,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Location:    r.Location,
		Ward:        r.Ward,
		Hashtag:     r.Hashtag,
		Lat:         r.Lat,
		Lng:         r.Lng,
	}
}

// AttachMediaRequest associates evidence with an issue.
type AttachMediaRequest struct {
	SourceType string   `json:"sourceType"`
	URI        string   `json:"uri"`
	Tags       []string `json:"tags"`
}

// AnalyzeDraftRequest asks for a pre-submission triage preview.
type AnalyzeDraftRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
}

// DraftForm converts the request into the domain draft type.
func (r AnalyzeDraftRequest) DraftForm() domain.DraftForm {
	return domain.DraftForm{
		Title:       r.Title,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Location:    r.Location,
	}
}

package api

import (
	"time"

	"github.com/waap-dev/waap/internal/domain"
	"github.com/waap-dev/waap/internal/render"
)

// Request DTOs

type CreatePostingRequest struct {
	Title            string              `json:"title" validate:"required"`
	DepartmentId     int64               `json:"department_id" validate:"required"`
	Location         string              `json:"location" validate:"required"`
	ClassificationId int64               `json:"classification_id" validate:"required"`
	Level            int                 `json:"level"`
	AlternationType  string              `json:"alternation_type" validate:"required"`
	LanguageProfile  string              `json:"language_profile" validate:"required"`
	Criteria         map[string][]string `json:"criteria,omitempty"`
	Description      string              `json:"description,omitempty"`
	ContactEmail     *string             `json:"contact_email,omitempty"`
	ExpirationDate   *time.Time          `json:"expiration_date,omitempty"`
}

type ModerateRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Response DTOs

// PostingResponse is the public projection of a posting. Moderation metadata
// is filled only for the owner and administrators.
type PostingResponse struct {
	Id               int64               `json:"id"`
	Title            string              `json:"title"`
	DepartmentId     int64               `json:"department_id"`
	Location         string              `json:"location"`
	ClassificationId int64               `json:"classification_id"`
	Level            int                 `json:"level"`
	AlternationType  string              `json:"alternation_type"`
	LanguageProfile  string              `json:"language_profile"`
	Criteria         map[string][]string `json:"criteria"`
	Description      string              `json:"description"`
	DescriptionHTML  string              `json:"description_html"`
	ContactPossible  bool                `json:"contact_possible"`
	PostingDate      time.Time           `json:"posting_date"`
	ExpirationDate   time.Time           `json:"expiration_date"`
	Anonymized       bool                `json:"anonymized"`

	ModerationStatus string     `json:"moderation_status,omitempty"`
	ModerationNotes  string     `json:"moderation_notes,omitempty"`
	ModeratedAt      *time.Time `json:"moderated_at,omitempty"`
}

func NewPostingResponse(p domain.JobPosting, includeModeration bool) PostingResponse {
	resp := PostingResponse{
		Id:               p.Id,
		Title:            p.Title,
		DepartmentId:     p.DepartmentId,
		Location:         p.Location,
		ClassificationId: p.ClassificationId,
		Level:            p.Level,
		AlternationType:  string(p.AlternationType),
		LanguageProfile:  string(p.LanguageProfile),
		Criteria:         p.Criteria,
		Description:      p.Description,
		DescriptionHTML:  render.DescriptionHTML(p.Description),
		ContactPossible:  p.ContactEmail != nil,
		PostingDate:      p.PostingDate,
		ExpirationDate:   p.ExpirationDate,
		Anonymized:       p.Anonymized,
	}
	if includeModeration {
		resp.ModerationStatus = string(p.ModerationStatus)
		resp.ModerationNotes = p.ModerationNotes
		resp.ModeratedAt = p.ModeratedAt
	}
	return resp
}

type PostingListResponse struct {
	Postings []PostingResponse `json:"postings"`
}

func NewPostingListResponse(postings []domain.JobPosting, includeModeration bool) PostingListResponse {
	items := make([]PostingResponse, len(postings))
	for i, p := range postings {
		items[i] = NewPostingResponse(p, includeModeration)
	}
	return PostingListResponse{Postings: items}
}

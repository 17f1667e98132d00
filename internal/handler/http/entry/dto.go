// Package entry provides HTTP handlers for contest entries: submission,
// owner listing, single lookup, deletion and attachment download.
package entry

import (
	"time"

	"contest-api/internal/domain/entity"
)

// DTO represents the JSON structure for entry data transfer.
// Inline file bytes are never included; PitchDeckFile.URL points at the
// download endpoint instead.
type DTO struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Category        string    `json:"category"`
	EntryType       string    `json:"entryType"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	TextContent     string    `json:"textContent,omitempty"`
	PitchDeckURL    string    `json:"pitchDeckUrl,omitempty"`
	PitchDeckFile   *FileDTO  `json:"pitchDeckFile,omitempty"`
	VideoURL        string    `json:"videoUrl,omitempty"`
	EntryFee        int64     `json:"entryFee"`
	Surcharge       int64     `json:"surcharge"`
	TotalAmount     int64     `json:"totalAmount"`
	PaymentIntentID string    `json:"paymentIntentId"`
	PaymentStatus   string    `json:"paymentStatus"`
	ReviewStatus    string    `json:"reviewStatus"`
	SubmittedAt     time.Time `json:"submittedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FileDTO describes an uploaded pitch deck.
type FileDTO struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

// ListResponse is the body of GET /entries/{userId}.
type ListResponse struct {
	Entries []DTO `json:"entries"`
}

// CreatedResponse is the body of a successful POST /entries.
type CreatedResponse struct {
	EntryID string `json:"entryId"`
}

// DeletedResponse is the body of a successful DELETE /entries/{id}.
type DeletedResponse struct {
	Message string `json:"message"`
	EntryID string `json:"entryId"`
}

// ToDTO converts an entry to its JSON form.
func ToDTO(e *entity.Entry) DTO {
	out := DTO{
		ID:              e.ID,
		UserID:          e.UserID,
		Category:        string(e.Category),
		EntryType:       string(e.Type()),
		Title:           e.Title,
		Description:     e.Description,
		EntryFee:        e.EntryFee,
		Surcharge:       e.Surcharge,
		TotalAmount:     e.TotalAmount,
		PaymentIntentID: e.PaymentIntentID,
		PaymentStatus:   string(e.PaymentStatus),
		ReviewStatus:    string(e.ReviewStatus),
		SubmittedAt:     e.SubmittedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}

	switch c := e.Content.(type) {
	case *entity.TextContent:
		out.TextContent = c.Body
	case *entity.DeckContent:
		out.PitchDeckURL = c.URL
		if c.File != nil {
			out.PitchDeckFile = &FileDTO{
				Filename: c.File.Filename,
				MimeType: c.File.MimeType,
				Size:     c.File.Size,
				URL:      c.File.URL,
			}
		}
	case *entity.VideoContent:
		out.VideoURL = c.URL
	}
	return out
}

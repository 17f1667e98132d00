package entity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// Field limits for entries.
const (
	MinTitleLength       = 5
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
	MinTextWords         = 100
	MaxTextWords         = 2000
)

// videoURLPattern matches links on the video hosts the contest accepts.
var videoURLPattern = regexp.MustCompile(
	`(?i)^https?://(www\.|m\.)?(youtube\.com/(watch\?v=|shorts/|embed/)|youtu\.be/|vimeo\.com/|loom\.com/share/)\S+$`,
)

// ValidateURL validates the format of a user supplied link.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
// Returns a ValidationError on the given field if the URL is invalid or empty.
func ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}

	// DoS protection: enforce maximum URL length
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: field, Message: "must be a valid URL"}
	}

	// HTTPまたはHTTPSスキームのみ許可
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: field, Message: "must use http or https scheme"}
	}
	if parsedURL.Host == "" {
		return &ValidationError{Field: field, Message: "must have a valid host"}
	}
	return nil
}

// IsVideoURL reports whether rawURL points at a recognised video host.
func IsVideoURL(rawURL string) bool {
	return videoURLPattern.MatchString(strings.TrimSpace(rawURL))
}

// WordCount counts whitespace-delimited words, ignoring empty tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// ApplyDefaults fills the statuses a new entry starts with.
func (e *Entry) ApplyDefaults() {
	if e.PaymentStatus == "" {
		e.PaymentStatus = PaymentStatusPending
	}
	if e.ReviewStatus == "" {
		e.ReviewStatus = ReviewStatusSubmitted
	}
}

// Validate checks every field of the entry and returns all failures at once.
// Content rules are decided by a single switch over the content variant, so an
// entry can never carry fields that belong to a different type.
func (e *Entry) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(e.UserID) == "" {
		errs.Add("userId", "is required")
	}
	if e.Category == "" {
		errs.Add("category", "is required")
	}
	if strings.TrimSpace(e.PaymentIntentID) == "" {
		errs.Add("paymentIntentId", "is required")
	}

	titleLen := utf8.RuneCountInString(strings.TrimSpace(e.Title))
	switch {
	case titleLen == 0:
		errs.Add("title", "is required")
	case titleLen < MinTitleLength:
		errs.Add("title", fmt.Sprintf("must be at least %d characters", MinTitleLength))
	case titleLen > MaxTitleLength:
		errs.Add("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		errs.Add("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}

	e.validateContent(&errs)

	if e.EntryFee <= 0 {
		errs.Add("entryFee", "must be positive")
	}
	if e.Surcharge < 0 {
		errs.Add("surcharge", "cannot be negative")
	}
	if e.TotalAmount != e.EntryFee+e.Surcharge {
		errs.Add("totalAmount", "must equal entryFee + surcharge")
	}
	if !e.PaymentStatus.IsValid() {
		errs.Add("paymentStatus", "invalid value")
	}
	if !e.ReviewStatus.IsValid() {
		errs.Add("reviewStatus", "invalid value")
	}

	return errs.OrNil()
}

func (e *Entry) validateContent(errs *ValidationErrors) {
	switch c := e.Content.(type) {
	case *TextContent:
		words := WordCount(c.Body)
		if words < MinTextWords || words > MaxTextWords {
			errs.Add("textContent", fmt.Sprintf("must be between %d and %d words (got %d)",
				MinTextWords, MaxTextWords, words))
		}
	case *DeckContent:
		if c.File == nil && c.URL == "" {
			errs.Add("pitchDeck", "file or URL is required")
			return
		}
		if c.File != nil {
			if !c.File.HasContent() {
				errs.Add("file", "stored content is required")
			}
			if c.File.URL == "" {
				errs.Add("file", "retrieval URL is required")
			}
		}
		if c.URL != "" {
			if err := ValidateURL("pitchDeckUrl", c.URL); err != nil {
				*errs = append(*errs, err.(*ValidationError))
			}
		}
	case *VideoContent:
		switch {
		case c.URL == "":
			errs.Add("videoUrl", "is required")
		case !IsVideoURL(c.URL):
			errs.Add("videoUrl", "must be a YouTube, Vimeo or Loom link")
		}
	case nil:
		errs.Add("entryType", "is required")
	default:
		errs.Add("entryType", "invalid value")
	}
}

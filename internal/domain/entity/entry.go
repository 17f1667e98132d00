// Package entity defines the core domain entities and validation logic for the application.
// It contains the contest Entry, its type-specific content variants, the fee table,
// and the domain errors shared by every layer.
package entity

import "time"

// Category identifies the contest track an entry competes in.
type Category string

// Categories offered by the contest.
const (
	CategoryPitchCompetition  Category = "pitch-competition"
	CategoryBusinessPlan      Category = "business-plan"
	CategorySocialImpact      Category = "social-impact"
	CategoryStudentInnovation Category = "student-innovation"
)

// EntryType identifies how the submission content is delivered.
type EntryType string

// Entry types.
const (
	EntryTypeText      EntryType = "text"
	EntryTypePitchDeck EntryType = "pitch-deck"
	EntryTypeVideo     EntryType = "video"
)

// IsValid reports whether t is one of the known entry types.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeText, EntryTypePitchDeck, EntryTypeVideo:
		return true
	}
	return false
}

// PaymentStatus tracks the state of the payment backing an entry.
type PaymentStatus string

// Payment statuses.
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid reports whether s is one of the known payment statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether a payment status may move from s to next.
// Failed is terminal. Succeeded may only fall to failed, which happens when
// the gateway reports a late failure for an intent that was already verified.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusSucceeded || next == PaymentStatusFailed
	case PaymentStatusSucceeded:
		return next == PaymentStatusFailed
	}
	return false
}

// ReviewStatus tracks where an entry is in judging.
type ReviewStatus string

// Review statuses.
const (
	ReviewStatusSubmitted   ReviewStatus = "submitted"
	ReviewStatusUnderReview ReviewStatus = "under-review"
	ReviewStatusFinalist    ReviewStatus = "finalist"
	ReviewStatusWinner      ReviewStatus = "winner"
	ReviewStatusRejected    ReviewStatus = "rejected"
)

// IsValid reports whether s is one of the known review statuses.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusSubmitted, ReviewStatusUnderReview, ReviewStatusFinalist,
		ReviewStatusWinner, ReviewStatusRejected:
		return true
	}
	return false
}

// Entry represents a single contest submission.
// Content holds exactly one variant, and the variant decides the entry type.
type Entry struct {
	ID              string
	UserID          string
	Category        Category
	Title           string
	Description     string
	Content         Content
	EntryFee        int64
	Surcharge       int64
	TotalAmount     int64
	PaymentIntentID string
	PaymentStatus   PaymentStatus
	ReviewStatus    ReviewStatus
	SubmittedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Type returns the entry type implied by the content variant.
func (e *Entry) Type() EntryType {
	if e.Content == nil {
		return ""
	}
	return e.Content.Type()
}

// ApplyFees copies a fee breakdown onto the entry.
func (e *Entry) ApplyFees(f Fees) {
	e.EntryFee = f.EntryFee
	e.Surcharge = f.Surcharge
	e.TotalAmount = f.Total
}

// File returns the stored file reference of a pitch-deck entry, or nil.
func (e *Entry) File() *FileRef {
	if deck, ok := e.Content.(*DeckContent); ok {
		return deck.File
	}
	return nil
}

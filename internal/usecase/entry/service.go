package entry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"contest-api/internal/domain/entity"
	"contest-api/internal/observability/logging"
	"contest-api/internal/observability/metrics"
	"contest-api/internal/repository"
)

// Service provides entry use cases.
type Service struct {
	Repo     repository.EntryRepository
	Payments IntentRetriever
	Files    FileStore
	// Fees defaults to entity.DefaultFeeTable when nil.
	Fees entity.FeeTable
	// MaxFileSize caps pitch deck uploads in bytes. Zero disables the check.
	MaxFileSize int64
	// Notifier is optional.
	Notifier SubmissionNotifier
	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *Service) feeTable() entity.FeeTable {
	if s.Fees == nil {
		return entity.DefaultFeeTable
	}
	return s.Fees
}

func (s *Service) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// List returns the user's entries, newest first, without inline file bytes.
func (s *Service) List(ctx context.Context, userID string) ([]*entity.Entry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, &entity.ValidationError{Field: "userId", Message: "is required"}
	}

	entries, err := s.Repo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]*entity.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.WithoutInlineData())
	}
	return out, nil
}

// Get returns a single entry without inline file bytes.
// Returns entity.ErrNotFound if the entry does not exist.
func (s *Service) Get(ctx context.Context, id string) (*entity.Entry, error) {
	e, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e.WithoutInlineData(), nil
}

// Delete removes an entry on behalf of its owner.
// Returns entity.ErrNotFound if there is no such entry and entity.ErrForbidden
// if userID does not own it. Stored file bytes outside the record are left in place.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &entity.ValidationError{Field: "userId", Message: "is required"}
	}

	e, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}
	if e.UserID != userID {
		return entity.ErrForbidden
	}
	if err := s.Repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	metrics.RecordEntryDeleted()
	logging.FromContext(ctx).Info("entry deleted",
		slog.String("entry_id", id),
		slog.String("user_id", userID))
	return nil
}

// File is a downloadable entry attachment. The caller closes Body.
type File struct {
	Filename string
	MimeType string
	Size     int64
	Body     io.ReadCloser
}

// OpenFile finds the entry paid for by intentID and opens its attachment.
// Returns entity.ErrNotFound when there is no entry or it carries no file.
func (s *Service) OpenFile(ctx context.Context, intentID string) (*File, error) {
	e, err := s.Repo.FindByPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("find entry: %w", err)
	}
	ref := e.File()
	if !ref.HasContent() {
		return nil, entity.ErrNotFound
	}

	body, err := s.Files.Open(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	size := ref.Size
	if ref.Inline() {
		size = int64(len(ref.Data))
	}
	return &File{
		Filename: ref.Filename,
		MimeType: ref.MimeType,
		Size:     size,
		Body:     body,
	}, nil
}

// UpdateReviewStatus sets the judging status of an entry and returns it.
func (s *Service) UpdateReviewStatus(ctx context.Context, id, status string) (*entity.Entry, error) {
	rs := entity.ReviewStatus(strings.TrimSpace(status))
	if !rs.IsValid() {
		return nil, &entity.ValidationError{
			Field:   "status",
			Message: "must be one of submitted, under-review, finalist, winner, rejected",
		}
	}
	if err := s.Repo.UpdateReviewStatus(ctx, id, rs); err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}

	logging.FromContext(ctx).Info("review status updated",
		slog.String("entry_id", id),
		slog.String("status", string(rs)))
	return s.Get(ctx, id)
}

package repository

import (
	"context"

	"contest-api/internal/domain/entity"
)

// EntryRepository persists contest entries.
// It performs no authorization; callers check ownership before deleting.
type EntryRepository interface {
	// Insert stores a new entry, assigning its ID and timestamps.
	// It returns entity.ErrDuplicateEntry when an entry already references the
	// same payment intent.
	Insert(ctx context.Context, entry *entity.Entry) error
	// FindByOwner returns the user's entries, most recent first.
	FindByOwner(ctx context.Context, userID string) ([]*entity.Entry, error)
	// FindByID returns entity.ErrNotFound when no entry has the id.
	FindByID(ctx context.Context, id string) (*entity.Entry, error)
	// FindByPaymentIntent returns entity.ErrNotFound when no entry references the intent.
	FindByPaymentIntent(ctx context.Context, intentID string) (*entity.Entry, error)
	// UpdatePaymentStatus moves the entry for intentID to `to`, but only while its
	// current status is one of `from`. It reports whether a row changed.
	UpdatePaymentStatus(ctx context.Context, intentID string, to entity.PaymentStatus, from ...entity.PaymentStatus) (bool, error)
	// UpdateReviewStatus returns entity.ErrNotFound when no entry has the id.
	UpdateReviewStatus(ctx context.Context, id string, status entity.ReviewStatus) error
	// DeleteByID returns entity.ErrNotFound when nothing was removed.
	DeleteByID(ctx context.Context, id string) error
}

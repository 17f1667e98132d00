package entry

import (
	"context"
	"io"

	"contest-api/internal/domain/entity"
	"contest-api/internal/usecase/payment"
)

// FileStore keeps the bytes of uploaded pitch decks.
//
// Save stores file.Data under a key derived from the entry id, so two
// submissions never write to the same place. A store may keep the bytes
// inline, leaving Data in place, or move them elsewhere and set StorageKey
// instead. Open returns entity.ErrNotFound when the reference carries nothing
// it can read. Remove drops whatever Save wrote elsewhere.
type FileStore interface {
	Name() string
	Save(ctx context.Context, entryID string, file *entity.FileRef) error
	Open(ctx context.Context, file *entity.FileRef) (io.ReadCloser, error)
	Remove(ctx context.Context, file *entity.FileRef) error
	Check(ctx context.Context) error
}

// IntentRetriever looks up the current state of a payment intent.
// payment.Gateway satisfies it.
type IntentRetriever interface {
	RetrieveIntent(ctx context.Context, intentID string) (*payment.Intent, error)
}

// SubmissionNotifier tells organizers about persisted entries. It must not
// block: Submit calls it after the entry is stored and ignores the outcome.
type SubmissionNotifier interface {
	NotifyEntrySubmitted(ctx context.Context, e *entity.Entry)
}

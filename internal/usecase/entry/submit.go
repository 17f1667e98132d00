package entry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"contest-api/internal/domain/entity"
	"contest-api/internal/observability/logging"
	"contest-api/internal/observability/metrics"
	"contest-api/internal/observability/tracing"
	"contest-api/internal/usecase/payment"
	"contest-api/internal/usecase/validate"
)

// State is a step of the submission workflow.
type State string

// Workflow states. Persisted and Rejected are terminal.
const (
	StateReceived        State = "received"
	StateValidated       State = "validated"
	StatePaymentVerified State = "payment-verified"
	StatePersisted       State = "persisted"
	StateRejected        State = "rejected"
)

// SubmitRequest is an entry submission as received from the client.
// Amounts are deliberately absent; they are recomputed from the payment intent.
type SubmitRequest struct {
	UserID          string  `json:"userId" validate:"required,max=128"`
	Category        string  `json:"category" validate:"required"`
	EntryType       string  `json:"entryType" validate:"required"`
	Title           string  `json:"title" validate:"required"`
	Description     string  `json:"description"`
	TextContent     string  `json:"textContent"`
	PitchDeckURL    string  `json:"pitchDeckUrl"`
	VideoURL        string  `json:"videoUrl"`
	PaymentIntentID string  `json:"paymentIntentId" validate:"required,max=255"`
	File            *Upload `json:"-"`
}

func (r *SubmitRequest) trim() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Category = strings.TrimSpace(r.Category)
	r.EntryType = strings.TrimSpace(r.EntryType)
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.PitchDeckURL = strings.TrimSpace(r.PitchDeckURL)
	r.VideoURL = strings.TrimSpace(r.VideoURL)
	r.PaymentIntentID = strings.TrimSpace(r.PaymentIntentID)
}

// submission tracks one run of the workflow.
type submission struct {
	req    SubmitRequest
	state  State
	logger *slog.Logger
}

func (sub *submission) advance(next State) {
	sub.logger.Debug("submission state changed",
		slog.String("from", string(sub.state)),
		slog.String("to", string(next)))
	sub.state = next
}

func (sub *submission) reject(reason string, cause error) error {
	metrics.RecordSubmissionRejected(reason)
	sub.logger.Warn("submission rejected",
		slog.String("state", string(sub.state)),
		slog.String("reason", reason),
		slog.Any("error", cause))
	sub.state = StateRejected
	return &RejectedError{Reason: reason, Err: cause}
}

// Submit runs the submission workflow and returns the persisted entry.
//
// The request is checked for required fields, then for a valid attachment,
// and then the payment intent is fetched from the gateway. Only an intent the
// gateway reports as succeeded lets the entry through, and the fees stored on
// the entry are rebuilt from the intent's metadata. Any failure along the way
// is a *RejectedError and nothing is written.
//
// A second submission for an intent that already has an entry returns
// entity.ErrDuplicateEntry.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (_ *entity.Entry, err error) {
	req.trim()
	ctx, span := tracing.StartSpan(ctx, "entry.submit",
		attribute.String("payment_intent_id", req.PaymentIntentID),
		attribute.String("entry_type", req.EntryType))
	defer func() { tracing.EndSpan(span, err) }()

	sub := &submission{
		req:   req,
		state: StateReceived,
		logger: logging.FromContext(ctx).With(
			slog.String("payment_intent_id", req.PaymentIntentID),
			slog.String("user_id", req.UserID)),
	}

	// Received -> Validated
	if err := validate.Struct(req); err != nil {
		return nil, sub.reject(ReasonMissingFields, err)
	}
	category := entity.Category(req.Category)
	if !s.feeTable().Has(category) {
		return nil, sub.reject(ReasonInvalidContent, &entity.ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("invalid category %q", req.Category),
			Err:     entity.ErrInvalidCategory,
		})
	}
	entryType := entity.EntryType(req.EntryType)
	if !entryType.IsValid() {
		return nil, sub.reject(ReasonInvalidContent, &entity.ValidationError{
			Field:   "entryType",
			Message: "must be one of text, pitch-deck, video",
		})
	}
	sub.advance(StateValidated)

	if entryType == entity.EntryTypePitchDeck {
		if err := s.checkDeck(&req); err != nil {
			return nil, sub.reject(ReasonFileInvalid, err)
		}
	}

	// Validated -> PaymentVerified
	quote, err := s.verifyPayment(ctx, &req, category, entryType)
	if err != nil {
		return nil, sub.reject(ReasonPaymentIncomplete, err)
	}
	sub.advance(StatePaymentVerified)

	e := &entity.Entry{
		UserID:          req.UserID,
		Category:        category,
		Title:           req.Title,
		Description:     req.Description,
		Content:         s.buildContent(&req, entryType),
		PaymentIntentID: req.PaymentIntentID,
		PaymentStatus:   entity.PaymentStatusSucceeded,
		ReviewStatus:    entity.ReviewStatusSubmitted,
		SubmittedAt:     s.clock(),
	}
	e.ApplyFees(quote.Fees)
	if err := e.Validate(); err != nil {
		return nil, sub.reject(ReasonInvalidContent, err)
	}

	// 既存エントリがあればファイルを書く前に止める
	_, err = s.Repo.FindByPaymentIntent(ctx, req.PaymentIntentID)
	switch {
	case err == nil:
		return nil, entity.ErrDuplicateEntry
	case !errors.Is(err, entity.ErrNotFound):
		return nil, fmt.Errorf("check existing entry: %w", err)
	}

	// ファイルは entry ID をキーに保存する。同じ intent の同時送信でも互いに上書きしない
	e.ID = entity.NewEntryID(e.SubmittedAt)
	if file := e.File(); file != nil && len(file.Data) > 0 {
		if err := s.Files.Save(ctx, e.ID, file); err != nil {
			return nil, fmt.Errorf("store file: %w", err)
		}
	}

	if err := s.Repo.Insert(ctx, e); err != nil {
		s.discardFile(ctx, sub, e.File())
		return nil, fmt.Errorf("persist entry: %w", err)
	}
	sub.advance(StatePersisted)

	metrics.RecordEntrySubmitted(string(e.Category), string(e.Type()))
	sub.logger.Info("entry persisted",
		slog.String("entry_id", e.ID),
		slog.String("category", string(e.Category)),
		slog.String("entry_type", string(e.Type())),
		slog.Int64("total", e.TotalAmount))

	if s.Notifier != nil {
		s.Notifier.NotifyEntrySubmitted(ctx, e.WithoutInlineData())
	}
	return e, nil
}

// discardFile removes a file whose entry was never stored, typically because
// a concurrent submission for the same intent won the insert.
func (s *Service) discardFile(ctx context.Context, sub *submission, file *entity.FileRef) {
	if file == nil || file.StorageKey == "" {
		return
	}
	if err := s.Files.Remove(context.WithoutCancel(ctx), file); err != nil {
		sub.logger.Warn("orphaned entry file left in storage",
			slog.String("storage_key", file.StorageKey),
			slog.Any("error", err))
	}
}

// checkDeck requires a file or a link. An attached file must pass the type
// and size checks even when a link is also given.
func (s *Service) checkDeck(req *SubmitRequest) error {
	if req.File == nil {
		if req.PitchDeckURL == "" {
			return &entity.ValidationError{Field: "file", Message: "a pitch deck file or pitchDeckUrl is required"}
		}
		return nil
	}
	return checkUpload(req.File, s.MaxFileSize)
}

// verifyPayment asks the gateway for the intent and rebuilds the quote it was
// opened with. The client's own view of the payment is never consulted.
func (s *Service) verifyPayment(ctx context.Context, req *SubmitRequest, category entity.Category, entryType entity.EntryType) (payment.Quote, error) {
	intent, err := s.Payments.RetrieveIntent(ctx, req.PaymentIntentID)
	switch {
	case errors.Is(err, payment.ErrIntentNotFound):
		return payment.Quote{}, fmt.Errorf("%w: %w", entity.ErrPaymentNotCompleted, err)
	case err != nil:
		// ErrGatewayUnavailable のまま返して 503 にする
		return payment.Quote{}, err
	}

	if intent.Status != payment.IntentSucceeded {
		return payment.Quote{}, fmt.Errorf("%w: intent status is %s", entity.ErrPaymentNotCompleted, intent.Status)
	}

	quote, err := payment.QuoteFromIntent(intent)
	if err != nil {
		return payment.Quote{}, fmt.Errorf("%w: %w", entity.ErrPaymentNotCompleted, err)
	}
	if quote.Category != category {
		return payment.Quote{}, &entity.ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("does not match the paid category %q", quote.Category),
			Err:     entity.ErrPaymentNotCompleted,
		}
	}
	if quote.EntryType != entryType {
		return payment.Quote{}, &entity.ValidationError{
			Field:   "entryType",
			Message: fmt.Sprintf("does not match the paid entry type %q", quote.EntryType),
			Err:     entity.ErrPaymentNotCompleted,
		}
	}
	return quote, nil
}

func (s *Service) buildContent(req *SubmitRequest, t entity.EntryType) entity.Content {
	switch t {
	case entity.EntryTypeText:
		return &entity.TextContent{Body: req.TextContent}
	case entity.EntryTypePitchDeck:
		deck := &entity.DeckContent{URL: req.PitchDeckURL}
		if req.File != nil {
			deck.File = fileRef(req.File, req.PaymentIntentID)
		}
		return deck
	case entity.EntryTypeVideo:
		return &entity.VideoContent{URL: req.VideoURL}
	}
	return nil
}

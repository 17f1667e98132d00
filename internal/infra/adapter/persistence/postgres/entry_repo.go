package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"contest-api/internal/domain/entity"
	"contest-api/internal/infra/db"
	"contest-api/internal/observability/metrics"
	"contest-api/internal/repository"
	"contest-api/internal/resilience/circuitbreaker"
)

const entryColumns = `
id, user_id, category, entry_type, title, description,
text_content, pitch_deck_url,
file_name, file_mime_type, file_size, file_data, file_storage_key, file_url,
video_url,
entry_fee, surcharge, total_amount,
payment_intent_id, payment_status, review_status,
submitted_at, created_at, updated_at`

// EntryRepo stores entries in PostgreSQL.
// Every call goes through the database circuit breaker.
type EntryRepo struct {
	conn *db.Manager
	cb   *circuitbreaker.CircuitBreaker
	now  func() time.Time
}

// NewEntryRepo creates an EntryRepo backed by the given connection manager.
func NewEntryRepo(conn *db.Manager) repository.EntryRepository {
	cfg := circuitbreaker.DBConfig()
	cfg.IsSuccessful = func(err error) bool {
		return errors.Is(err, sql.ErrNoRows)
	}
	return &EntryRepo{
		conn: conn,
		cb:   circuitbreaker.New(cfg),
		now:  time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry maps one row onto an Entry, rebuilding the content variant from entry_type.
func scanEntry(row rowScanner) (*entity.Entry, error) {
	var (
		e                                     entity.Entry
		entryType                             string
		textContent, pitchDeckURL, videoURL   sql.NullString
		fileName, fileMime, fileData, fileKey sql.NullString
		fileURL                               sql.NullString
		fileSize                              sql.NullInt64
		category, paymentStatus, reviewStatus string
	)
	if err := row.Scan(
		&e.ID, &e.UserID, &category, &entryType, &e.Title, &e.Description,
		&textContent, &pitchDeckURL,
		&fileName, &fileMime, &fileSize, &fileData, &fileKey, &fileURL,
		&videoURL,
		&e.EntryFee, &e.Surcharge, &e.TotalAmount,
		&e.PaymentIntentID, &paymentStatus, &reviewStatus,
		&e.SubmittedAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Category = entity.Category(category)
	e.PaymentStatus = entity.PaymentStatus(paymentStatus)
	e.ReviewStatus = entity.ReviewStatus(reviewStatus)

	switch entity.EntryType(entryType) {
	case entity.EntryTypeText:
		e.Content = &entity.TextContent{Body: textContent.String}
	case entity.EntryTypePitchDeck:
		deck := &entity.DeckContent{URL: pitchDeckURL.String}
		if fileName.Valid {
			file := &entity.FileRef{
				Filename:   fileName.String,
				MimeType:   fileMime.String,
				Size:       fileSize.Int64,
				StorageKey: fileKey.String,
				URL:        fileURL.String,
			}
			if fileData.Valid && fileData.String != "" {
				data, err := base64.StdEncoding.DecodeString(fileData.String)
				if err != nil {
					return nil, fmt.Errorf("decode file_data: %w", err)
				}
				file.Data = data
			}
			deck.File = file
		}
		e.Content = deck
	case entity.EntryTypeVideo:
		e.Content = &entity.VideoContent{URL: videoURL.String}
	default:
		return nil, fmt.Errorf("unknown entry_type %q", entryType)
	}
	return &e, nil
}

// contentArgs returns the type-specific columns in entryColumns order:
// text_content, pitch_deck_url, file_name, file_mime_type, file_size,
// file_data, file_storage_key, file_url, video_url.
func contentArgs(c entity.Content) []any {
	args := make([]any, 9)
	switch v := c.(type) {
	case *entity.TextContent:
		args[0] = v.Body
	case *entity.DeckContent:
		if v.URL != "" {
			args[1] = v.URL
		}
		if f := v.File; f != nil {
			args[2] = f.Filename
			args[3] = f.MimeType
			args[4] = f.Size
			if len(f.Data) > 0 {
				args[5] = base64.StdEncoding.EncodeToString(f.Data)
			}
			if f.StorageKey != "" {
				args[6] = f.StorageKey
			}
			args[7] = f.URL
		}
	case *entity.VideoContent:
		args[8] = v.URL
	}
	return args
}

// Insert stores the entry unless one already exists for its payment intent.
func (repo *EntryRepo) Insert(ctx context.Context, e *entity.Entry) error {
	defer observe("insert_entry", time.Now())
	now := repo.now().UTC()
	if e.ID == "" {
		e.ID = entity.NewEntryID(now)
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = now
	}
	e.CreatedAt = now
	e.UpdatedAt = now

	args := []any{e.ID, e.UserID, string(e.Category), string(e.Type()), e.Title, e.Description}
	args = append(args, contentArgs(e.Content)...)
	args = append(args,
		e.EntryFee, e.Surcharge, e.TotalAmount,
		e.PaymentIntentID, string(e.PaymentStatus), string(e.ReviewStatus),
		e.SubmittedAt, e.CreatedAt, e.UpdatedAt,
	)

	// 同一 payment intent の二重登録は ON CONFLICT で弾く
	const query = `
INSERT INTO entries (` + entryColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
        $16, $17, $18, $19, $20, $21, $22, $23, $24)
ON CONFLICT (payment_intent_id) DO NOTHING`

	affected, err := repo.exec(ctx, query, args...)
	if err != nil {
		return classify("Insert", err)
	}
	if affected == 0 {
		return entity.ErrDuplicateEntry
	}
	return nil
}

func (repo *EntryRepo) FindByOwner(ctx context.Context, userID string) ([]*entity.Entry, error) {
	defer observe("find_by_owner", time.Now())
	const query = `
SELECT ` + entryColumns + `
FROM entries
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`

	conn, err := repo.conn.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindByOwner: %w", err)
	}
	entries, err := circuitbreaker.Do(repo.cb, func() ([]*entity.Entry, error) {
		rows, err := conn.QueryContext(ctx, query, userID)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		entries := make([]*entity.Entry, 0, 8)
		for rows.Next() {
			e, err := scanEntry(rows)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
		return entries, rows.Err()
	})
	repo.dropIfLost(conn, err)
	if err != nil {
		return nil, classify("FindByOwner", err)
	}
	return entries, nil
}

func (repo *EntryRepo) FindByID(ctx context.Context, id string) (*entity.Entry, error) {
	defer observe("find_by_id", time.Now())
	const query = `
SELECT ` + entryColumns + `
FROM entries
WHERE id = $1
LIMIT 1`
	e, err := repo.queryOne(ctx, query, id)
	if err != nil {
		return nil, classify("FindByID", err)
	}
	return e, nil
}

func (repo *EntryRepo) FindByPaymentIntent(ctx context.Context, intentID string) (*entity.Entry, error) {
	defer observe("find_by_payment_intent", time.Now())
	const query = `
SELECT ` + entryColumns + `
FROM entries
WHERE payment_intent_id = $1
LIMIT 1`
	e, err := repo.queryOne(ctx, query, intentID)
	if err != nil {
		return nil, classify("FindByPaymentIntent", err)
	}
	return e, nil
}

// UpdatePaymentStatus is a conditional write: the row only changes while its
// current status is one of from, so repeated notifications are no-ops.
func (repo *EntryRepo) UpdatePaymentStatus(ctx context.Context, intentID string, to entity.PaymentStatus, from ...entity.PaymentStatus) (bool, error) {
	defer observe("update_payment_status", time.Now())
	if len(from) == 0 {
		return false, nil
	}
	placeholders := make([]string, len(from))
	args := []any{string(to), repo.now().UTC(), intentID}
	for i, s := range from {
		placeholders[i] = "$" + strconv.Itoa(len(args)+1)
		args = append(args, string(s))
	}
	query := `
UPDATE entries
SET payment_status = $1, updated_at = $2
WHERE payment_intent_id = $3
AND payment_status IN (` + strings.Join(placeholders, ", ") + `)`

	affected, err := repo.exec(ctx, query, args...)
	if err != nil {
		return false, classify("UpdatePaymentStatus", err)
	}
	return affected > 0, nil
}

func (repo *EntryRepo) UpdateReviewStatus(ctx context.Context, id string, status entity.ReviewStatus) error {
	defer observe("update_review_status", time.Now())
	const query = `
UPDATE entries
SET review_status = $1, updated_at = $2
WHERE id = $3`
	affected, err := repo.exec(ctx, query, string(status), repo.now().UTC(), id)
	if err != nil {
		return classify("UpdateReviewStatus", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *EntryRepo) DeleteByID(ctx context.Context, id string) error {
	defer observe("delete_entry", time.Now())
	const query = `DELETE FROM entries WHERE id = $1`
	affected, err := repo.exec(ctx, query, id)
	if err != nil {
		return classify("DeleteByID", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordDBQuery(op, time.Since(start))
}

func (repo *EntryRepo) queryOne(ctx context.Context, query string, arg any) (*entity.Entry, error) {
	conn, err := repo.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	e, err := circuitbreaker.Do(repo.cb, func() (*entity.Entry, error) {
		return scanEntry(conn.QueryRowContext(ctx, query, arg))
	})
	repo.dropIfLost(conn, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	return e, err
}

func (repo *EntryRepo) exec(ctx context.Context, query string, args ...any) (int64, error) {
	conn, err := repo.conn.Get(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := circuitbreaker.Do(repo.cb, func() (int64, error) {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	repo.dropIfLost(conn, err)
	return affected, err
}

// dropIfLost makes the manager reconnect when the server went away under
// conn. Timeouts and open-circuit rejections leave the handle alone.
func (repo *EntryRepo) dropIfLost(conn *sql.DB, err error) {
	if connectionLost(err) {
		repo.conn.Invalidate(conn)
	}
}

func connectionLost(err error) bool {
	if err == nil || circuitbreaker.IsRejected(err) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && !netErr.Timeout()
}

// classify wraps err with the operation name and marks connectivity failures
// as entity.ErrDependencyUnavailable. Domain sentinels pass through unchanged.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrNotFound),
		errors.Is(err, entity.ErrDuplicateEntry),
		errors.Is(err, entity.ErrDependencyUnavailable):
		return err
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, entity.ErrDependencyUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isUnavailable(err error) bool {
	if circuitbreaker.IsRejected(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

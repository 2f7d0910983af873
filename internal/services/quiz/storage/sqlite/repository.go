package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/countryquiz/internal/platform/errors"
	"github.com/louisbranch/countryquiz/internal/services/quiz/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const tracerName = "github.com/louisbranch/countryquiz/internal/services/quiz/storage/sqlite"

var (
	insertQuizSQL = fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quizTable,
		strings.Join(insertColumns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", "),
	)
	// SELECT * keeps decoding independent of the table's column order.
	selectQuizzesSQL = "SELECT * FROM " + quizTable
)

// Repository stores and restores quiz records through a caller-owned Handle.
// The handle must be opened before use and stays owned by the caller.
type Repository struct {
	handle *Handle
	tracer trace.Tracer
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithTracer overrides the tracer used for repository spans.
func WithTracer(tracer trace.Tracer) RepositoryOption {
	return func(r *Repository) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// NewRepository creates a repository bound to handle.
func NewRepository(handle *Handle, opts ...RepositoryOption) *Repository {
	r := &Repository{
		handle: handle,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Store inserts quiz as a new row, sets the generated id on it, and returns
// the same pointer. On failure the quiz keeps a zero id.
func (r *Repository) Store(ctx context.Context, quiz *storage.Quiz) (*storage.Quiz, error) {
	ctx, span := r.tracer.Start(ctx, "quiz.Store")
	defer span.End()

	stored, err := r.store(ctx, quiz)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("quiz.id", stored.ID))
	return stored, nil
}

func (r *Repository) store(ctx context.Context, quiz *storage.Quiz) (*storage.Quiz, error) {
	if quiz == nil {
		return nil, storage.ErrQuizRequired
	}
	if quiz.Persistent() {
		return nil, fmt.Errorf("store quiz %d: %w", quiz.ID, storage.ErrAlreadyPersistent)
	}
	sqlDB, err := r.handle.conn()
	if err != nil {
		return nil, fmt.Errorf("store quiz: %w", err)
	}

	values, err := EncodeQuiz(*quiz)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInsertRejected, "store quiz", err)
	}
	args := make([]any, len(insertColumns))
	for i, column := range insertColumns {
		args[i] = values[column]
	}

	result, err := sqlDB.ExecContext(ctx, insertQuizSQL, args...)
	if err != nil {
		return nil, classifyInsertError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		// The row is already written; it surfaces on the next RetrieveAll
		// while this quiz stays transient.
		return nil, apperrors.Wrap(apperrors.CodeStoreUnavailable, "read quiz id", err)
	}

	quiz.ID = id
	r.handle.logf("stored new quiz with id: %d", id)
	return quiz, nil
}

// RetrieveAll returns every decodable quiz row in the store's natural order.
// Rows that fail to decode are logged and skipped. Query failures are logged
// and yield the quizzes read so far; the only error returned is
// storage.ErrHandleNotOpen.
func (r *Repository) RetrieveAll(ctx context.Context) ([]storage.Quiz, error) {
	ctx, span := r.tracer.Start(ctx, "quiz.RetrieveAll")
	defer span.End()

	sqlDB, err := r.handle.conn()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("retrieve quizzes: %w", err)
	}

	quizzes, read, skipped := r.retrieveAll(ctx, sqlDB, span)
	r.handle.logf("number of records from db: %d", read)
	span.SetAttributes(
		attribute.Int("quiz.rows_read", read),
		attribute.Int("quiz.rows_skipped", skipped),
		attribute.Int("quiz.count", len(quizzes)),
	)
	return quizzes, nil
}

func (r *Repository) retrieveAll(ctx context.Context, sqlDB *sql.DB, span trace.Span) (quizzes []storage.Quiz, read, skipped int) {
	quizzes = make([]storage.Quiz, 0)

	rows, err := sqlDB.QueryContext(ctx, selectQuizzesSQL)
	if err != nil {
		r.absorb(span, "query quizzes", err)
		return quizzes, 0, 0
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		r.absorb(span, "read quiz columns", err)
		return quizzes, 0, 0
	}

	for rows.Next() {
		read++
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			skipped++
			r.handle.logf("skip quiz row %d: scan: %v", read, err)
			continue
		}
		quiz, err := DecodeQuiz(columns, values)
		if err != nil {
			skipped++
			r.handle.logf("skip quiz row %d: %v", read, err)
			continue
		}
		r.handle.logf("retrieved quiz: %v", quiz)
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		r.absorb(span, "iterate quizzes", err)
	}
	return quizzes, read, skipped
}

// absorb logs a read failure that RetrieveAll degrades to a short result.
func (r *Repository) absorb(span trace.Span, op string, err error) {
	err = apperrors.Wrap(apperrors.CodeStoreUnavailable, op, err)
	r.handle.logf("retrieve quizzes: %v", err)
	span.RecordError(err)
}

func classifyInsertError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, "insert quiz", err)
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY,
			sqlite3lib.SQLITE_LOCKED,
			sqlite3lib.SQLITE_IOERR,
			sqlite3lib.SQLITE_CANTOPEN,
			sqlite3lib.SQLITE_READONLY,
			sqlite3lib.SQLITE_FULL,
			sqlite3lib.SQLITE_NOTADB,
			sqlite3lib.SQLITE_CORRUPT:
			return apperrors.Wrap(apperrors.CodeStoreUnavailable, "insert quiz", err)
		}
	}
	return apperrors.Wrap(apperrors.CodeInsertRejected, "insert quiz", err)
}

var _ storage.QuizStore = (*Repository)(nil)

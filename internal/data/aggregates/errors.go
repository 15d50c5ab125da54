package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/taskmaster-backend/internal/domain/aggregates"
	"github.com/yungbote/taskmaster-backend/internal/platform/blobstore"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrNotFound indicates a missing entity.
	ErrNotFound = errors.New("aggregate not found")
	// ErrForbidden indicates the principal may not perform the operation.
	ErrForbidden = errors.New("aggregate forbidden")
	// ErrInvariant indicates invariant rule violation.
	ErrInvariant = errors.New("aggregate invariant violation")
	// ErrConflict indicates a state conflict such as a duplicate member.
	ErrConflict = errors.New("aggregate conflict")
	// ErrStorage indicates a blob backend failure.
	ErrStorage = errors.New("aggregate storage fault")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("aggregate retryable")
)

// taggedError carries a client facing message and matches its sentinel with
// errors.Is.
type taggedError struct {
	kind  error
	msg   string
	cause error
}

func (e *taggedError) Error() string { return e.msg }

func (e *taggedError) Is(target error) bool { return target == e.kind }

func (e *taggedError) Unwrap() error { return e.cause }

func tag(kind error, msg string, cause error) error {
	return &taggedError{kind: kind, msg: strings.TrimSpace(msg), cause: cause}
}

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error { return tag(ErrValidation, msg, nil) }

// NotFoundError tags an error as a missing entity.
func NotFoundError(msg string) error { return tag(ErrNotFound, msg, nil) }

// ForbiddenError tags an error as an access denial.
func ForbiddenError(msg string) error { return tag(ErrForbidden, msg, nil) }

// InvariantError tags an error as invariant violation.
func InvariantError(msg string) error { return tag(ErrInvariant, msg, nil) }

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error { return tag(ErrConflict, msg, nil) }

// StorageError tags a blob backend failure, keeping the cause for logs.
func StorageError(msg string, cause error) error { return tag(ErrStorage, msg, cause) }

// RetryableError tags an error as retryable failure.
func RetryableError(msg string) error { return tag(ErrRetryable, msg, nil) }

// MapError maps infrastructure/domain failures into aggregate error codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, ErrNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, ErrForbidden):
		return domainagg.Wrap(domainagg.CodeForbidden, op, err)
	case errors.Is(err, ErrInvariant):
		return domainagg.Wrap(domainagg.CodeInvariantViolation, op, err)
	case errors.Is(err, ErrConflict):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case errors.Is(err, ErrStorage):
		return domainagg.Wrap(domainagg.CodeStorage, op, err)
	case errors.Is(err, ErrRetryable):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, blobstore.ErrInvalidKey), errors.Is(err, blobstore.ErrOutsideRoot):
		return domainagg.NewError(domainagg.CodeValidation, op, "invalid storage path", err)
	case errors.Is(err, blobstore.ErrNotFound):
		return domainagg.NewError(domainagg.CodeNotFound, op, "file not found", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return domainagg.Wrap(domainagg.CodeConflict, op, err) // unique_violation
		case "23503":
			return domainagg.Wrap(domainagg.CodePreconditionFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return domainagg.Wrap(domainagg.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "already exists"):
		return domainagg.Wrap(domainagg.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	default:
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
}

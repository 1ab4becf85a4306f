package failure

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vietddude/tikwatch/internal/core/domain"
)

// ResolvedError is raised when every source in a resolution failed.
type ResolvedError struct {
	ID          string                 `json:"id"`
	Category    domain.Category        `json:"category"`
	Text        string                 `json:"text"`
	Method      string                 `json:"method"`
	Subject     string                 `json:"subject"`
	Timestamp   time.Time              `json:"timestamp"`
	Attempts    []domain.FailureRecord `json:"attempts"`
	Suggestions []string               `json:"suggestions"`
	NotLive     bool                   `json:"not_live,omitempty"`

	cause error
}

// NewResolvedError builds the error from a finished attempt log. The category
// is taken from the last recorded failure.
func NewResolvedError(
	id, method, subject string,
	log *domain.AttemptLog,
	cause error,
	now time.Time,
) *ResolvedError {
	if id == "" {
		id = ulid.Make().String()
	}
	cat := domain.CategoryUnknown
	if last, ok := log.Last(); ok {
		cat = last.Category
	} else if cause != nil {
		cat = Classify(cause)
	}

	return &ResolvedError{
		ID:          id,
		Category:    cat,
		Text:        Describe(cat),
		Method:      method,
		Subject:     subject,
		Timestamp:   now,
		Attempts:    log.Snapshot(),
		Suggestions: Suggestions(cat),
		cause:       cause,
	}
}

func (e *ResolvedError) Error() string {
	return fmt.Sprintf("%s(%s): %s: %s after %d attempt(s)",
		e.Method, e.Subject, e.Category, e.Text, len(e.Attempts))
}

func (e *ResolvedError) Unwrap() error {
	return e.cause
}

// FailureCategory lets Classify read the category back.
func (e *ResolvedError) FailureCategory() domain.Category {
	return e.Category
}

// Retryable reports whether a retry command can succeed.
func (e *ResolvedError) Retryable() bool {
	return Retryable(e.Category)
}

// Package source defines the upstream adapters that turn a handle into a
// normalized record.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

// Adapter names, in default priority order.
const (
	NamePremium = "premium"
	NameScrape  = "scrape"
	NamePublic  = "public"
)

var (
	// ErrNotLive is returned when a source reports the subject is not streaming.
	ErrNotLive = errors.New("user is not currently live")

	// ErrPlaceholderKey is returned before any network call when the premium
	// credential is missing or still the template value.
	ErrPlaceholderKey = errors.New("API key is missing or a placeholder")
)

// ProfileSource is implemented by every adapter.
type ProfileSource interface {
	Name() string
	FetchProfile(ctx context.Context, handle string) (domain.ProfileRecord, error)
}

// LiveSource is implemented by adapters that can report live stats.
type LiveSource interface {
	ProfileSource
	FetchLiveStats(ctx context.Context, handle string) (domain.LiveStatsRecord, error)
}

// Error is an adapter failure. Category is optional; when empty the failure
// is classified from the wrapped error.
type Error struct {
	Source   string
	Category domain.Category
	Err      error
}

// Fail wraps err as an adapter failure.
func Fail(source string, cat domain.Category, err error) *Error {
	return &Error{Source: source, Category: cat, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FailureCategory returns the explicit category, if any.
func (e *Error) FailureCategory() domain.Category {
	return e.Category
}

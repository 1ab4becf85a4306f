// Package failure maps raw upstream failures onto the closed error taxonomy.
package failure

import (
	"context"
	"errors"
	"strings"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

// Categorized is implemented by errors that already know their category.
type Categorized interface {
	FailureCategory() domain.Category
}

// StatusCoder is implemented by errors carrying an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

type rule struct {
	category domain.Category
	statuses []int
	patterns []string
}

// rules are evaluated top to bottom; the first match wins. Auth and quota
// checks come before the network checks because a 403 or 429 reached us over
// the network too.
var rules = []rule{
	{
		category: domain.CategoryAPIKey,
		statuses: []int{401, 403},
		patterns: []string{"api key", "api_key", "apikey", "401", "403", "unauthorized", "forbidden", "invalid key", "credential"},
	},
	{
		category: domain.CategoryRateLimited,
		statuses: []int{429},
		patterns: []string{"429", "rate limit", "too many requests", "quota", "count exceeded"},
	},
	{
		category: domain.CategoryUserNotFound,
		statuses: []int{404},
		patterns: []string{"user not found", "404", "not found", "does not exist", "not currently live", "not live"},
	},
	{
		category: domain.CategoryTimeout,
		statuses: []int{408, 504},
		patterns: []string{"timeout", "timed out", "deadline exceeded", "aborted"},
	},
	{
		category: domain.CategoryCORS,
		patterns: []string{"cors", "cross-origin", "access-control"},
	},
	{
		category: domain.CategoryParse,
		patterns: []string{"parse", "json", "unexpected token", "invalid character", "unexpected end", "no fields extracted", "unexpected shape"},
	},
	{
		category: domain.CategoryNetwork,
		statuses: []int{500, 502, 503},
		patterns: []string{"network", "fetch", "connection", "no such host", "dial", "eof", "proxy", "unreachable", "reset by peer"},
	},
}

// ClassifyMessage maps a failure message and optional HTTP status (0 if none)
// to exactly one category. A known status decides before any message text.
func ClassifyMessage(msg string, status int) domain.Category {
	if status != 0 {
		for _, r := range rules {
			for _, s := range r.statuses {
				if status == s {
					return r.category
				}
			}
		}
	}

	lower := strings.ToLower(msg)
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(lower, p) {
				return r.category
			}
		}
	}
	return domain.CategoryUnknown
}

// Classify maps an error to a category. The outermost non-empty category in
// the chain wins; everything else goes through the status and message rules.
func Classify(err error) domain.Category {
	if err == nil {
		return domain.CategoryUnknown
	}
	if cat := explicitCategory(err); cat != "" {
		return cat
	}

	status := 0
	var sc StatusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	cat := ClassifyMessage(err.Error(), status)
	if cat == domain.CategoryUnknown && errors.Is(err, context.DeadlineExceeded) {
		return domain.CategoryTimeout
	}
	return cat
}

func explicitCategory(err error) domain.Category {
	for err != nil {
		if c, ok := err.(Categorized); ok {
			if cat := c.FailureCategory(); cat != "" {
				return cat
			}
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if cat := explicitCategory(e); cat != "" {
					return cat
				}
			}
			return ""
		default:
			return ""
		}
	}
	return ""
}

// Retryable reports whether another attempt can change the outcome.
func Retryable(cat domain.Category) bool {
	switch cat {
	case domain.CategoryAPIKey, domain.CategoryUserNotFound:
		return false
	default:
		return true
	}
}

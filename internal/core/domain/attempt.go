package domain

import (
	"sync"
	"time"
)

// Category is the closed set of failure classes.
type Category string

const (
	CategoryNetwork      Category = "NETWORK_ERROR"
	CategoryAPIKey       Category = "API_KEY_ERROR"
	CategoryUserNotFound Category = "USER_NOT_FOUND"
	CategoryRateLimited  Category = "RATE_LIMITED"
	CategoryCORS         Category = "CORS_ERROR"
	CategoryTimeout      Category = "TIMEOUT_ERROR"
	CategoryParse        Category = "PARSE_ERROR"
	CategoryUnknown      Category = "UNKNOWN_ERROR"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategoryAPIKey,
	CategoryRateLimited,
	CategoryUserNotFound,
	CategoryTimeout,
	CategoryCORS,
	CategoryParse,
	CategoryNetwork,
	CategoryUnknown,
}

// FailureRecord is one failed adapter attempt.
type FailureRecord struct {
	Source    string    `json:"source"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AttemptLog is the append-only failure record of one resolution.
type AttemptLog struct {
	mu      sync.Mutex
	entries []FailureRecord
}

// NewAttemptLog returns an empty log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{}
}

// Append records a failure.
func (l *AttemptLog) Append(r FailureRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, r)
}

// Len returns the number of recorded failures.
func (l *AttemptLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshot returns a copy of the entries in attempt order.
func (l *AttemptLog) Snapshot() []FailureRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]FailureRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the most recent entry.
func (l *AttemptLog) Last() (FailureRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return FailureRecord{}, false
	}
	return l.entries[len(l.entries)-1], true
}

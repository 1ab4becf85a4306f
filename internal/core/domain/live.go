package domain

import (
	"sort"
	"time"
)

// DefaultMaxComments bounds comment sequences when no limit is configured.
const DefaultMaxComments = 15

// CommentRecord is a single live chat comment.
type CommentRecord struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int64     `json:"likes"`
	IsSystem  bool      `json:"is_system"`
}

// LiveStatsRecord is a snapshot of a live session.
type LiveStatsRecord struct {
	Handle      string          `json:"handle"`
	Viewers     int64           `json:"viewers"`
	Likes       int64           `json:"likes"`
	NewFollows  int64           `json:"new_follows"`
	Shares      int64           `json:"shares"`
	Comments    []CommentRecord `json:"comments"`
	IsLive      bool            `json:"is_live"`
	Provenance  Provenance      `json:"provenance"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// Normalize clamps counters and orders/bounds the comment list.
func (l LiveStatsRecord) Normalize(maxComments int) LiveStatsRecord {
	l.Viewers = nonNegative(l.Viewers)
	l.Likes = nonNegative(l.Likes)
	l.NewFollows = nonNegative(l.NewFollows)
	l.Shares = nonNegative(l.Shares)
	l.Comments = BoundComments(l.Comments, maxComments)
	return l
}

// WithComment returns a copy with c placed at the head of the comment list.
func (l LiveStatsRecord) WithComment(c CommentRecord, maxComments int) LiveStatsRecord {
	comments := make([]CommentRecord, 0, len(l.Comments)+1)
	comments = append(comments, c)
	comments = append(comments, l.Comments...)
	l.Comments = trimComments(comments, maxComments)
	return l
}

// BoundComments returns a newest-first copy of comments holding at most max entries.
func BoundComments(comments []CommentRecord, max int) []CommentRecord {
	out := make([]CommentRecord, len(comments))
	copy(out, comments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return trimComments(out, max)
}

func trimComments(comments []CommentRecord, max int) []CommentRecord {
	if max <= 0 {
		max = DefaultMaxComments
	}
	if len(comments) > max {
		comments = comments[:max]
	}
	return comments
}

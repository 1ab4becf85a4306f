// Package synth produces plausible records when no real data may or can be
// used. Output depends only on the handle, so repeated calls agree.
package synth

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/vietddude/tikwatch/internal/core/domain"
	"github.com/vietddude/tikwatch/internal/infra/source"
)

var sampleComments = []string{
	"Hello from the chat!",
	"Love this stream",
	"Where are you streaming from?",
	"First time here, great content",
	"Can you say hi to me?",
	"This is amazing",
	"Greetings from Mexico",
	"What song is this?",
}

var sampleAuthors = []string{"maria_22", "dev.juan", "lucia.art", "carlos99", "nina_ok", "pixel_pete"}

// Synthesizer generates records seeded from the handle.
type Synthesizer struct {
	now func() time.Time
}

// New creates a synthesizer.
func New() *Synthesizer {
	return &Synthesizer{now: time.Now}
}

// WithClock replaces the time source.
func (s *Synthesizer) WithClock(now func() time.Time) *Synthesizer {
	s.now = now
	return s
}

func rng(handle, salt string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(handle)))
	_, _ = h.Write([]byte(salt))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func between(r *rand.Rand, lo, hi int64) int64 {
	return lo + r.Int63n(hi-lo+1)
}

// Profile returns a synthesized profile tagged with prov.
func (s *Synthesizer) Profile(handle string, prov domain.Provenance) domain.ProfileRecord {
	r := rng(handle, "profile")
	followers := between(r, 5_000, 55_000)

	return domain.ProfileRecord{
		Handle:         handle,
		DisplayName:    displayName(handle),
		FollowerCount:  followers,
		FollowingCount: between(r, 50, 1_500),
		LikeCount:      followers * between(r, 8, 40),
		VideoCount:     between(r, 10, 400),
		AvatarURL:      source.AvatarFor(handle),
		Verified:       false,
		Bio:            "Profile data unavailable, showing generated values",
		Provenance:     prov,
		RetrievedAt:    s.now(),
	}
}

// LiveStats returns a synthesized live snapshot tagged with prov. Counts scale
// with the synthesized follower count.
func (s *Synthesizer) LiveStats(handle string, prov domain.Provenance, maxComments int) domain.LiveStatsRecord {
	followers := s.Profile(handle, prov).FollowerCount
	r := rng(handle, "live")
	now := s.now()

	viewers := followers/100 + between(r, 10, 200)
	comments := make([]domain.CommentRecord, 0, 5)
	for i := 0; i < 5; i++ {
		comments = append(comments, domain.CommentRecord{
			ID:        fmt.Sprintf("synth-%s-%d", handle, i),
			Author:    sampleAuthors[r.Intn(len(sampleAuthors))],
			Text:      sampleComments[r.Intn(len(sampleComments))],
			Timestamp: now.Add(-time.Duration(i*15) * time.Second),
			Likes:     between(r, 0, 20),
		})
	}

	rec := domain.LiveStatsRecord{
		Handle:      handle,
		Viewers:     viewers,
		Likes:       viewers * between(r, 5, 30),
		NewFollows:  between(r, 0, viewers/10+1),
		Shares:      between(r, 0, viewers/20+1),
		Comments:    comments,
		IsLive:      true,
		Provenance:  prov,
		RetrievedAt: now,
	}
	return rec.Normalize(maxComments)
}

func displayName(handle string) string {
	name := strings.NewReplacer("_", " ", ".", " ").Replace(handle)
	runes := []rune(name)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

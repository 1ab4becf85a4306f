package domain

import "time"

// Provenance tags the origin of a returned record.
type Provenance string

const (
	ProvenancePremium   Provenance = "rapidapi_premium"
	ProvenanceScrape    Provenance = "html_parsing"
	ProvenancePublicAPI Provenance = "public_api"
	ProvenanceLiveAPI   Provenance = "public_live_api"
	ProvenanceSynthetic Provenance = "synthetic"
	ProvenanceFallback  Provenance = "fallback"
)

// IsSynthesized reports whether the record was generated rather than fetched.
func (p Provenance) IsSynthesized() bool {
	return p == ProvenanceSynthetic || p == ProvenanceFallback
}

// ProfileRecord is a normalized user profile. Treat as immutable once built.
type ProfileRecord struct {
	Handle         string     `json:"handle"`
	DisplayName    string     `json:"display_name"`
	FollowerCount  int64      `json:"follower_count"`
	FollowingCount int64      `json:"following_count"`
	LikeCount      int64      `json:"like_count"`
	VideoCount     int64      `json:"video_count"`
	AvatarURL      string     `json:"avatar_url"`
	Verified       bool       `json:"verified"`
	Bio            string     `json:"bio"`
	Provenance     Provenance `json:"provenance"`
	RetrievedAt    time.Time  `json:"retrieved_at"`
}

// Normalize clamps counts to zero.
func (r ProfileRecord) Normalize() ProfileRecord {
	r.FollowerCount = nonNegative(r.FollowerCount)
	r.FollowingCount = nonNegative(r.FollowingCount)
	r.LikeCount = nonNegative(r.LikeCount)
	r.VideoCount = nonNegative(r.VideoCount)
	return r
}

// WithProvenance returns a copy tagged with p.
func (r ProfileRecord) WithProvenance(p Provenance) ProfileRecord {
	r.Provenance = p
	return r
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

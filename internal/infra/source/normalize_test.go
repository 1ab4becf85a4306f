package source

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/vietddude/tikwatch/internal/core/domain"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{float64(12000), 12000},
		{"12000", 12000},
		{"1.2K", 1200},
		{"3m", 3000000},
		{"1,234", 1234},
		{"2.5B", 2500000000},
		{json.Number("77"), 77},
		{-5.0, 0},
		{"abc", 0},
		{nil, 0},
		{true, 0},
	}

	for _, tt := range tests {
		if got := ParseCount(tt.in); got != tt.want {
			t.Errorf("ParseCount(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFlatten_OuterKeysWin(t *testing.T) {
	m := map[string]any{
		"nickname": "outer",
		"data": map[string]any{
			"user":  map[string]any{"nickname": "inner", "signature": "bio"},
			"stats": map[string]any{"followerCount": float64(5)},
		},
	}

	f := Flatten(m)
	if f["nickname"] != "outer" {
		t.Errorf("outer key should win, got %v", f["nickname"])
	}
	if f["signature"] != "bio" || f["followerCount"] != float64(5) {
		t.Errorf("nested keys not merged: %v", f)
	}
}

func TestProfileFromFields(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f := Fields{
		"follower_count": float64(12000),
		"nickname":       "Alice",
		"verified":       true,
		"avatar_larger":  map[string]any{"url_list": []any{"https://img/a.jpg"}},
	}

	rec, found := ProfileFromFields("alice", f, domain.ProvenancePublicAPI, now)

	want := domain.ProfileRecord{
		Handle:        "alice",
		DisplayName:   "Alice",
		FollowerCount: 12000,
		AvatarURL:     "https://img/a.jpg",
		Verified:      true,
		Bio:           DefaultBio,
		Provenance:    domain.ProvenancePublicAPI,
		RetrievedAt:   now,
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("unexpected record (-want +got):\n%s", diff)
	}
	if found != 4 {
		t.Errorf("expected 4 fields found, got %d", found)
	}
}

func TestProfileFromFields_Empty(t *testing.T) {
	rec, found := ProfileFromFields("bob", Fields{"unrelated": 1}, domain.ProvenanceScrape, time.Now())
	if found != 0 {
		t.Errorf("expected nothing found, got %d", found)
	}
	if rec.DisplayName != "bob" || rec.AvatarURL != AvatarFor("bob") {
		t.Errorf("placeholders not applied: %+v", rec)
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		tmpl, want string
	}{
		{"https://api/user/{id}", "https://api/user/alice"},
		{"https://www.tiktok.com/@%s", "https://www.tiktok.com/@alice"},
		{"https://static", "https://static"},
	}
	for _, tt := range tests {
		if got := Expand(tt.tmpl, "alice"); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

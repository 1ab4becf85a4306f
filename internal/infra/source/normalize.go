package source

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

// DefaultBio fills a missing bio.
const DefaultBio = "TikTok user"

// AvatarFor returns the generated avatar used when none was found.
func AvatarFor(handle string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + handle
}

// nestedKeys are unwrapped when flattening an upstream payload.
var nestedKeys = []string{"data", "user", "userInfo", "user_info", "stats", "statsV2", "owner"}

// Fields is a flattened upstream payload.
type Fields map[string]any

// Flatten merges the well-known nested objects of a payload into one level.
// Outer keys win over inner ones.
func Flatten(m map[string]any) Fields {
	out := Fields{}
	queue := []map[string]any{m}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for k, v := range cur {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
		for _, k := range nestedKeys {
			if inner, ok := cur[k].(map[string]any); ok {
				queue = append(queue, inner)
			}
		}
	}
	return out
}

// Count returns the first alias holding a parsable count.
func (f Fields) Count(aliases ...string) (int64, bool) {
	for _, a := range aliases {
		if v, ok := f[a]; ok && v != nil {
			if n, ok := parseCount(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// Text returns the first alias holding a non-empty string.
func (f Fields) Text(aliases ...string) (string, bool) {
	for _, a := range aliases {
		switch v := f[a].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s, true
			}
		case map[string]any:
			// avatar objects: {"url_list": ["..."]}
			if list, ok := v["url_list"].([]any); ok && len(list) > 0 {
				if s, ok := list[0].(string); ok && s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}

// Bool returns the first alias holding a boolean-like value.
func (f Fields) Bool(aliases ...string) (bool, bool) {
	for _, a := range aliases {
		switch v := f[a].(type) {
		case bool:
			return v, true
		case float64:
			return v != 0, true
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

// ParseCount converts upstream counts ("1.2K", "3M", "1,234", 42) to an
// integer. Unparsable or negative input yields 0.
func ParseCount(v any) int64 {
	n, _ := parseCount(v)
	return n
}

func parseCount(v any) (int64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, ok := parseCountString(x)
		if !ok {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || f < 0 {
		return 0, true
	}
	return int64(math.Round(f)), true
}

func parseCountString(s string) (float64, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'K':
		mult = 1e3
	case 'M':
		mult = 1e6
	case 'B':
		mult = 1e9
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * mult, true
}

// ProfileFromFields builds a record from a flattened payload and reports how
// many known fields were present.
func ProfileFromFields(
	handle string,
	f Fields,
	prov domain.Provenance,
	now time.Time,
) (domain.ProfileRecord, int) {
	found := 0
	count := func(aliases ...string) int64 {
		n, ok := f.Count(aliases...)
		if ok {
			found++
		}
		return n
	}
	text := func(fallback string, aliases ...string) string {
		s, ok := f.Text(aliases...)
		if !ok {
			return fallback
		}
		found++
		return s
	}

	rec := domain.ProfileRecord{
		Handle:         handle,
		FollowerCount:  count("followerCount", "follower_count", "followers", "fans"),
		FollowingCount: count("followingCount", "following_count", "following"),
		LikeCount:      count("heartCount", "heart_count", "heart", "total_favorited", "likes"),
		VideoCount:     count("videoCount", "video_count", "aweme_count", "videos"),
		DisplayName:    text(handle, "nickname", "display_name", "displayName", "name"),
		Bio:            text(DefaultBio, "signature", "bio", "description"),
		AvatarURL:      text(AvatarFor(handle), "avatarLarger", "avatar_larger", "avatarMedium", "avatar_medium", "avatar", "avatar_url", "avatarThumb"),
		Provenance:     prov,
		RetrievedAt:    now,
	}
	if v, ok := f.Bool("verified", "is_verified"); ok {
		rec.Verified = v
		found++
	}

	return rec.Normalize(), found
}

// DecodeObject parses a JSON object body.
func DecodeObject(body []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("parse JSON response: not an object")
	}
	return m, nil
}

// Expand substitutes the escaped handle into an endpoint template.
func Expand(template, handle string) string {
	handle = url.PathEscape(handle)
	if strings.Contains(template, "{id}") {
		return strings.ReplaceAll(template, "{id}", handle)
	}
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, handle)
	}
	return template
}

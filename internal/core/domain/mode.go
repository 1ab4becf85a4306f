package domain

import (
	"fmt"
	"strings"
)

// Mode selects the substitution policy of the controller.
type Mode string

const (
	ModeAlternative Mode = "alternative"
	ModeHybrid      Mode = "hybrid"
	ModeStrict      Mode = "strict"
)

// ParseMode accepts the canonical names and the legacy deployment aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alternative", "alt", "synthetic":
		return ModeAlternative, nil
	case "hybrid", "real":
		return ModeHybrid, nil
	case "strict", "real_only", "real-only":
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// DataSource is the hybrid-mode source selector.
type DataSource string

const (
	SourceReal      DataSource = "real"
	SourceSynthetic DataSource = "synthetic"
)

// RequestKind identifies what a resolution was asked for.
type RequestKind string

const (
	KindProfile   RequestKind = "profile"
	KindLiveStats RequestKind = "live_stats"
)

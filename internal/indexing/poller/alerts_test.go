package poller

import (
	"testing"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

func TestDetectAlerts(t *testing.T) {
	th := Thresholds{FollowerGain: 10, LikeMilestone: 1000, ViewerPeakStep: 100}

	tests := []struct {
		name     string
		prev     domain.LiveStatsRecord
		cur      domain.LiveStatsRecord
		peak     int64
		want     []AlertKind
		wantPeak int64
	}{
		{
			name:     "quiet",
			prev:     domain.LiveStatsRecord{Viewers: 100, Likes: 500, NewFollows: 3},
			cur:      domain.LiveStatsRecord{Viewers: 120, Likes: 700, NewFollows: 5},
			peak:     100,
			wantPeak: 100,
		},
		{
			name:     "follower gain",
			prev:     domain.LiveStatsRecord{NewFollows: 3},
			cur:      domain.LiveStatsRecord{NewFollows: 13},
			want:     []AlertKind{AlertFollowerGain},
			wantPeak: 0,
		},
		{
			name:     "like milestone",
			prev:     domain.LiveStatsRecord{Likes: 1900},
			cur:      domain.LiveStatsRecord{Likes: 2100},
			want:     []AlertKind{AlertLikeMilestone},
			wantPeak: 0,
		},
		{
			name:     "viewer peak",
			prev:     domain.LiveStatsRecord{Viewers: 150},
			cur:      domain.LiveStatsRecord{Viewers: 260},
			peak:     150,
			want:     []AlertKind{AlertViewerPeak},
			wantPeak: 260,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, peak := DetectAlerts(tt.prev, tt.cur, tt.peak, th)
			if peak != tt.wantPeak {
				t.Errorf("peak = %d, want %d", peak, tt.wantPeak)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d alerts, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, a := range got {
				if a.Kind != tt.want[i] {
					t.Errorf("alert %d = %s, want %s", i, a.Kind, tt.want[i])
				}
			}
		})
	}
}

func TestDetectAlerts_DisabledThresholds(t *testing.T) {
	got, _ := DetectAlerts(
		domain.LiveStatsRecord{},
		domain.LiveStatsRecord{Viewers: 10_000, Likes: 10_000, NewFollows: 500},
		0,
		Thresholds{},
	)
	if len(got) != 0 {
		t.Errorf("expected no alerts, got %+v", got)
	}
}

package poller

import (
	"fmt"

	"github.com/vietddude/tikwatch/internal/core/domain"
)

// Thresholds configures alert detection. A zero value disables that alert.
type Thresholds struct {
	FollowerGain   int64
	LikeMilestone  int64
	ViewerPeakStep int64
}

type AlertKind string

const (
	AlertFollowerGain  AlertKind = "follower_gain"
	AlertLikeMilestone AlertKind = "like_milestone"
	AlertViewerPeak    AlertKind = "viewer_peak"
)

// Alert is a notable change between two consecutive snapshots.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
	Value   int64     `json:"value"`
}

// DetectAlerts compares two snapshots. peak is the highest viewer count that
// already raised an alert; the returned peak replaces it.
func DetectAlerts(prev, cur domain.LiveStatsRecord, peak int64, th Thresholds) ([]Alert, int64) {
	var alerts []Alert

	if th.FollowerGain > 0 {
		if gain := cur.NewFollows - prev.NewFollows; gain >= th.FollowerGain {
			alerts = append(alerts, Alert{
				Kind:    AlertFollowerGain,
				Message: fmt.Sprintf("+%d new followers", gain),
				Value:   gain,
			})
		}
	}

	if th.LikeMilestone > 0 && cur.Likes/th.LikeMilestone > prev.Likes/th.LikeMilestone {
		milestone := (cur.Likes / th.LikeMilestone) * th.LikeMilestone
		alerts = append(alerts, Alert{
			Kind:    AlertLikeMilestone,
			Message: fmt.Sprintf("passed %d likes", milestone),
			Value:   milestone,
		})
	}

	if th.ViewerPeakStep > 0 && cur.Viewers >= peak+th.ViewerPeakStep {
		peak = cur.Viewers
		alerts = append(alerts, Alert{
			Kind:    AlertViewerPeak,
			Message: fmt.Sprintf("new viewer peak: %d", cur.Viewers),
			Value:   cur.Viewers,
		})
	}

	return alerts, peak
}

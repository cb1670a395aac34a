package viralfinder

import (
	"math"

	"shorts-studio/internal/models"
)

// Score is the view-to-subscriber ratio rounded to two decimals.
// A channel without subscribers scores zero.
func Score(views, subs int64) float64 {
	return round2(ratio(views, subs))
}

func ratio(views, subs int64) float64 {
	if subs <= 0 {
		return 0
	}
	return float64(views) / float64(subs)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Include reports whether a video passes the virality filter. Channels outside
// the subscriber window still qualify when the score clears VeryViralScore.
func Include(score float64, subs int64, th models.Thresholds) bool {
	if score < th.MinScore {
		return false
	}
	inWindow := subs >= th.MinSubs && subs <= th.MaxSubs
	return inWindow || score >= th.VeryViralScore
}

// Qualifies applies Include to the unrounded ratio of v, so a ratio just
// under a threshold is rejected even when its rounded score reaches it.
func Qualifies(v models.ScoredVideo, th models.Thresholds) bool {
	return Include(ratio(v.Stats.Views, v.Stats.Subs), v.Stats.Subs, th)
}

// Scored builds the stored form of a video from its raw counts.
func Scored(item models.CandidateItem, views, subs int64) models.ScoredVideo {
	return models.ScoredVideo{
		VideoID:    item.ID,
		Title:      item.Title,
		Stats:      models.VideoStats{Views: views, Subs: subs},
		ViralScore: Score(views, subs),
	}
}

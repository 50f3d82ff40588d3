package models

import "time"

// VideoCount is one entry of the watch-count table. The table is kept as an
// ordered list so that favorite ties resolve to the first video ever watched.
type VideoCount struct {
	Video string `yaml:"video" json:"video"`
	Count int    `yaml:"count" json:"count"`
}

// CumulativeStats is the persisted usage aggregate. Durations are in
// milliseconds.
type CumulativeStats struct {
	TotalGenerationTime int64        `yaml:"total_generation_time_ms" json:"total_generation_time_ms"`
	TotalVideoTime      int64        `yaml:"total_video_time_ms" json:"total_video_time_ms"`
	SessionsCount       int          `yaml:"sessions_count" json:"sessions_count"`
	FavoriteVideo       string       `yaml:"favorite_video" json:"favorite_video"`
	VideosWatched       []VideoCount `yaml:"videos_watched" json:"videos_watched"`
	LongestSession      int64        `yaml:"longest_session_ms" json:"longest_session_ms"`
	TotalLinesGenerated int          `yaml:"total_lines_generated" json:"total_lines_generated"`
}

// WatchCount returns how many sessions have been opened for video.
func (s CumulativeStats) WatchCount(video string) int {
	for _, vc := range s.VideosWatched {
		if vc.Video == video {
			return vc.Count
		}
	}
	return 0
}

// Clone returns a deep copy safe to hand out to callers.
func (s CumulativeStats) Clone() CumulativeStats {
	cp := s
	if s.VideosWatched != nil {
		cp.VideosWatched = make([]VideoCount, len(s.VideosWatched))
		copy(cp.VideosWatched, s.VideosWatched)
	}
	return cp
}

// SessionSummary describes one closed playback session.
type SessionSummary struct {
	ID             string        `json:"id"`
	Video          string        `json:"video"`
	StartedAt      time.Time     `json:"started_at"`
	EndedAt        time.Time     `json:"ended_at"`
	Duration       time.Duration `json:"duration"`
	LinesGenerated int           `json:"lines_generated"`
}

package cli

import (
	"fmt"
	"strings"
	"time"
)

// ProgressWithETA tracks the progress of one governed run and estimates the
// time remaining from the smoothed rate of progress.
type ProgressWithETA struct {
	progress     float64
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // smoothed progress per second
}

// NewProgressWithETA creates a progress tracker starting now.
func NewProgressWithETA() *ProgressWithETA {
	now := time.Now()
	return &ProgressWithETA{startTime: now, lastUpdate: now}
}

// Progress returns the last recorded value in [0, 1].
func (p *ProgressWithETA) Progress() float64 { return p.progress }

// UpdateWithETA records a new progress value and recomputes the ETA.
// The rate is exponentially smoothed so irregular reports still give a
// stable estimate.
//
// Parameters:
//   - value: The new progress value (0.0 to 1.0).
//
// Returns:
//   - progress: The recorded progress.
//   - eta: The estimated time remaining, or 0 while there is too little data.
func (p *ProgressWithETA) UpdateWithETA(value float64) (progress float64, eta time.Duration) {
	p.progress = min(max(value, 0), 1)
	progress = p.progress

	now := time.Now()
	elapsed := now.Sub(p.startTime)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastUpdate = now
		p.lastProgress = progress
		return progress, 0
	}

	if since := now.Sub(p.lastUpdate).Seconds(); since > 0.05 {
		if delta := progress - p.lastProgress; delta > 0 {
			instant := delta / since
			if p.progressRate > 0 {
				p.progressRate = 0.7*p.progressRate + 0.3*instant
			} else {
				p.progressRate = progress / elapsed.Seconds()
			}
		}
		p.lastUpdate = now
		p.lastProgress = progress
	}
	return progress, p.GetETA()
}

// GetETA returns the time remaining at the current smoothed rate, capped at
// one day.
func (p *ProgressWithETA) GetETA() time.Duration {
	if p.progressRate <= 0 || p.progress >= 1.0 {
		return 0
	}
	eta := time.Duration((1.0 - p.progress) / p.progressRate * float64(time.Second))
	return min(eta, 24*time.Hour)
}

// FormatETA formats a duration into a human-readable ETA string such as
// "< 1s", "2m30s" or "1h15m".
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}
	if eta < time.Minute {
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	}
	if eta < time.Hour {
		minutes := int(eta.Minutes())
		if seconds := int(eta.Seconds()) % 60; seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	hours := int(eta.Hours())
	if minutes := int(eta.Minutes()) % 60; minutes > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}

// progressBar renders progress as a bar of length characters.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// FormatProgressBarWithETA combines the percentage, the bar and the ETA,
// e.g. "45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}

package stats

import (
	"context"
	"time"

	"github.com/pro-xee/editor-dojo/internal/history"
	"github.com/pro-xee/editor-dojo/internal/integrity"
	"github.com/pro-xee/editor-dojo/internal/progress"
)

// ChallengeRow is one per-challenge line of the stats report.
type ChallengeRow struct {
	ChallengeID     string
	BestTimeSecs    *int64
	BestKeystrokes  *int
	AttemptCount    int
	LastAttemptedAt *time.Time
	// Trend is a sparkline of recent completed attempt durations.
	Trend string
	// Verification is the rendered integrity status for the entry.
	Verification string
}

// Report contains precomputed data for stats rendering.
type Report struct {
	TotalAttempts     int
	CompletedAttempts int
	TotalPracticeTime time.Duration
	CurrentStreak     int
	LongestStreak     int
	Challenges        []ChallengeRow
	RecentAttempts    []history.Attempt
}

// ReportConfig narrows the report to a challenge or a recent window.
type ReportConfig struct {
	ChallengeID string
	Since       *time.Time
	Last        int
	// TrendWindow caps how many attempts feed each trend sparkline.
	TrendWindow int
}

// BuildReport loads and prepares data for stats rendering. The signer is
// used to re-check each entry's signature; pass nil to skip verification.
func BuildReport(ctx context.Context, st *history.Store, prog *progress.Progress, signer *integrity.Signer, cfg ReportConfig) (Report, error) {
	attempts, err := st.ListAttempts(ctx, history.Filter{
		ChallengeID: cfg.ChallengeID,
		Since:       cfg.Since,
		Last:        cfg.Last,
	})
	if err != nil {
		return Report{}, err
	}

	report := Report{
		TotalPracticeTime: time.Duration(prog.TotalPracticeSecs) * time.Second,
		CurrentStreak:     prog.CurrentStreak,
		LongestStreak:     prog.LongestStreak,
		RecentAttempts:    attempts,
	}

	durations := map[string][]float64{}
	for _, a := range attempts {
		report.TotalAttempts++
		if a.Completed {
			report.CompletedAttempts++
			durations[a.ChallengeID] = append(durations[a.ChallengeID], float64(a.DurationMs))
		}
	}

	trendWindow := cfg.TrendWindow
	if trendWindow <= 0 {
		trendWindow = 20
	}
	for id, stats := range prog.Challenges {
		if cfg.ChallengeID != "" && id != cfg.ChallengeID {
			continue
		}
		row := ChallengeRow{
			ChallengeID:     id,
			BestTimeSecs:    stats.BestTimeSecs,
			BestKeystrokes:  stats.BestKeystrokes,
			AttemptCount:    stats.AttemptCount,
			LastAttemptedAt: stats.LastAttemptedAt,
			Verification:    verificationLabel(signer, stats),
		}
		if vals := durations[id]; len(vals) > 0 {
			if len(vals) > trendWindow {
				vals = vals[len(vals)-trendWindow:]
			}
			row.Trend = Sparkline(vals)
		}
		report.Challenges = append(report.Challenges, row)
	}
	return report, nil
}

// verificationLabel checks the entry signature only; recording hashes are
// re-checked by the dedicated verify command, not on every stats render.
func verificationLabel(signer *integrity.Signer, stats *progress.ChallengeStats) string {
	if signer == nil {
		return ""
	}
	return progress.Verify(signer, stats, "").String()
}

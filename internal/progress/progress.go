// Package progress tracks per-challenge and aggregate practice statistics.
package progress

import (
	"time"
)

// dateLayout is the calendar-day format used for streak accounting.
const dateLayout = "2006-01-02"

// ChallengeStats aggregates all attempts at a single challenge. The JSON
// field names are a durable contract; integrity fields are optional for
// compatibility with entries written before signing existed.
type ChallengeStats struct {
	ChallengeID      string     `json:"-"`
	Completed        bool       `json:"completed"`
	BestTimeSecs     *int64     `json:"best_time_secs,omitempty"`
	BestKeystrokes   *int       `json:"best_keystrokes,omitempty"`
	FirstCompletedAt *time.Time `json:"first_completed_at,omitempty"`
	LastAttemptedAt  *time.Time `json:"last_attempted_at,omitempty"`
	AttemptCount     int        `json:"attempt_count"`
	RecordingHash    string     `json:"recording_hash,omitempty"`
	Signature        string     `json:"signature,omitempty"`
	SignatureVersion int        `json:"signature_version,omitempty"`
}

// IsNewRecord reports whether an attempt would beat the stored bests. Time
// and keystroke records are independent.
func (s *ChallengeStats) IsNewRecord(elapsed time.Duration, keystrokes *int) (newTime, newKeystrokes bool) {
	secs := int64(elapsed.Seconds())
	newTime = s.BestTimeSecs == nil || secs < *s.BestTimeSecs
	if keystrokes != nil {
		newKeystrokes = s.BestKeystrokes == nil || *keystrokes < *s.BestKeystrokes
	}
	return newTime, newKeystrokes
}

// Progress is the process-wide aggregate and the sole durable
// representation of user history.
type Progress struct {
	EditorPreference  string                     `json:"editor_preference,omitempty"`
	TotalPracticeSecs int64                      `json:"total_practice_time_secs"`
	LastPracticeDate  string                     `json:"last_practice_date,omitempty"`
	CurrentStreak     int                        `json:"current_streak"`
	LongestStreak     int                        `json:"longest_streak"`
	Challenges        map[string]*ChallengeStats `json:"challenges"`
}

// New returns an empty progress aggregate.
func New() *Progress {
	return &Progress{Challenges: map[string]*ChallengeStats{}}
}

// Stats returns the stats entry for a challenge, or nil if never attempted.
func (p *Progress) Stats(challengeID string) *ChallengeStats {
	return p.Challenges[challengeID]
}

// TotalCompleted counts challenges completed at least once.
func (p *Progress) TotalCompleted() int {
	n := 0
	for _, s := range p.Challenges {
		if s.Completed {
			n++
		}
	}
	return n
}

// TotalAttempts sums attempt counts across all challenges.
func (p *Progress) TotalAttempts() int {
	n := 0
	for _, s := range p.Challenges {
		n += s.AttemptCount
	}
	return n
}

// RecordAttempt folds one attempt into the aggregate and returns the
// updated stats entry. Bests only improve, attempt counts always grow.
func (p *Progress) RecordAttempt(challengeID string, completed bool, elapsed time.Duration, keystrokes *int, attemptedAt time.Time) *ChallengeStats {
	if p.Challenges == nil {
		p.Challenges = map[string]*ChallengeStats{}
	}
	stats := p.Challenges[challengeID]
	if stats == nil {
		stats = &ChallengeStats{ChallengeID: challengeID}
		p.Challenges[challengeID] = stats
	}

	at := attemptedAt.UTC().Truncate(time.Second)
	stats.AttemptCount++
	stats.LastAttemptedAt = &at

	if completed {
		stats.Completed = true
		if stats.FirstCompletedAt == nil {
			stats.FirstCompletedAt = &at
		}
		secs := int64(elapsed.Seconds())
		if stats.BestTimeSecs == nil || secs < *stats.BestTimeSecs {
			stats.BestTimeSecs = &secs
		}
		if keystrokes != nil {
			if stats.BestKeystrokes == nil || *keystrokes < *stats.BestKeystrokes {
				ks := *keystrokes
				stats.BestKeystrokes = &ks
			}
		}
	}

	p.TotalPracticeSecs += int64(elapsed.Seconds())
	p.advanceStreak(at)
	return stats
}

// advanceStreak applies the calendar-day streak rule. The practice date is
// moved forward before the streak is finalized so the next attempt never
// reads a stale baseline.
func (p *Progress) advanceStreak(attemptedAt time.Time) {
	date := attemptedAt.UTC().Format(dateLayout)
	switch daysBetween(p.LastPracticeDate, date) {
	case 0:
		if p.CurrentStreak == 0 {
			p.CurrentStreak = 1
		}
	case 1:
		p.CurrentStreak++
	default:
		p.CurrentStreak = 1
	}
	p.LastPracticeDate = date
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
}

// daysBetween returns the whole calendar days from a stored date to the new
// one, or -1 when the stored date is absent or malformed.
func daysBetween(stored, next string) int {
	if stored == "" {
		return -1
	}
	from, err := time.Parse(dateLayout, stored)
	if err != nil {
		return -1
	}
	to, err := time.Parse(dateLayout, next)
	if err != nil {
		return -1
	}
	return int(to.Sub(from).Hours() / 24)
}

// Package cooldown decides whether a user may start a new assessment of a
// given type, based on when they last completed one.
package cooldown

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/civicsprep/backend/internal/models"
)

const defaultCooldownDays = 3

// Gate holds the per-type wait policy. Only the civics test carries a
// cooldown; practice types can be retaken immediately.
type Gate struct {
	periods map[models.AssessmentType]time.Duration
}

func NewGate() *Gate {
	days := defaultCooldownDays
	if v := os.Getenv("COOLDOWN_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			days = n
		}
	}
	return &Gate{
		periods: map[models.AssessmentType]time.Duration{
			models.TypeCivicsTest: time.Duration(days) * 24 * time.Hour,
		},
	}
}

// Period returns the wait for an assessment type, zero when it has none.
func (g *Gate) Period(assessmentType models.AssessmentType) time.Duration {
	return g.periods[assessmentType]
}

// Status reports whether the user is inside the cooldown window. lastReview
// is the user's most recent completed review of this type, nil when they
// have never finished one.
func (g *Gate) Status(assessmentType models.AssessmentType, lastReview *models.ReviewRecord, now time.Time) models.CooldownResponse {
	period := g.periods[assessmentType]
	if period == 0 || lastReview == nil {
		return models.CooldownResponse{InCooldown: false}
	}

	expires := lastReview.CompletedAt.Add(period)
	if !now.Before(expires) {
		return models.CooldownResponse{InCooldown: false, LastScore: &lastReview.Score}
	}

	remaining := expires.Sub(now)
	days := int(remaining / (24 * time.Hour))
	hours := int((remaining % (24 * time.Hour)) / time.Hour)
	return models.CooldownResponse{
		InCooldown:     true,
		DaysRemaining:  days,
		HoursRemaining: hours,
		Remaining:      FormatRemaining(remaining),
		LastScore:      &lastReview.Score,
	}
}

// FormatRemaining renders a duration as "2d 3h". Sub-hour remainders show
// as "1h" minimum so the message never reads as zero wait.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "0h"
	}
	days := int(d / (24 * time.Hour))
	hours := int((d % (24 * time.Hour)) / time.Hour)
	if days == 0 && hours == 0 {
		hours = 1
	}
	if days == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}

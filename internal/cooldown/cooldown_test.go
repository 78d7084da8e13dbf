package cooldown

import (
	"testing"
	"time"

	"github.com/civicsprep/backend/internal/models"
)

func gateWithDays(days int) *Gate {
	return &Gate{
		periods: map[models.AssessmentType]time.Duration{
			models.TypeCivicsTest: time.Duration(days) * 24 * time.Hour,
		},
	}
}

func TestNoReviewNoCooldown(t *testing.T) {
	g := gateWithDays(3)
	status := g.Status(models.TypeCivicsTest, nil, time.Now())
	if status.InCooldown {
		t.Error("expected no cooldown for a user with no completed reviews")
	}
}

func TestPracticeTypesSkipCooldown(t *testing.T) {
	g := gateWithDays(3)
	rec := &models.ReviewRecord{
		AssessmentType: models.TypeSkillAssessment,
		Score:          80,
		CompletedAt:    time.Now(),
	}
	status := g.Status(models.TypeSkillAssessment, rec, time.Now())
	if status.InCooldown {
		t.Error("skill assessments should never be gated")
	}
}

func TestInsideCooldownWindow(t *testing.T) {
	g := gateWithDays(3)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := &models.ReviewRecord{
		AssessmentType: models.TypeCivicsTest,
		Score:          67,
		CompletedAt:    now.Add(-(21*time.Hour + 30*time.Minute)),
	}

	status := g.Status(models.TypeCivicsTest, rec, now)
	if !status.InCooldown {
		t.Fatal("expected cooldown to be active")
	}
	// 72h - 21.5h = 50.5h remaining = 2 days, 2 hours.
	if status.DaysRemaining != 2 || status.HoursRemaining != 2 {
		t.Errorf("remaining = %dd %dh, want 2d 2h", status.DaysRemaining, status.HoursRemaining)
	}
	if status.Remaining != "2d 2h" {
		t.Errorf("formatted remaining = %q, want %q", status.Remaining, "2d 2h")
	}
	if status.LastScore == nil || *status.LastScore != 67 {
		t.Errorf("last score = %v, want 67", status.LastScore)
	}
}

func TestCooldownExpires(t *testing.T) {
	g := gateWithDays(3)
	now := time.Now()
	rec := &models.ReviewRecord{
		AssessmentType: models.TypeCivicsTest,
		Score:          90,
		CompletedAt:    now.Add(-73 * time.Hour),
	}
	status := g.Status(models.TypeCivicsTest, rec, now)
	if status.InCooldown {
		t.Error("cooldown should have expired at 73 hours")
	}
	if status.LastScore == nil || *status.LastScore != 90 {
		t.Errorf("last score = %v, want 90 even when cooldown is over", status.LastScore)
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2*24*time.Hour + 3*time.Hour, "2d 3h"},
		{5 * time.Hour, "5h"},
		{30 * time.Minute, "1h"},
		{0, "0h"},
		{-time.Hour, "0h"},
		{24 * time.Hour, "1d 0h"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

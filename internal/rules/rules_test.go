package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
)

func timePtr(t time.Time) *time.Time { return &t }
func intPtr(v int) *int              { return &v }
func int64Ptr(v int64) *int64        { return &v }

func TestCompletionConsistency(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name        string
		status      string
		completedAt *time.Time
		wantOK      bool
	}{
		{"completed with timestamp", "completed", timePtr(now), true},
		{"scheduled without timestamp", "scheduled", nil, true},
		{"completed without timestamp", "completed", nil, false},
		{"scheduled with timestamp", "scheduled", timePtr(now), false},
		{"cancelled with timestamp", "cancelled", timePtr(now), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := CompletionConsistency(tt.status, tt.completedAt)
			if tt.wantOK {
				assert.Nil(t, v)
			} else {
				assert.NotNil(t, v)
				assert.Equal(t, "completed_at", v.Field)
				assert.Equal(t, errors.CodeCompletionMismatch, v.Code)
			}
		})
	}
}

func TestRejectionConsistency(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name       string
		status     string
		rejectedAt *time.Time
		wantOK     bool
	}{
		{"rejected with timestamp", "rejected", timePtr(now), true},
		{"applied without timestamp", "applied", nil, true},
		{"rejected without timestamp", "rejected", nil, false},
		{"offer with timestamp", "offer", timePtr(now), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := RejectionConsistency(tt.status, tt.rejectedAt)
			if tt.wantOK {
				assert.Nil(t, v)
			} else {
				assert.NotNil(t, v)
				assert.Equal(t, "rejected_at", v.Field)
			}
		})
	}
}

func TestDecisionRequiresCompletion(t *testing.T) {
	assert.Nil(t, DecisionRequiresCompletion("completed", "strong_yes"))
	assert.Nil(t, DecisionRequiresCompletion("scheduled", ""))
	assert.Nil(t, DecisionRequiresCompletion("completed", ""))

	v := DecisionRequiresCompletion("confirmed", "yes")
	assert.NotNil(t, v)
	assert.Equal(t, "decision", v.Field)
	assert.Equal(t, errors.CodeDecisionIncomplete, v.Code)
}

func TestLocationRequiredForOnsite(t *testing.T) {
	assert.Nil(t, LocationRequiredForOnsite("onsite", "Room A"))
	assert.Nil(t, LocationRequiredForOnsite("phone", ""))
	assert.Nil(t, LocationRequiredForOnsite("video", ""))

	v := LocationRequiredForOnsite("onsite", "")
	assert.NotNil(t, v)
	assert.Equal(t, "location", v.Field)

	// Whitespace-only does not count as a location.
	assert.NotNil(t, LocationRequiredForOnsite("onsite", "   "))
}

func TestVideoLinkRequiredForVideo(t *testing.T) {
	assert.Nil(t, VideoLinkRequiredForVideo("video", "https://zoom.us/j/123"))
	assert.Nil(t, VideoLinkRequiredForVideo("onsite", ""))

	v := VideoLinkRequiredForVideo("video", "")
	assert.NotNil(t, v)
	assert.Equal(t, "video_link", v.Field)
}

func TestScheduledAtNotInPast(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, ScheduledAtNotInPast(now.Add(time.Hour), now))
	assert.NotNil(t, ScheduledAtNotInPast(now.Add(-time.Hour), now))
	// Exactly now is not in the future.
	assert.NotNil(t, ScheduledAtNotInPast(now, now))
}

func TestAppliedAtNotInFuture(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Nil(t, AppliedAtNotInFuture(now.Add(-24*time.Hour), now))
	assert.Nil(t, AppliedAtNotInFuture(now, now))

	v := AppliedAtNotInFuture(now.Add(time.Minute), now)
	assert.NotNil(t, v)
	assert.Equal(t, errors.CodeAppliedInFuture, v.Code)
}

func TestDurationInRange(t *testing.T) {
	tests := []struct {
		minutes int
		wantOK  bool
	}{
		{0, false},
		{1, true},
		{60, true},
		{480, true},
		{481, false},
		{-30, false},
	}

	for _, tt := range tests {
		v := DurationInRange(tt.minutes)
		if tt.wantOK {
			assert.Nil(t, v, "minutes=%d", tt.minutes)
		} else {
			assert.NotNil(t, v, "minutes=%d", tt.minutes)
		}
	}
}

func TestRatingInRange(t *testing.T) {
	assert.Nil(t, RatingInRange(nil))
	assert.Nil(t, RatingInRange(intPtr(1)))
	assert.Nil(t, RatingInRange(intPtr(5)))
	assert.NotNil(t, RatingInRange(intPtr(0)))
	assert.NotNil(t, RatingInRange(intPtr(6)))
}

func TestSalaryNonNegative(t *testing.T) {
	assert.Nil(t, SalaryNonNegative(nil))
	assert.Nil(t, SalaryNonNegative(int64Ptr(0)))
	assert.Nil(t, SalaryNonNegative(int64Ptr(12000000)))
	assert.NotNil(t, SalaryNonNegative(int64Ptr(-1)))
}

func TestNormalizeVideoLink(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare host", "zoom.us/j/123", "https://zoom.us/j/123"},
		{"https kept", "https://zoom.us/j/123", "https://zoom.us/j/123"},
		{"http kept", "http://meet.example.com/x", "http://meet.example.com/x"},
		{"trimmed then prefixed", "  meet.google.com/abc  ", "https://meet.google.com/abc"},
		{"empty stays empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVideoLink(tt.in))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Room A", NormalizeText("  Room A "))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			"same instant",
			time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
			0,
		},
		{
			"same day different hours",
			time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
			0,
		},
		{
			"calendar days not elapsed hours",
			time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC),
			time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC),
			1,
		},
		{
			"two weeks",
			time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC),
			14,
		},
		{
			"reversed order is negative",
			time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			-2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{"scheduled", StatusScheduled, false},
		{"confirmed", StatusConfirmed, false},
		{"completed", StatusCompleted, false},
		{"cancelled", StatusCancelled, false},
		{"no_show", StatusNoShow, false},
		{"pending", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInterviewType(t *testing.T) {
	for _, raw := range []string{"phone", "video", "onsite", "technical", "behavioral", "panel"} {
		got, err := ParseInterviewType(raw)
		assert.NoError(t, err)
		assert.Equal(t, InterviewType(raw), got)
	}

	_, err := ParseInterviewType("in_person")
	assert.Error(t, err)
}

func TestParseDecision(t *testing.T) {
	got, err := ParseDecision("")
	assert.NoError(t, err)
	assert.Equal(t, Decision(""), got)

	got, err = ParseDecision("strong_yes")
	assert.NoError(t, err)
	assert.Equal(t, DecisionStrongYes, got)

	_, err = ParseDecision("hire")
	assert.Error(t, err)
}

func TestDefaultDuration(t *testing.T) {
	tests := []struct {
		interviewType InterviewType
		want          int
	}{
		{TypePhone, 30},
		{TypeVideo, 45},
		{TypeTechnical, 90},
		{TypePanel, 90},
		{TypeBehavioral, 60},
		{TypeOnsite, 60},
	}

	for _, tt := range tests {
		t.Run(string(tt.interviewType), func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultDuration(tt.interviewType))
		})
	}

	assert.Equal(t, 60, DefaultDuration(InterviewType("unknown")))
}

func TestStatusTerminalAndOpen(t *testing.T) {
	assert.True(t, StatusScheduled.Open())
	assert.True(t, StatusConfirmed.Open())
	assert.False(t, StatusCompleted.Open())

	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.True(t, s.Terminal(), "status %s", s)
		assert.False(t, s.Open(), "status %s", s)
	}
}

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"confirm", StatusScheduled, StatusConfirmed, true},
		{"complete from scheduled", StatusScheduled, StatusCompleted, true},
		{"complete from confirmed", StatusConfirmed, StatusCompleted, true},
		{"reschedule keeps scheduled", StatusScheduled, StatusScheduled, true},
		{"reschedule from confirmed", StatusConfirmed, StatusScheduled, true},
		{"cancel from confirmed", StatusConfirmed, StatusCancelled, true},
		{"no transition out of completed", StatusCompleted, StatusScheduled, false},
		{"no transition out of cancelled", StatusCancelled, StatusScheduled, false},
		{"no transition out of no_show", StatusNoShow, StatusConfirmed, false},
		{"no double confirm", StatusConfirmed, StatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestDecisionClassification(t *testing.T) {
	assert.True(t, DecisionStrongYes.Positive())
	assert.True(t, DecisionYes.Positive())
	assert.False(t, DecisionMaybe.Positive())
	assert.False(t, DecisionMaybe.Negative())
	assert.True(t, DecisionNo.Negative())
	assert.True(t, DecisionStrongNo.Negative())
	assert.False(t, Decision("").Positive())
	assert.False(t, Decision("").Negative())
}

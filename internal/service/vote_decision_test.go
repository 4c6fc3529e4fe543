package service

import (
	"testing"

	"foros/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestParseDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"up", 1, true},
		{"down", -1, true},
		{"  UP ", 1, true},
		{"Down", -1, true},
		{"sideways", 0, false},
		{"", 0, false},
		{"+1", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if !tt.ok {
			require.Error(t, err, tt.in)
			assert.True(t, models.HasCode(err, models.CodeValidation))
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDecideVote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing *int
		unit     int
		want     VoteDecision
	}{
		{"first upvote", nil, 1, VoteDecision{Action: models.VoteActionCreate, Delta: 1, NewValue: 1}},
		{"first downvote", nil, -1, VoteDecision{Action: models.VoteActionCreate, Delta: -1, NewValue: -1}},
		{"repeat upvote toggles off", intPtr(1), 1, VoteDecision{Action: models.VoteActionToggleOff, Delta: -1}},
		{"repeat downvote toggles off", intPtr(-1), -1, VoteDecision{Action: models.VoteActionToggleOff, Delta: 1}},
		{"up to down flips", intPtr(1), -1, VoteDecision{Action: models.VoteActionFlip, Delta: -2, NewValue: -1}},
		{"down to up flips", intPtr(-1), 1, VoteDecision{Action: models.VoteActionFlip, Delta: 2, NewValue: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideVote(tt.existing, tt.unit))
		})
	}
}

func TestDecideVote_ToggleLawRestoresCounter(t *testing.T) {
	t.Parallel()

	for _, unit := range []int{1, -1} {
		first := DecideVote(nil, unit)
		second := DecideVote(&first.NewValue, unit)
		assert.Zero(t, first.Delta+second.Delta)
		assert.Equal(t, models.VoteActionToggleOff, second.Action)
	}
}

package service

import (
	"strings"

	"foros/internal/models"
)

// Vote directions accepted by the API.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// VoteDecision is the ledger change and counter delta for one vote request.
type VoteDecision struct {
	Action models.VoteAction
	Delta  int
	// NewValue is the ledger value after the change; zero for toggle-off.
	NewValue int
}

// ParseDirection maps "up"/"down" (any case, surrounding space ignored) to +1/-1.
func ParseDirection(direction string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case DirectionUp:
		return models.VoteUp, nil
	case DirectionDown:
		return models.VoteDown, nil
	default:
		return 0, models.NewValidationError("direction must be 'up' or 'down'")
	}
}

// DecideVote resolves the voter's existing ledger value (nil when none) and the
// requested unit into an action. Re-submitting the same direction removes the
// vote; the opposite direction flips it.
func DecideVote(existing *int, unit int) VoteDecision {
	switch {
	case existing == nil:
		return VoteDecision{Action: models.VoteActionCreate, Delta: unit, NewValue: unit}
	case *existing == unit:
		return VoteDecision{Action: models.VoteActionToggleOff, Delta: -*existing}
	default:
		return VoteDecision{Action: models.VoteActionFlip, Delta: unit - *existing, NewValue: unit}
	}
}

package models

import "time"

// Signed unit values stored in Vote.Value.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Vote is one voter's ledger entry on a hilo. At most one row exists per
// (UserID, HiloID) pair.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_hilo" json:"userId"`
	HiloID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_hilo;index" json:"hiloId"`
	Hilo      *Hilo     `gorm:"foreignKey:HiloID;constraint:OnDelete:CASCADE" json:"-"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VoteAction names the ledger change a vote request resolves to.
type VoteAction string

const (
	// VoteActionCreate inserts the voter's first vote on the hilo.
	VoteActionCreate VoteAction = "create"
	// VoteActionToggleOff deletes a vote re-submitted in the same direction.
	VoteActionToggleOff VoteAction = "toggle_off"
	// VoteActionFlip reverses the sign of an existing vote.
	VoteActionFlip VoteAction = "flip"
)

// VoteResult is the body returned by the vote endpoint.
type VoteResult struct {
	NewVoteCount int `json:"newVoteCount"`
}

package repository

import (
	"context"
	"fmt"
	"time"

	"foros/internal/models"
	"foros/internal/observability"

	"gorm.io/gorm"
)

// HiloTally is the counter state a vote attempt reads before deciding.
type HiloTally struct {
	HiloID    uint
	AuthorID  uint
	VoteCount int
	Version   uint
}

// VoteMutation is one attempt's write set: the counter compare-and-swap plus
// the ledger change, both conditioned on what the attempt read.
type VoteMutation struct {
	HiloID      uint
	UserID      uint
	ReadVersion uint
	NewCount    int
	Action      models.VoteAction
	// VoteID and ReadValue identify the existing row for toggle-off and flip.
	VoteID    uint
	ReadValue int
	// NewValue is the stored value for create and flip.
	NewValue int
}

// VoteRepository persists the votes ledger and the hilo counter it feeds.
type VoteRepository interface {
	GetTally(ctx context.Context, hiloID uint) (*HiloTally, error)
	GetVote(ctx context.Context, userID, hiloID uint) (*models.Vote, error)
	GetUserVotes(ctx context.Context, userID uint, hiloIDs []uint) (map[uint]int, error)
	ApplyVote(ctx context.Context, m VoteMutation) error
	LedgerSum(ctx context.Context, hiloID uint) (int, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) GetTally(ctx context.Context, hiloID uint) (*HiloTally, error) {
	defer observability.TrackQuery("select", "hilos")()

	var hilo models.Hilo
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "vote_count", "version").
		Where("id = ?", hiloID).
		Take(&hilo).Error
	if err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Hilo", hiloID)
		}
		return nil, fmt.Errorf("read hilo tally: %w", err)
	}
	return &HiloTally{
		HiloID:    hilo.ID,
		AuthorID:  hilo.UserID,
		VoteCount: hilo.VoteCount,
		Version:   hilo.Version,
	}, nil
}

// GetVote returns the voter's ledger row, or nil when they have not voted.
func (r *voteRepository) GetVote(ctx context.Context, userID, hiloID uint) (*models.Vote, error) {
	defer observability.TrackQuery("select", "votes")()

	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND hilo_id = ?", userID, hiloID).
		Take(&vote).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read vote: %w", err)
	}
	return &vote, nil
}

// GetUserVotes maps hilo ID to the user's vote value for the given hilos.
func (r *voteRepository) GetUserVotes(ctx context.Context, userID uint, hiloIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(hiloIDs))
	if userID == 0 || len(hiloIDs) == 0 {
		return out, nil
	}

	var votes []models.Vote
	if err := r.db.WithContext(ctx).
		Select("hilo_id", "value").
		Where("user_id = ? AND hilo_id IN ?", userID, hiloIDs).
		Find(&votes).Error; err != nil {
		return nil, fmt.Errorf("read user votes: %w", err)
	}
	for _, v := range votes {
		out[v.HiloID] = v.Value
	}
	return out, nil
}

// ApplyVote commits the counter CAS and the ledger change in one
// transaction. It returns ErrConcurrencyConflict when either write no longer
// matches the state the caller read.
func (r *voteRepository) ApplyVote(ctx context.Context, m VoteMutation) error {
	defer observability.TrackQuery("apply_vote", "hilos")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Hilo{}).
			Where("id = ? AND version = ?", m.HiloID, m.ReadVersion).
			UpdateColumns(map[string]interface{}{
				"vote_count": m.NewCount,
				"version":    gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("update hilo counter: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConcurrencyConflict
		}

		switch m.Action {
		case models.VoteActionCreate:
			vote := models.Vote{UserID: m.UserID, HiloID: m.HiloID, Value: m.NewValue}
			if err := tx.Create(&vote).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrConcurrencyConflict
				}
				return fmt.Errorf("insert vote: %w", err)
			}
			return nil

		case models.VoteActionToggleOff:
			res := tx.Where("id = ? AND value = ?", m.VoteID, m.ReadValue).Delete(&models.Vote{})
			if res.Error != nil {
				return fmt.Errorf("delete vote: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrConcurrencyConflict
			}
			return nil

		case models.VoteActionFlip:
			res := tx.Model(&models.Vote{}).
				Where("id = ? AND value = ?", m.VoteID, m.ReadValue).
				UpdateColumns(map[string]interface{}{
					"value":      m.NewValue,
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return fmt.Errorf("update vote: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrConcurrencyConflict
			}
			return nil

		default:
			return fmt.Errorf("unknown vote action %q", m.Action)
		}
	})
}

// LedgerSum recomputes the counter from the ledger.
func (r *voteRepository) LedgerSum(ctx context.Context, hiloID uint) (int, error) {
	var sum int
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("hilo_id = ?", hiloID).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum votes: %w", err)
	}
	return sum, nil
}

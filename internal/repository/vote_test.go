package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"foros/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func hiloState(t *testing.T, db *gorm.DB, id uint) (int, uint) {
	t.Helper()
	var h models.Hilo
	require.NoError(t, db.Select("vote_count", "version").First(&h, id).Error)
	return h.VoteCount, h.Version
}

func TestVoteRepository_GetTally(t *testing.T) {
	db := setupSQLiteDB(t)
	fx := seedFixture(t, db)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	tally, err := repo.GetTally(ctx, fx.hilo.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.hilo.ID, tally.HiloID)
	assert.Equal(t, fx.author.ID, tally.AuthorID)
	assert.Equal(t, 0, tally.VoteCount)
	assert.Equal(t, uint(0), tally.Version)

	_, err = repo.GetTally(ctx, 9999)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestVoteRepository_ApplyVoteLifecycle(t *testing.T) {
	db := setupSQLiteDB(t)
	fx := seedFixture(t, db)
	voter := createUser(t, db, "votante")
	repo := NewVoteRepository(db)
	ctx := context.Background()

	none, err := repo.GetVote(ctx, voter.ID, fx.hilo.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	// create +1
	require.NoError(t, repo.ApplyVote(ctx, VoteMutation{
		HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 0, NewCount: 1,
		Action: models.VoteActionCreate, NewValue: models.VoteUp,
	}))
	count, version := hiloState(t, db, fx.hilo.ID)
	assert.Equal(t, 1, count)
	assert.Equal(t, uint(1), version)

	vote, err := repo.GetVote(ctx, voter.ID, fx.hilo.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, models.VoteUp, vote.Value)

	// flip to -1
	require.NoError(t, repo.ApplyVote(ctx, VoteMutation{
		HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 1, NewCount: -1,
		Action: models.VoteActionFlip, VoteID: vote.ID, ReadValue: models.VoteUp, NewValue: models.VoteDown,
	}))
	count, version = hiloState(t, db, fx.hilo.ID)
	assert.Equal(t, -1, count)
	assert.Equal(t, uint(2), version)

	votes, err := repo.GetUserVotes(ctx, voter.ID, []uint{fx.hilo.ID, 12345})
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{fx.hilo.ID: models.VoteDown}, votes)

	// toggle off
	require.NoError(t, repo.ApplyVote(ctx, VoteMutation{
		HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 2, NewCount: 0,
		Action: models.VoteActionToggleOff, VoteID: vote.ID, ReadValue: models.VoteDown,
	}))
	count, version = hiloState(t, db, fx.hilo.ID)
	assert.Equal(t, 0, count)
	assert.Equal(t, uint(3), version)

	gone, err := repo.GetVote(ctx, voter.ID, fx.hilo.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	sum, err := repo.LedgerSum(ctx, fx.hilo.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
}

func TestVoteRepository_ApplyVoteConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("stale version writes nothing", func(t *testing.T) {
		db := setupSQLiteDB(t)
		fx := seedFixture(t, db)
		voter := createUser(t, db, "tarde")
		repo := NewVoteRepository(db)
		require.NoError(t, db.Model(&models.Hilo{}).Where("id = ?", fx.hilo.ID).
			UpdateColumns(map[string]interface{}{"vote_count": 5, "version": 6}).Error)

		err := repo.ApplyVote(ctx, VoteMutation{
			HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 5, NewCount: 6,
			Action: models.VoteActionCreate, NewValue: models.VoteUp,
		})
		assert.ErrorIs(t, err, ErrConcurrencyConflict)

		count, version := hiloState(t, db, fx.hilo.ID)
		assert.Equal(t, 5, count)
		assert.Equal(t, uint(6), version)
		vote, err := repo.GetVote(ctx, voter.ID, fx.hilo.ID)
		require.NoError(t, err)
		assert.Nil(t, vote)
	})

	t.Run("duplicate insert rolls back the counter", func(t *testing.T) {
		db := setupSQLiteDB(t)
		fx := seedFixture(t, db)
		voter := createUser(t, db, "doble")
		repo := NewVoteRepository(db)

		require.NoError(t, repo.ApplyVote(ctx, VoteMutation{
			HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 0, NewCount: 1,
			Action: models.VoteActionCreate, NewValue: models.VoteUp,
		}))

		// a second request that read "no vote" at version 1
		err := repo.ApplyVote(ctx, VoteMutation{
			HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 1, NewCount: 2,
			Action: models.VoteActionCreate, NewValue: models.VoteUp,
		})
		assert.ErrorIs(t, err, ErrConcurrencyConflict)

		count, version := hiloState(t, db, fx.hilo.ID)
		assert.Equal(t, 1, count)
		assert.Equal(t, uint(1), version)
	})

	t.Run("ledger row changed since read", func(t *testing.T) {
		db := setupSQLiteDB(t)
		fx := seedFixture(t, db)
		voter := createUser(t, db, "cambiante")
		repo := NewVoteRepository(db)

		require.NoError(t, repo.ApplyVote(ctx, VoteMutation{
			HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 0, NewCount: -1,
			Action: models.VoteActionCreate, NewValue: models.VoteDown,
		}))
		vote, err := repo.GetVote(ctx, voter.ID, fx.hilo.ID)
		require.NoError(t, err)

		// version matches but the attempt believed the row held +1
		err = repo.ApplyVote(ctx, VoteMutation{
			HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 1, NewCount: -2,
			Action: models.VoteActionToggleOff, VoteID: vote.ID, ReadValue: models.VoteUp,
		})
		assert.ErrorIs(t, err, ErrConcurrencyConflict)

		err = repo.ApplyVote(ctx, VoteMutation{
			HiloID: fx.hilo.ID, UserID: voter.ID, ReadVersion: 1, NewCount: 1,
			Action: models.VoteActionFlip, VoteID: vote.ID, ReadValue: models.VoteUp, NewValue: models.VoteDown,
		})
		assert.ErrorIs(t, err, ErrConcurrencyConflict)

		count, version := hiloState(t, db, fx.hilo.ID)
		assert.Equal(t, -1, count)
		assert.Equal(t, uint(1), version)
		sum, err := repo.LedgerSum(ctx, fx.hilo.ID)
		require.NoError(t, err)
		assert.Equal(t, count, sum)
	})
}

func TestVoteRepository_ApplyVoteSQL(t *testing.T) {
	ctx := context.Background()
	mutation := VoteMutation{
		HiloID: 7, UserID: 3, ReadVersion: 4, NewCount: 10,
		Action: models.VoteActionCreate, NewValue: models.VoteUp,
	}

	t.Run("zero rows on counter update", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewVoteRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "hilos" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.ApplyVote(ctx, mutation)
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation on insert", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewVoteRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "hilos" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "votes"`)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_votes_user_hilo"})
		mock.ExpectRollback()

		err := repo.ApplyVote(ctx, mutation)
		assert.ErrorIs(t, err, ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("infrastructure error propagates", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewVoteRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "hilos" SET`)).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := repo.ApplyVote(ctx, mutation)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConcurrencyConflict)
		assert.Contains(t, err.Error(), "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewVoteRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "hilos" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "votes"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		assert.NoError(t, repo.ApplyVote(ctx, mutation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("UNIQUE constraint failed: votes.user_id, votes.hilo_id")))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
}

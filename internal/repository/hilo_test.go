package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"foros/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHiloRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewHiloRepository(db)

	hilo := &models.Hilo{ForoID: 1, UserID: 2, Title: "Hola", Content: "Mundo", VoteCount: 40, Version: 9}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "hilos"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), hilo))
	assert.Equal(t, 0, hilo.VoteCount)
	assert.Equal(t, uint(0), hilo.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHiloRepository_ListByForoSorts(t *testing.T) {
	db := setupSQLiteDB(t)
	fx := seedFixture(t, db)
	repo := NewHiloRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	old := createHilo(t, db, fx.foro.ID, fx.author.ID, "viejo popular", 10, base)
	recent := createHilo(t, db, fx.foro.ID, fx.author.ID, "reciente", -2, base.Add(2*time.Hour))

	byNew, err := repo.ListByForo(ctx, fx.foro.ID, 10, 0, SortNew, 0)
	require.NoError(t, err)
	require.Len(t, byNew, 3)
	assert.Equal(t, recent.ID, byNew[0].ID)
	assert.Equal(t, old.ID, byNew[2].ID)

	byTop, err := repo.ListByForo(ctx, fx.foro.ID, 10, 0, SortTop, 0)
	require.NoError(t, err)
	require.Len(t, byTop, 3)
	assert.Equal(t, old.ID, byTop[0].ID)
	assert.Equal(t, recent.ID, byTop[2].ID)
	assert.Equal(t, fx.author.Username, byTop[0].User.Username)

	page, err := repo.ListByForo(ctx, fx.foro.ID, 1, 1, SortTop, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, fx.hilo.ID, page[0].ID)
}

func TestHiloRepository_GetByIDViewerFields(t *testing.T) {
	db := setupSQLiteDB(t)
	fx := seedFixture(t, db)
	viewer := createUser(t, db, "lectora")
	repo := NewHiloRepository(db)
	votes := NewVoteRepository(db)
	ctx := context.Background()

	require.NoError(t, votes.ApplyVote(ctx, VoteMutation{
		HiloID: fx.hilo.ID, UserID: viewer.ID, NewCount: -1,
		Action: models.VoteActionCreate, NewValue: models.VoteDown,
	}))
	require.NoError(t, db.Create(&models.Comentario{HiloID: fx.hilo.ID, UserID: viewer.ID, Content: "uno"}).Error)

	anon, err := repo.GetByID(ctx, fx.hilo.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, -1, anon.VoteCount)
	assert.Equal(t, 0, anon.MyVote)
	assert.Equal(t, 1, anon.CommentsCount)

	mine, err := repo.GetByID(ctx, fx.hilo.ID, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VoteDown, mine.MyVote)

	_, err = repo.GetByID(ctx, 4242, viewer.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestHiloRepository_UpdateContentLeavesCounter(t *testing.T) {
	db := setupSQLiteDB(t)
	fx := seedFixture(t, db)
	repo := NewHiloRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Model(&models.Hilo{}).Where("id = ?", fx.hilo.ID).
		UpdateColumns(map[string]interface{}{"vote_count": 3, "version": 4}).Error)

	// stale counter fields on the struct must not be written back
	edit := &models.Hilo{ID: fx.hilo.ID, Title: "Editado", Content: "nuevo", VoteCount: 0, Version: 0}
	require.NoError(t, repo.UpdateContent(ctx, edit))

	var got models.Hilo
	require.NoError(t, db.First(&got, fx.hilo.ID).Error)
	assert.Equal(t, "Editado", got.Title)
	assert.Equal(t, 3, got.VoteCount)
	assert.Equal(t, uint(4), got.Version)

	err := repo.UpdateContent(ctx, &models.Hilo{ID: 999, Title: "x"})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestHiloRepository_DeleteCascades(t *testing.T) {
	db := setupSQLiteDB(t)
	fx := seedFixture(t, db)
	voter := createUser(t, db, "borrada")
	repo := NewHiloRepository(db)
	ctx := context.Background()

	require.NoError(t, NewVoteRepository(db).ApplyVote(ctx, VoteMutation{
		HiloID: fx.hilo.ID, UserID: voter.ID, NewCount: 1,
		Action: models.VoteActionCreate, NewValue: models.VoteUp,
	}))
	parent := &models.Comentario{HiloID: fx.hilo.ID, UserID: voter.ID, Content: "padre"}
	require.NoError(t, db.Create(parent).Error)
	require.NoError(t, db.Create(&models.Comentario{HiloID: fx.hilo.ID, UserID: voter.ID, ParentID: &parent.ID, Content: "hijo"}).Error)
	require.NoError(t, db.Create(&models.Notificacion{UserID: fx.author.ID, Type: models.NotificacionComment, HiloID: &fx.hilo.ID, Message: "m"}).Error)

	require.NoError(t, repo.Delete(ctx, fx.hilo.ID))

	for _, model := range []interface{}{&models.Hilo{}, &models.Vote{}, &models.Comentario{}, &models.Notificacion{}} {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T rows left", model)
	}

	err := repo.Delete(ctx, fx.hilo.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

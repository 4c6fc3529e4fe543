package repository

import (
	"context"
	"testing"

	"foros/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificacionRepository(t *testing.T) {
	db := setupSQLiteDB(t)
	owner := createUser(t, db, "destinataria")
	other := createUser(t, db, "otra")
	repo := NewNotificacionRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notificacion{
			UserID: owner.ID, ActorID: &other.ID, Type: models.NotificacionComment, Message: "nuevo comentario",
		}))
	}

	all, err := repo.ListForUser(ctx, owner.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[2].ID)

	// not theirs
	assert.True(t, models.HasCode(repo.MarkRead(ctx, all[0].ID, other.ID), models.CodeNotFound))
	require.NoError(t, repo.MarkRead(ctx, all[0].ID, owner.ID))

	unread, err := repo.ListForUser(ctx, owner.ID, true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	n, err := repo.CountUnread(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	changed, err := repo.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	unread, err = repo.ListForUser(ctx, owner.ID, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

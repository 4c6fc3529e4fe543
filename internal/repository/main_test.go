package repository

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"foros/internal/cache"
	"foros/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return gormDB, mock
}

var sqliteSeq atomic.Int64

// setupSQLiteDB opens a private in-memory database with the full schema.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%d?mode=memory&cache=shared", sqliteSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Foro{},
		&models.Hilo{},
		&models.Vote{},
		&models.Comentario{},
		&models.Notificacion{},
	))
	return db
}

type fixture struct {
	author *models.User
	foro   *models.Foro
	hilo   *models.Hilo
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createHilo(t *testing.T, db *gorm.DB, foroID, userID uint, title string, voteCount int, createdAt time.Time) *models.Hilo {
	t.Helper()
	h := &models.Hilo{ForoID: foroID, UserID: userID, Title: title, Content: "contenido", CreatedAt: createdAt}
	require.NoError(t, db.Omit("User", "Foro").Create(h).Error)
	if voteCount != 0 {
		require.NoError(t, db.Model(h).UpdateColumn("vote_count", voteCount).Error)
		h.VoteCount = voteCount
	}
	return h
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	author := createUser(t, db, "autora")
	foro := &models.Foro{Name: "General", Slug: "general", CreatedByID: author.ID}
	require.NoError(t, db.Omit("CreatedBy").Create(foro).Error)
	hilo := createHilo(t, db, foro.ID, author.ID, "Primer hilo", 0, time.Now())
	return fixture{author: author, foro: foro, hilo: hilo}
}

// useMiniredis points the package cache at a throwaway Redis for one test.
func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	cache.SetClient(c)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = c.Close()
	})
	return mr
}

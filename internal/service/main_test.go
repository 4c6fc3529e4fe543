package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"foros/internal/cache"
	"foros/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var sqliteSeq atomic.Int64

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%d?mode=memory&cache=shared", sqliteSeq.Add(1))
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

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(u).Error)
	return u
}

// createThread makes a foro and one hilo authored by author.
func createThread(t *testing.T, db *gorm.DB, author *models.User) *models.Hilo {
	t.Helper()
	foro := &models.Foro{Name: "General", Slug: fmt.Sprintf("general-%d", sqliteSeq.Add(1)), CreatedByID: author.ID}
	require.NoError(t, db.Omit("CreatedBy").Create(foro).Error)
	h := &models.Hilo{ForoID: foro.ID, UserID: author.ID, Title: "Primer hilo", Content: "hola"}
	require.NoError(t, db.Omit("User", "Foro").Create(h).Error)
	return h
}

// publisherStub records published events.
type publisherStub struct {
	mu         sync.Mutex
	voteCounts []int
	versions   []uint
	userEvents []uint
	err        error
}

func (p *publisherStub) PublishVoteCount(_ context.Context, _ uint, count int, version uint) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voteCounts = append(p.voteCounts, count)
	p.versions = append(p.versions, version)
	return p.err
}

func (p *publisherStub) PublishUserEvent(_ context.Context, userID uint, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userEvents = append(p.userEvents, userID)
	return p.err
}

type flagsStub map[string]bool

func (f flagsStub) Enabled(name string, _ uint) bool { return f[name] }

func adminIf(ids ...uint) IsAdminFunc {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range ids {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
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

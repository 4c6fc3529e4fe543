package seed

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"foros/internal/database"
	"foros/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:seed_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset([]byte(`
name: tiny
seed: 7
users: 4
foros:
  - name: General
    description: Todo lo demás
random_foros: 1
hilos_per_foro: 2
votes_per_hilo: 3
`))
	require.NoError(t, err)
	assert.Equal(t, "tiny", p.Name)
	assert.Equal(t, int64(7), p.Seed)
	assert.Equal(t, 4, p.Users)
	require.Len(t, p.Foros, 1)
	assert.Equal(t, "General", p.Foros[0].Name)
	// defaults survive for unset keys
	assert.Equal(t, DefaultPreset().Password, p.Password)
	assert.InDelta(t, 0.7, p.UpvoteRatio, 1e-9)
}

func TestParsePreset_Invalid(t *testing.T) {
	tests := map[string]string{
		"no users":     "users: 0",
		"bad ratio":    "upvote_ratio: 1.5",
		"negative":     "votes_per_hilo: -1",
		"no foros":     "random_foros: 0",
		"broken yaml":  "users: [",
		"empty secret": `password: ""`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePreset([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPreset_DemoFile(t *testing.T) {
	p, err := LoadPreset("../../presets/demo.yml")
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)
	assert.NotEmpty(t, p.Foros)
}

func TestFactory_Deterministic(t *testing.T) {
	a := NewFactory(42, 10)
	b := NewFactory(42, 10)
	assert.Equal(t, a.User("h").Username, b.User("h").Username)
	assert.Equal(t, a.Hilo(1, 1).Title, b.Hilo(1, 1).Title)
}

func TestFactory_Pick(t *testing.T) {
	f := NewFactory(1, 0)
	picked := f.Pick(5, 10)
	assert.Len(t, picked, 5)
	seen := map[int]bool{}
	for _, i := range picked {
		assert.False(t, seen[i])
		assert.True(t, i >= 0 && i < 5)
		seen[i] = true
	}
}

func TestSeeder_Run(t *testing.T) {
	db := setupDB(t)
	s := NewSeeder(db, nil)
	p := Preset{
		Name:               "test",
		Seed:               99,
		Users:              5,
		Password:           "Demo-Password-123!",
		Foros:              []ForoSeed{{Name: "General"}},
		RandomForos:        1,
		HilosPerForo:       2,
		ComentariosPerHilo: 3,
		VotesPerHilo:       4,
		UpvoteRatio:        0.5,
	}

	sum, err := s.Run(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 5, Foros: 2, Hilos: 4, Comentarios: 12, Votes: 16}, sum)

	var hilos []models.Hilo
	require.NoError(t, db.Find(&hilos).Error)
	require.Len(t, hilos, 4)
	for _, h := range hilos {
		var ledger int
		require.NoError(t, db.Model(&models.Vote{}).
			Select("COALESCE(SUM(value), 0)").
			Where("hilo_id = ?", h.ID).
			Scan(&ledger).Error)
		assert.Equal(t, ledger, h.VoteCount, "hilo %d counter must equal its ledger", h.ID)
	}

	var votes int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&votes).Error)
	assert.Equal(t, int64(16), votes)

	require.NoError(t, s.ClearAll(context.Background()))
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

package bootstrap

import (
	"testing"

	"foros/internal/config"
	"foros/internal/database"
	"foros/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestEnsureDevRootAdmin(t *testing.T) {
	db := openDB(t)
	cfg := &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootPassword:  "R00t-Password-Dev!",
	}

	require.NoError(t, ensureDevRootAdmin(cfg, db))
	require.NoError(t, ensureDevRootAdmin(cfg, db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "foros_root", users[0].Username)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
}

func TestEnsureDevRootAdmin_PromotesExisting(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Create(&models.User{
		Username: "root", Email: "root@foros.local", Password: "x", Role: models.RoleUser,
	}).Error)

	cfg := &config.Config{Env: "development", DevBootstrapRoot: true, DevRootPassword: "pw"}
	require.NoError(t, ensureDevRootAdmin(cfg, db))

	var root models.User
	require.NoError(t, db.Where("email = ?", "root@foros.local").First(&root).Error)
	assert.Equal(t, models.RoleAdmin, root.Role)
}

func TestEnsureDevRootAdmin_Skipped(t *testing.T) {
	db := openDB(t)

	require.NoError(t, ensureDevRootAdmin(&config.Config{Env: "production", DevBootstrapRoot: true}, db))
	require.NoError(t, ensureDevRootAdmin(&config.Config{Env: "development"}, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEnsureDevRootAdmin_RequiresPassword(t *testing.T) {
	db := openDB(t)
	err := ensureDevRootAdmin(&config.Config{Env: "development", DevBootstrapRoot: true}, db)
	assert.Error(t, err)
}

func TestTracingConfig(t *testing.T) {
	tc := TracingConfig(&config.Config{
		Env: "staging", TracingEnabled: true, TracingExporter: "otlp",
		OTLPEndpoint: "collector:4318", TracingSamplerRatio: 0.5,
	})
	assert.Equal(t, "foros-api", tc.ServiceName)
	assert.True(t, tc.Enabled)
	assert.Equal(t, "otlp", tc.Exporter)
	assert.Equal(t, "collector:4318", tc.OTLPEndpoint)
	assert.InDelta(t, 0.5, tc.SamplerRatio, 1e-9)
}

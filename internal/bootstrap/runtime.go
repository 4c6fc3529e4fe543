// Package bootstrap brings up the process-wide runtime shared by the commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"foros/internal/cache"
	"foros/internal/config"
	"foros/internal/database"
	"foros/internal/middleware"
	"foros/internal/models"
	"foros/internal/observability"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Runtime bundles the connections a command needs.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// ShutdownTracing flushes pending spans.
	ShutdownTracing func(context.Context) error
}

// InitRuntime starts tracing, connects to the database and Redis, and makes
// sure the development root admin exists when configured.
func InitRuntime(cfg *config.Config) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(TracingConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// nil when Redis is unreachable; callers degrade to no cache
	cache.InitRedis(cfg.RedisURL)

	if err := ensureDevRootAdmin(cfg, db); err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), ShutdownTracing: shutdownTracing}, nil
}

// TracingConfig maps application config onto the tracer settings.
func TracingConfig(cfg *config.Config) observability.TracingConfig {
	return observability.TracingConfig{
		ServiceName:    "foros-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	}
}

func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "foros_root"
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevRootEmail))
	if email == "" {
		email = "root@foros.local"
	}
	if cfg.DevRootPassword == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	var root models.User
	err := db.Where("email = ?", email).First(&root).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, herr := bcrypt.GenerateFromPassword([]byte(cfg.DevRootPassword), bcrypt.DefaultCost)
		if herr != nil {
			return fmt.Errorf("hash root password: %w", herr)
		}
		root = models.User{
			Username: username,
			Email:    email,
			Password: string(hashed),
			Role:     models.RoleAdmin,
		}
		if err := db.Create(&root).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	case root.Role != models.RoleAdmin:
		if err := db.Model(&root).Update("role", models.RoleAdmin).Error; err != nil {
			return err
		}
	}

	middleware.Logger.Info("development root admin ensured", "user_id", root.ID, "email", email)
	return nil
}

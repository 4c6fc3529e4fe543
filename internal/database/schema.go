package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"foros/internal/config"
	"foros/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema does for one config.
type SchemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

// SchemaStatus reports the plan plus the migration log.
type SchemaStatus struct {
	SchemaPlan
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// planSchema maps DB_SCHEMA_MODE to work. sql runs migrations only; auto
// runs AutoMigrate only and needs DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE outside
// development; hybrid runs migrations everywhere and AutoMigrate only in
// development and test, where the gorm tags may run ahead of the SQL files.
func planSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	shared := isSharedEnv(cfg.Env)

	switch plan.Mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeAuto:
		if shared && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	case SchemaModeHybrid:
		plan.RunSQL, plan.RunAuto = true, !shared
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// isSharedEnv is true for databases other people depend on.
func isSharedEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// AutoMigrate creates or updates the foros tables, including the
// idx_votes_user_hilo unique index vote creation depends on.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date and returns the plan it ran.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) (SchemaPlan, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return plan, err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return plan, fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("AutoMigrate allowed against a shared database", slog.String("env", cfg.Env))
		}
		middleware.Logger.Info("Running AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return plan, fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return plan, nil
}

// GetSchemaStatus is the read-only counterpart of ApplySchema used by
// `migrate status`.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan, Environment: cfg.Env}
	if !plan.RunSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	for _, m := range GetMigrations() {
		if !slices.Contains(applied, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}

// Command seed fills the database with demo forum content.
package main

import (
	"context"
	"flag"
	"os"

	"foros/internal/bootstrap"
	"foros/internal/config"
	"foros/internal/middleware"
	"foros/internal/seed"
	"foros/internal/server"
)

func main() {
	presetPath := flag.String("preset", "", "YAML preset file (defaults to a small built-in preset)")
	clean := flag.Bool("clean", false, "delete existing content before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		middleware.Logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		middleware.Logger.Error("refusing to seed a production database")
		os.Exit(1)
	}

	preset := seed.DefaultPreset()
	if *presetPath != "" {
		if preset, err = seed.LoadPreset(*presetPath); err != nil {
			middleware.Logger.Error("failed to load preset", "path", *presetPath, "error", err)
			os.Exit(1)
		}
	}

	rt, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		middleware.Logger.Error("failed to initialize runtime", "error", err)
		os.Exit(1)
	}
	defer func() { _ = rt.ShutdownTracing(context.Background()) }()

	// Share the server's wiring so seeded votes publish and notify like real ones.
	srv, err := server.NewServerWithDeps(cfg, rt.DB, rt.Redis)
	if err != nil {
		middleware.Logger.Error("failed to build services", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	s := seed.NewSeeder(rt.DB, srv.VoteService())
	if *clean {
		if err := s.ClearAll(ctx); err != nil {
			middleware.Logger.Error("cleanup failed", "error", err)
			os.Exit(1)
		}
	}

	sum, err := s.Run(ctx, preset)
	if err != nil {
		middleware.Logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}
	middleware.Logger.Info("seeded", "users", sum.Users, "hilos", sum.Hilos, "votes", sum.Votes,
		"password", preset.Password)
}

// Command seed loads the starter catalog of skills and learning resources.
// The bootstrap admin from ADMIN_EMAIL and ADMIN_PASSWORD owns the content.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmaazkhanhere/learnpath/internal/auth"
	"github.com/mmaazkhanhere/learnpath/internal/config"
	"github.com/mmaazkhanhere/learnpath/internal/event"
	"github.com/mmaazkhanhere/learnpath/internal/repository"
	"github.com/mmaazkhanhere/learnpath/internal/repository/postgres"
	redisrepo "github.com/mmaazkhanhere/learnpath/internal/repository/redis"
	"github.com/mmaazkhanhere/learnpath/internal/seed"
	"github.com/mmaazkhanhere/learnpath/internal/service"
	"github.com/mmaazkhanhere/learnpath/migrations"
	pkgconfig "github.com/mmaazkhanhere/learnpath/pkg/config"
	"github.com/mmaazkhanhere/learnpath/pkg/database"
	"github.com/mmaazkhanhere/learnpath/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.AdminEmail == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required to own seeded content")
	}

	log := logger.New(config.ServiceName+"-seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelTimeout()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Writes go through the skill cache so a running API sees the new
	// catalog immediately.
	var cache repository.SkillCache
	if cfg.RedisEnabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		cache = redisrepo.NewSkillCache(rdb, cfg.SkillCacheTTL)
	}

	users := postgres.NewUserRepository(pool)
	directory := service.NewDirectory(users, auth.NewPasswordHasher(cfg.BcryptCost), log)
	tokens := auth.NewTokenManager(auth.TokenConfig{
		Secret:     cfg.SecretKey,
		Algorithm:  cfg.Algorithm,
		DefaultTTL: cfg.TokenTTL(),
		Issuer:     config.ServiceName,
	}, log)
	authService := service.NewAuthService(directory, tokens, event.NewProducer(event.Discard, log), false, log)

	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	owner, err := directory.FindByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("find admin: %w", err)
	}

	seeder := seed.NewSeeder(
		service.NewSkillService(postgres.NewSkillRepository(pool), cache, log),
		service.NewResourceService(postgres.NewResourceRepository(pool), log),
		log,
	)
	stats, err := seeder.Run(ctx, owner.ID, seed.Catalog())
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	log.Info("seed complete",
		slog.Int("skills_created", stats.SkillsCreated),
		slog.Int("skills_skipped", stats.SkillsSkipped),
		slog.Int("resources_created", stats.ResourcesCreated),
		slog.Int("failures", stats.Failures),
	)
	return nil
}

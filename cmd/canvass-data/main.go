package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"canvass-data/internal/config"
	"canvass-data/internal/database"
	httpapi "canvass-data/internal/http"
	"canvass-data/internal/logger"
	"canvass-data/internal/repository"
	"canvass-data/internal/service"
	"canvass-data/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "canvass-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db, log); err != nil {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	kv := store.NewRedisKV(redisClient)

	agentsRepo := repository.NewPostgresAgentsRepository(db)
	canvassRepo := repository.NewPostgresCanvassRepository(db)
	brigadeRepo := repository.NewPostgresBrigadeRepository(db)

	sessions := service.NewSessionStore(kv, cfg.Session.TTL)
	membership := service.NewMembershipService(agentsRepo, brigadeRepo, cfg.Admin.Login, cfg.Admin.Password, log)
	reports := service.NewReportService(agentsRepo, canvassRepo, log)
	allocator := service.NewFlyerAllocator(canvassRepo)
	lottery := service.NewLotteryClient(cfg.Lottery, log)
	engine := service.NewSurveyService(sessions, agentsRepo, canvassRepo, membership, allocator, lottery, reports, log)

	router := httpapi.NewRouter(log)
	router.RegisterEventRoutes(httpapi.NewEventHandler(engine, log))
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(canvassRepo, reports, membership, sessions, log))
	router.RegisterHealthRoutes()

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quizstorm/internal/cache"
	"quizstorm/internal/config"
	"quizstorm/internal/repository"
	"quizstorm/internal/service"
	"quizstorm/internal/transport/rest"
	"quizstorm/internal/transport/ws"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	aiConfig := config.DefaultAIConfig()
	if aiConfig.IsEnabled() {
		log.Info().Str("model", aiConfig.Model).Msg("question generation via Gemini")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, using offline question generator")
	}

	ctx := context.Background()

	// Redis backs the live leaderboard. Rooms run fine without it.
	var leaderboard cache.LeaderboardCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if _, err := rdb.Ping(pingCtx).Result(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, leaderboard disabled")
		} else {
			leaderboard = cache.NewLeaderboardCache(rdb)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
		}
		cancel()
	}

	// Mongo archives finished-game reports. Also optional.
	var reports repository.GameReportRepo
	if cfg.Mongo.URI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			log.Warn().Err(err).Msg("mongo connect failed, game reports disabled")
		} else {
			defer mongoClient.Disconnect(ctx)
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := mongoClient.Ping(pingCtx, nil); err != nil {
				log.Warn().Err(err).Msg("mongo unreachable, game reports disabled")
			} else {
				reports = repository.NewGameReportRepo(mongoClient.Database(cfg.Mongo.Database))
				log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
			}
			cancel()
		}
	}

	hub := ws.NewHub()
	questions := service.NewQuestionService(aiConfig)
	registry := service.NewRegistry(service.Deps{
		Source:      questions,
		Broadcaster: hub,
		Leaderboard: leaderboard,
		Reports:     reports,
		Round:       cfg.RoundDuration(),
		Grace:       cfg.RevealGrace(),
	})
	gateway := ws.NewGateway(registry, hub)

	router := rest.NewRouter(&rest.Container{
		Registry:        registry,
		QuestionService: questions,
		Leaderboard:     leaderboard,
		WSHandler:       ws.NewHandler(gateway, hub),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

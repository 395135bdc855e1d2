package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/recipe-backend/internal/config"
	"github.com/iliyamo/recipe-backend/internal/database"
	"github.com/iliyamo/recipe-backend/internal/handler"
	"github.com/iliyamo/recipe-backend/internal/logging"
	"github.com/iliyamo/recipe-backend/internal/queue"
	"github.com/iliyamo/recipe-backend/internal/repository"
	"github.com/iliyamo/recipe-backend/internal/router"
	"github.com/iliyamo/recipe-backend/internal/service"
	"github.com/iliyamo/recipe-backend/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Default().Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	// Optional Redis for logout.  A nil client disables revocation.
	var revoked service.RevocationStore
	if rdb := config.NewRedisClient(ctx, cfg); rdb != nil {
		defer rdb.Close()
		revoked = repository.NewTokenRepo(rdb, cfg.RevokePrefix)
	} else {
		log.Warn("redis not available, logout disabled", slog.String("addr", cfg.RedisAddr))
	}

	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = service.NewPublisher(cfg.RabbitURL, log)
	}

	if cfg.OpenAIKey == "" {
		log.Warn("OPENAI_API_KEY is empty, recipe generation will fail")
	}
	aiCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		aiCfg.BaseURL = cfg.OpenAIBaseURL
	}
	ai := openai.NewClientWithConfig(aiCfg)

	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL)
	authSvc := service.NewAuth(repository.NewUserRepo(db), issuer, revoked, cfg.BcryptCost, log)
	recipeSvc := service.NewRecipes(repository.NewRecipeRepo(db), events, log)
	generator := service.NewGenerator(ai, service.GeneratorConfig{
		Model:   cfg.OpenAIModel,
		Timeout: cfg.OpenAITimeout,
	}, log)

	routes := router.Routes(router.Deps{
		Auth:                handler.NewAuthHandler(authSvc, log),
		Recipes:             handler.NewRecipeHandler(recipeSvc, log),
		Generate:            handler.NewGenerateHandler(generator, log),
		Health:              handler.NewHealthHandler(repository.NewHealthRepo(db), log),
		Authenticator:       authSvc,
		GenerateRequireAuth: cfg.GenerateRequireAuth,
		Log:                 log,
	})
	e := router.New(router.Options{
		CORSOrigins: cfg.CORSOrigins,
		Production:  cfg.IsProduction(),
		Log:         log,
	}, routes)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", slog.String("addr", cfg.Addr()), slog.String("env", cfg.Env))
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(sctx)
	})

	if cfg.RabbitURL != "" {
		g.Go(func() error {
			return queue.StartRecipeConsumer(gctx, cfg.RabbitURL, cfg.EventsLogDir, log)
		})
	}

	return g.Wait()
}

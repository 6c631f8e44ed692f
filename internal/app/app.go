// Package app wires configuration into a ready chat service and its
// optional backing services.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/calmchat/internal/ai"
	"github.com/suPer8Hu/calmchat/internal/canned"
	"github.com/suPer8Hu/calmchat/internal/chat"
	"github.com/suPer8Hu/calmchat/internal/config"
	"github.com/suPer8Hu/calmchat/internal/db"
	"github.com/suPer8Hu/calmchat/internal/httpapi"
	"github.com/suPer8Hu/calmchat/internal/store/rabbitmq"
	"github.com/suPer8Hu/calmchat/internal/store/redisstore"
	"go.uber.org/zap"
)

type App struct {
	Cfg     config.Config
	Log     *zap.Logger
	Service *chat.Service
	// Audit is nil unless DB_DSN is set.
	Audit *chat.Repo

	closers []func() error
}

// NewRegistry registers a provider for every configured credential, always
// in Gemini, Groq, OpenAI order.
func NewRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	if cfg.GeminiAPIKey != "" {
		reg.Register("gemini", cfg.GeminiModel, func(ctx context.Context, model string) (ai.Provider, error) {
			return ai.NewGeminiProvider(cfg.GeminiAPIKey, model, cfg.GeminiBaseURL), nil
		})
	}
	if cfg.GroqAPIKey != "" {
		reg.Register("groq", cfg.GroqModel, func(ctx context.Context, model string) (ai.Provider, error) {
			return ai.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, model), nil
		})
	}
	if cfg.OpenAIAPIKey != "" {
		reg.Register("openai", cfg.OpenAIModel, func(ctx context.Context, model string) (ai.Provider, error) {
			return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model), nil
		})
	}
	return reg
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Cfg

	matcher, err := canned.LoadFile(cfg.CannedRulesPath)
	if err != nil {
		return err
	}

	providers, err := NewRegistry(cfg).Chain(ctx)
	if err != nil {
		return err
	}

	store, err := a.sessionStore(ctx)
	if err != nil {
		return err
	}

	opts := chat.Options{
		Providers:       providers,
		ProviderTimeout: cfg.ProviderTimeout,
		Logger:          a.Log,
	}

	if cfg.DBDSN != "" {
		gdb, err := db.Connect(cfg.DBDSN, &chat.Attempt{})
		if err != nil {
			return err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		a.closers = append(a.closers, sqlDB.Close)
		a.Audit = chat.NewRepo(gdb)
		opts.Recorder = a.Audit
	}

	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return fmt.Errorf("rabbit publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		opts.Alerter = pub
	}

	a.Service = chat.NewService(store, matcher, opts)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	a.Log.Info("chat service ready",
		zap.Strings("providers", names),
		zap.String("session_store", cfg.SessionStore),
		zap.Int("canned_rules", len(matcher.Rules())),
		zap.Bool("audit", a.Audit != nil),
		zap.Bool("crisis_alerts", opts.Alerter != nil),
	)
	return nil
}

func (a *App) sessionStore(ctx context.Context) (chat.SessionStore, error) {
	switch a.Cfg.SessionStore {
	case "", "memory":
		return chat.NewMemoryStore(a.Cfg.ChatHistoryTurns), nil
	case "redis":
		rdb := redisstore.NewClient(a.Cfg.RedisAddr, a.Cfg.RedisPassword, a.Cfg.RedisDB)
		a.closers = append(a.closers, rdb.Close)
		store := redisstore.New(rdb, a.Cfg.ChatHistoryTurns, a.Cfg.SessionTTL)

		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := store.Ping(pctx); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", a.Cfg.RedisAddr, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported SESSION_STORE=%q", a.Cfg.SessionStore)
	}
}

func (a *App) Router() *gin.Engine {
	return httpapi.NewRouter(a.Cfg, a.Service, a.Audit, a.Log)
}

// Close releases backing connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

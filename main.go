package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	advisorx "github.com/Purvi09/credit-card-advisor/agent/advisor"
	catalogx "github.com/Purvi09/credit-card-advisor/agent/catalog"
	contractx "github.com/Purvi09/credit-card-advisor/agent/contract"
	extractx "github.com/Purvi09/credit-card-advisor/agent/extract"
	llmx "github.com/Purvi09/credit-card-advisor/agent/llm"
	recommendx "github.com/Purvi09/credit-card-advisor/agent/recommend"
	statex "github.com/Purvi09/credit-card-advisor/agent/state"
	apix "github.com/Purvi09/credit-card-advisor/api"
	configx "github.com/Purvi09/credit-card-advisor/pkg/config"
	logx "github.com/Purvi09/credit-card-advisor/pkg/logger"
	openrouterx "github.com/Purvi09/credit-card-advisor/pkg/openrouter"
)

type AppConfig struct {
	Addr           string `envconfig:"ADDR" split_words:"true" default:":8000"`
	CatalogBackend string `envconfig:"CATALOG_BACKEND" split_words:"true" default:"memory"`
	CardsFile      string `envconfig:"CARDS_FILE" split_words:"true" default:"creditCards.json"`
	RatesFile      string `envconfig:"RATES_FILE" split_words:"true"`
	SessionStore   string `envconfig:"SESSION_STORE" split_words:"true" default:"none"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, cleanup, err := buildCatalog(ctx, appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog setup failed")
	}
	defer cleanup()

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	openRouterClient, err := openrouterx.New(*openRouterCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("openrouter setup failed")
	}
	completer, err := llmx.NewCompleter(openRouterClient)
	if err != nil {
		log.Fatal().Err(err).Msg("completer setup failed")
	}

	extractor, err := extractx.New(completer, openRouterCfg.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("extractor setup failed")
	}

	engine, err := buildEngine(appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("recommendation engine setup failed")
	}

	registry, err := buildRegistry(appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("session registry setup failed")
	}
	defer registry.Close()

	advisor, err := advisorx.New(registry, extractor, engine, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("advisor setup failed")
	}

	handler, err := apix.NewHandler(advisor, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("handler setup failed")
	}
	app := apix.NewApp(handler)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
		}
	}()

	log.Info().Str("addr", appCfg.Addr).Str("catalog", appCfg.CatalogBackend).Msg("listening")
	if err := app.Listen(appCfg.Addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func buildCatalog(ctx context.Context, cfg *AppConfig) (catalogx.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CatalogBackend)) {
	case "postgres":
		pgCfg := configx.MustNew[catalogx.PostgresConfig]("CATALOG")
		store, err := catalogx.NewBunStore(*pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := openWithRetry(ctx, store); err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		store := catalogx.NewMemoryStore()
		if cfg.CardsFile != "" {
			cards, err := catalogx.ReadCardsFile(cfg.CardsFile)
			if err != nil {
				return nil, nil, err
			}
			loaded, err := store.Load(ctx, cards)
			if err != nil {
				return nil, nil, err
			}
			log.Info().Int("cards", loaded).Str("file", cfg.CardsFile).Msg("catalog loaded")
		}
		return store, func() {}, nil
	default:
		return nil, nil, errors.New("unknown catalog backend: " + cfg.CatalogBackend)
	}
}

// openWithRetry tolerates the database coming up after the service,
// backing off while the store reports unavailability.
func openWithRetry(ctx context.Context, store *catalogx.BunStore) error {
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		err := store.Open(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, contractx.ErrStoreUnavailable) || attempt >= 5 {
			return err
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("catalog store unavailable, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func buildEngine(cfg *AppConfig) (*recommendx.Engine, error) {
	if strings.TrimSpace(cfg.RatesFile) == "" {
		return recommendx.NewEngine(nil), nil
	}
	rates, err := recommendx.LoadRateTable(cfg.RatesFile)
	if err != nil {
		return nil, err
	}
	return recommendx.NewEngine(rates), nil
}

func buildRegistry(cfg *AppConfig) (*statex.Registry, error) {
	regCfg := configx.MustNew[statex.RegistryConfig]("SESSION")

	var store statex.Store
	if strings.EqualFold(strings.TrimSpace(cfg.SessionStore), "upstash") {
		upstashCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH")
		s, err := statex.NewUpstashRedisStore(*upstashCfg)
		if err != nil {
			return nil, err
		}
		store = s
	}

	return statex.NewRegistry(store, *regCfg), nil
}

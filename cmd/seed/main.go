// Command seed loads a JSON card catalog into the Postgres store.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	catalogx "github.com/Purvi09/credit-card-advisor/agent/catalog"
	configx "github.com/Purvi09/credit-card-advisor/pkg/config"
	logx "github.com/Purvi09/credit-card-advisor/pkg/logger"
)

func main() {
	cardsPath := flag.String("cards", "creditCards.json", "path to the card catalog JSON file")

	logx.Init()
	pgCfg := configx.MustNew[catalogx.PostgresConfig]("CATALOG")

	cards, err := catalogx.ReadCardsFile(*cardsPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *cardsPath).Msg("read cards file failed")
	}

	store, err := catalogx.NewBunStore(*pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog store setup failed")
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Open(ctx); err != nil {
		log.Fatal().Err(err).Msg("catalog store open failed")
	}

	loaded, err := store.Load(ctx, cards)
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}
	log.Info().Int("loaded", loaded).Int("total", len(cards)).Msg("catalog seeded")
}

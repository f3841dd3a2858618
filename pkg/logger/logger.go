package logx

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `split_words:"true" default:"card-advisor"`
}

var DefaultConfig = &Config{
	Debug:        false,
	PrettyFormat: false,
	Service:      "card-advisor",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global zerolog logger. Call once at startup before
// any package logs.
func Init(opts ...Config) {
	conf := safe(opts...)

	if conf.PrettyFormat {
		log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if conf.Debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	ctx := log.Logger.With().Caller().Stack()
	if conf.Service != "" {
		ctx = ctx.Str("service", conf.Service)
	}
	log.Logger = ctx.Logger()
}

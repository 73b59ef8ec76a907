package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath      string     `env:"DB_PATH" envDefault:"data/cityquest.db"`
	CatalogPath string     `env:"CATALOG_PATH"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// AdminIDs is the static allowlist of admin chat ids.
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`
	// AdminKeyHash is an optional bcrypt hash; when set, admin requests must
	// also present the matching key.
	AdminKeyHash string `env:"ADMIN_KEY_HASH"`

	// MinAnswerInterval is the fastest allowed pace between answers before
	// the too-fast penalty applies. Rehearsal setups lower it.
	MinAnswerInterval time.Duration `env:"MIN_ANSWER_INTERVAL" envDefault:"71s"`
	PrizeThresholds   []int         `env:"PRIZE_THRESHOLDS" envSeparator:"," envDefault:"4,7,10"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

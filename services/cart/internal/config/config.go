package config

import (
	"os"
	"time"

	pkgconfig "github.com/skatech/invcart/pkg/config"
)

type Config struct {
	ServiceName string
	ServerPort  int

	DatabaseURL string
	CatalogURL  string

	KafkaBrokers []string

	CartTTL       time.Duration
	SweepInterval time.Duration
	SweepDisabled bool
}

func Load() *Config {
	cfg := &Config{
		ServiceName: pkgconfig.EnvDefault("SERVICE_NAME", "cart"),
		ServerPort:  pkgconfig.EnvIntDefault("SERVER_PORT", 8081),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		CatalogURL:  os.Getenv("CATALOG_URL"),

		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),

		CartTTL:       time.Duration(pkgconfig.EnvIntDefault("CART_TTL_MINUTES", 15)) * time.Minute,
		SweepInterval: time.Duration(pkgconfig.EnvIntDefault("SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		SweepDisabled: pkgconfig.EnvBool("CART_EXPIRY_JOBS_DISABLED"),
	}

	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	return cfg
}

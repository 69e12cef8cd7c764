package config

import (
	"github.com/kelseyhightower/envconfig"
)

// App carries every knob the binary reads from the environment.
type App struct {
	// HTTP
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`
	AdminKey   string `envconfig:"ADMIN_KEY" required:"true"`

	// Postgres
	PGHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PGPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PGUser     string `envconfig:"POSTGRES_USERNAME" default:"postgres"`
	PGPassword string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	PGDatabase string `envconfig:"DB_NAME" default:"challenge_slots"`
	PGSSLMode  string `envconfig:"DB_SSL" default:"disable"`

	// Migrations and roster seed
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
	RosterPath     string `envconfig:"ROSTER_PATH" default:"roster.csv"`

	// Optional redis-backed occupancy snapshot for multi-instance reads.
	// Empty means in-memory snapshot only.
	RedisAddr string `envconfig:"REDIS_ADDR" default:""`

	// Register endpoint rate limit, per client IP.
	RegisterRatePerSec float64 `envconfig:"REGISTER_RATE_PER_SEC" default:"5"`
	RegisterBurst      int     `envconfig:"REGISTER_BURST" default:"10"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

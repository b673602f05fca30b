package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort              string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL           string `env:"DATABASE_URL"`
	SQLitePath            string `env:"SQLITE_PATH" envDefault:"drive-auth.db"`
	RedisAddr             string `env:"REDIS_ADDR"`
	RedisPassword         string `env:"REDIS_PASSWORD"`
	RedisDB               int    `env:"REDIS_DB" envDefault:"0"`
	GoogleClientID        string `env:"GOOGLE_CLIENT_ID"`
	CleanupRetentionHours int    `env:"CLEANUP_RETENTION_HOURS" envDefault:"24"`
	LoginRateWindowMin    int    `env:"LOGIN_RATE_WINDOW_MINUTES" envDefault:"10"`
	LoginRateMax          int    `env:"LOGIN_RATE_MAX" envDefault:"10"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/ryuhosoy/mobile-gym-app/internal/store"
	pkgconfig "github.com/ryuhosoy/mobile-gym-app/pkg/config"
	"github.com/ryuhosoy/mobile-gym-app/pkg/log"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	Places PlacesConfig
	Log    log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

// StoreConfig selects the realtime store backend: "memory" for a single
// instance, "redis" for shared state.
type StoreConfig struct {
	Backend string
	Redis   store.RedisConfig
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string
}

type PlacesConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "rtstore:")
	v.SetDefault("store.redis.channel", "rtstore:changes")
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.issuer", "mobile-gym-app")
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("places.language", "ja")
	v.SetDefault("places.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "gym-app")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("store.backend", "STORE_BACKEND")
	v.BindEnv("store.redis.address", "REDIS_ADDRESS")
	v.BindEnv("store.redis.password", "REDIS_PASSWORD")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("places.api_key", "PLACES_API_KEY")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Auth.TokenTTL = parseDuration(v, "auth.token_ttl", 24*time.Hour)
	cfg.Places.Timeout = parseDuration(v, "places.timeout", 10*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

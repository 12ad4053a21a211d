package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string   `mapstructure:"PORT"`
	Env                    string   `mapstructure:"ENV"`
	DatabaseURL            string   `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32    `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir          string   `mapstructure:"MIGRATIONS_DIR"`
	JWTKey                 string   `mapstructure:"JWT_KEY"`
	JWTIssuer              string   `mapstructure:"JWT_ISSUER"`
	JWTAudience            string   `mapstructure:"JWT_AUDIENCE"`
	JWTTTLMinutes          int      `mapstructure:"JWT_TTL_MINUTES"`
	CORSOrigins            []string `mapstructure:"CORS_ORIGINS"`
	NotifyWorkers          int      `mapstructure:"NOTIFY_WORKERS"`
	NotifyQueueSize        int      `mapstructure:"NOTIFY_QUEUE_SIZE"`
	KafkaBrokers           []string `mapstructure:"KAFKA_BROKERS"`
	KafkaNotificationTopic string   `mapstructure:"KAFKA_NOTIFICATION_TOPIC"`
	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For. Empty
	// means the peer address is the client address.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
}

// minJWTKeyLen is the shortest HMAC key accepted outside development.
const minJWTKeyLen = 32

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MIGRATIONS_DIR", "./migrations")
	v.SetDefault("JWT_TTL_MINUTES", 120)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 256)
	v.SetDefault("KAFKA_NOTIFICATION_TOPIC", "homecare.notifications")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MIGRATIONS_DIR")
	v.BindEnv("JWT_KEY")
	v.BindEnv("JWT_ISSUER")
	v.BindEnv("JWT_AUDIENCE")
	v.BindEnv("JWT_TTL_MINUTES")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("NOTIFY_WORKERS")
	v.BindEnv("NOTIFY_QUEUE_SIZE")
	v.BindEnv("KAFKA_BROKERS")
	v.BindEnv("KAFKA_NOTIFICATION_TOPIC")
	v.BindEnv("TRUSTED_PROXIES")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins, v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers, v.GetString("KAFKA_BROKERS"))
	cfg.TrustedProxies = splitList(cfg.TrustedProxies, v.GetString("TRUSTED_PROXIES"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// splitList normalises a comma separated value. Viper splits env values on
// commas but leaves the surrounding spaces, and config files may give a
// single comma separated string instead of a list.
func splitList(parsed []string, raw string) []string {
	if len(parsed) == 0 && raw != "" {
		parsed = []string{raw}
	}
	var out []string
	for _, item := range parsed {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to serve traffic with.
// Short signing keys are tolerated only in development.
func (c *Config) Validate() error {
	if c.JWTKey == "" {
		return errors.New("JWT_KEY is required")
	}
	if !c.IsDev() && len(c.JWTKey) < minJWTKeyLen {
		return fmt.Errorf("JWT_KEY must be at least %d bytes outside development", minJWTKeyLen)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaNotificationTopic == "" {
		return errors.New("KAFKA_NOTIFICATION_TOPIC is required when KAFKA_BROKERS is set")
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", cidr)
		}
	}
	return nil
}

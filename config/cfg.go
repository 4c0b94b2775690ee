package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	httpapi "github.com/aquascene/waitlist/internal/api/http"
	"github.com/aquascene/waitlist/internal/mail"
	"github.com/aquascene/waitlist/internal/ratelimit"
	"github.com/aquascene/waitlist/internal/waitlist"
	"github.com/aquascene/waitlist/log"
	"github.com/spf13/viper"
)

// Config represents the global configuration for the service.
type Config struct {
	Logger    log.Config       `mapstructure:"logger"`
	HTTP      httpapi.Config   `mapstructure:"http"`
	Mailer    mail.Config      `mapstructure:"mailer"`
	RateLimit ratelimit.Config `mapstructure:"rate_limit"`
	Waitlist  waitlist.Config  `mapstructure:"waitlist"`
}

// LoadConfig loads the configuration from a file and/or environment variables.
// Environment variables take precedence over config file values.
// Flat names are bound explicitly (MAILER_SENDGRID_API_KEY, ADMIN_KEY),
// nested keys also resolve with double underscore, e.g. RATE_LIMIT__REQUESTS.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))

	setDefaults(v)
	bindEnvVars(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/config/aquascene-waitlist")
		v.AddConfigPath("/etc/aquascene-waitlist")
		// config file is optional, env vars alone are enough
		_ = v.ReadInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config into struct: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", 0)
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("rate_limit.requests", ratelimit.DefaultRequests)
	v.SetDefault("rate_limit.window", ratelimit.DefaultWindow)
	v.SetDefault("rate_limit.backend", ratelimit.BackendMemory)
	v.SetDefault("mailer.workers", 2)
	v.SetDefault("mailer.queue_size", 256)
	v.SetDefault("mailer.send_rate", 5)
	v.SetDefault("mailer.send_timeout", 15*time.Second)
	v.SetDefault("waitlist.recent_limit", 10)
}

// bindEnvVars binds flat environment variable names to config keys.
func bindEnvVars(v *viper.Viper) {
	// Logger
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
	_ = v.BindEnv("logger.add_source", "LOG_ADD_SOURCE")

	// HTTP
	_ = v.BindEnv("http.port", "HTTP_PORT")
	_ = v.BindEnv("http.address", "HTTP_ADDRESS")
	_ = v.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")

	// Mailer
	_ = v.BindEnv("mailer.sendgrid_api_key", "MAILER_SENDGRID_API_KEY")
	_ = v.BindEnv("mailer.from_email", "MAILER_FROM_EMAIL")
	_ = v.BindEnv("mailer.from_email_name", "MAILER_FROM_EMAIL_NAME")
	_ = v.BindEnv("mailer.notify_email", "MAILER_NOTIFY_EMAIL")
	_ = v.BindEnv("mailer.workers", "MAILER_WORKERS")
	_ = v.BindEnv("mailer.queue_size", "MAILER_QUEUE_SIZE")
	_ = v.BindEnv("mailer.send_rate", "MAILER_SEND_RATE")

	// Rate limit
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("rate_limit.backend", "RATE_LIMIT_BACKEND")
	_ = v.BindEnv("rate_limit.redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("rate_limit.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("rate_limit.redis.db", "REDIS_DB")

	// Waitlist
	_ = v.BindEnv("waitlist.admin_key", "ADMIN_KEY")
	_ = v.BindEnv("waitlist.recent_limit", "WAITLIST_RECENT_LIMIT")
}

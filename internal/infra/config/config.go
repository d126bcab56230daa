package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/adityachilka1/nicu-pediasense-sub002/internal/core/domain"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Redis     RedisSettings     `mapstructure:"redis"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name           string   `mapstructure:"name"`
	Env            string   `mapstructure:"env"`
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RedisSettings configures the shared counter store connection. The
// limiter runs purely on the local store when Enabled is false.
type RedisSettings struct {
	Enabled             bool          `mapstructure:"enabled"`
	Host                string        `mapstructure:"host"`
	Port                int           `mapstructure:"port"`
	DB                  int           `mapstructure:"db"`
	Password            string        `mapstructure:"password"`
	TLSEnabled          bool          `mapstructure:"tls_enabled"`
	KeyPrefix           string        `mapstructure:"key_prefix"`
	OperationTimeout    time.Duration `mapstructure:"operation_timeout"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
}

// ClassSettings configures one limit class.
type ClassSettings struct {
	Window      time.Duration `mapstructure:"window"`
	MaxRequests int           `mapstructure:"max_requests"`
}

// RateLimitSettings configures the window sweep and the per-class quotas.
type RateLimitSettings struct {
	SweepInterval time.Duration            `mapstructure:"sweep_interval"`
	Classes       map[string]ClassSettings `mapstructure:"classes"`
}

// LimitClasses converts the configured class table into domain classes.
// Builtins act as the base; configuration overrides or extends them.
func (s RateLimitSettings) LimitClasses() []domain.LimitClass {
	classes := domain.BuiltinClasses()

	index := make(map[string]int, len(classes))
	for i, cls := range classes {
		index[cls.Name] = i
	}

	for name, cfg := range s.Classes {
		if cfg.Window <= 0 || cfg.MaxRequests <= 0 {
			continue
		}
		cls := domain.LimitClass{Name: name, Window: cfg.Window, MaxRequests: cfg.MaxRequests}
		if i, ok := index[name]; ok {
			classes[i] = cls
			continue
		}
		classes = append(classes, cls)
	}

	return classes
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("RATELIMIT")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.allowed_origins",
		"redis.enabled",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.key_prefix",
		"redis.operation_timeout",
		"redis.health_check_interval",
		"rate_limit.sweep_interval",
		"rate_limit.classes.default.window",
		"rate_limit.classes.default.max_requests",
		"rate_limit.classes.auth.window",
		"rate_limit.classes.auth.max_requests",
		"rate_limit.classes.api.window",
		"rate_limit.classes.api.max_requests",
		"rate_limit.classes.heavy.window",
		"rate_limit.classes.heavy.max_requests",
		"rate_limit.classes.realtime.window",
		"rate_limit.classes.realtime.max_requests",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ratelimit-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.allowed_origins", []string{"*"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.key_prefix", "ratelimit")
	v.SetDefault("redis.operation_timeout", "2s")
	v.SetDefault("redis.health_check_interval", "15s")

	v.SetDefault("rate_limit.sweep_interval", "60s")
	for _, cls := range domain.BuiltinClasses() {
		v.SetDefault(fmt.Sprintf("rate_limit.classes.%s.window", cls.Name), cls.Window.String())
		v.SetDefault(fmt.Sprintf("rate_limit.classes.%s.max_requests", cls.Name), cls.MaxRequests)
	}
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "RATELIMIT_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment overrides, e.g. FOT_DATABASE_PASSWORD
const EnvPrefix = "FOT"

// defaults registers every key with viper. A key viper does not know is
// never looked up in the environment, so secrets are listed with "".
var defaults = map[string]any{
	"app.name":             "foodontracks",
	"app.env":              "development",
	"app.port":             "8080",
	"app.shutdown_timeout": 30 * time.Second,

	"database.driver":             "postgres",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "foodontracks",
	"database.sslmode":            "disable",
	"database.sqlite_path":        "foodontracks.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,

	"redis.enabled":       false,
	"redis.host":          "localhost",
	"redis.port":          6379,
	"redis.password":      "",
	"redis.db":            0,
	"redis.dial_timeout":  3 * time.Second,
	"redis.read_timeout":  2 * time.Second,
	"redis.write_timeout": 2 * time.Second,

	"jwt.secret":                   "",
	"jwt.refresh_secret":           "",
	"jwt.access_token_expiration":  15 * time.Minute,
	"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
	"jwt.issuer":                   "foodontracks",

	"cookie.domain":    "",
	"cookie.path":      "/",
	"cookie.secure":    false,
	"cookie.same_site": "lax",

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":             15 * time.Second,
	"http.write_timeout":            20 * time.Second,
	"http.idle_timeout":             time.Minute,
	"http.request_timeout":          15 * time.Second,
	"http.max_header_bytes":         1 << 20,
	"http.max_body_size":            2 << 20,
	"http.rate_limit_enabled":       false,
	"http.rate_limit_requests":      100,
	"http.rate_limit_window":        time.Minute,
	"http.auth_rate_limit_enabled":  false,
	"http.auth_rate_limit_requests": 5,
	"http.auth_rate_limit_window":   time.Minute,
	"http.cors_allow_origins":       []string{},
	"http.cors_allow_methods":       []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	"http.cors_allow_headers":       []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"},
	"http.trusted_proxies":          []string{},

	"storage.enabled":            false,
	"storage.bucket":             "foodontracks-menu",
	"storage.region":             "us-east-1",
	"storage.endpoint":           "",
	"storage.access_key_id":      "",
	"storage.secret_access_key":  "",
	"storage.use_path_style":     false,
	"storage.create_bucket":      false,
	"storage.presign_expiration": 15 * time.Minute,
	"storage.max_upload_size":    5 << 20,

	"cache.menu_ttl":       5 * time.Minute,
	"cache.restaurant_ttl": 10 * time.Minute,

	"ordering.allow_failure_injection": false,

	"swagger.enabled":      false,
	"swagger.require_auth": false,
	"swagger.allowed_ips":  []string{},

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "foodontracks-backend",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.pyroscope_url":           "http://localhost:4040",
}

// Load reads config.toml from the working directory or /app, then applies
// FOT_* environment overrides on top
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate reports every problem at once. Production adds rules that keep
// development conveniences out of a real deployment.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver == "postgres" || db.Driver == "sqlite",
		"database.driver must be postgres or sqlite, got %q", db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	sameSite := strings.ToLower(c.Cookie.SameSite)
	check(slices.Contains([]string{"strict", "lax", "none"}, sameSite),
		"cookie.same_site must be strict, lax or none, got %q", c.Cookie.SameSite)
	check(sameSite != "none" || c.Cookie.Secure, "cookie.same_site=none requires cookie.secure=true")

	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0 and 1, got %g", c.Telemetry.SamplingRatio)

	if c.App.IsProduction() {
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(db.Driver == "postgres", "database.driver must be postgres in production")
		check(db.Password != "", "database.password is required in production")
		check(c.Cookie.Secure, "cookie.secure must be true in production")
		check(!c.Ordering.AllowFailureInjection, "ordering.allow_failure_injection must be false in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot contain * in production")
		check(!c.Swagger.Enabled || c.Swagger.RequireAuth || len(c.Swagger.AllowedIPs) > 0,
			"swagger must be disabled, authenticated or IP restricted in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be false in production")
	}

	return errors.Join(errs...)
}

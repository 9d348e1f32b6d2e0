package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	AuthMode        string        `mapstructure:"AUTH_MODE"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	LedgerURL       string        `mapstructure:"LEDGER_URL"`
	LedgerTimeout   time.Duration `mapstructure:"LEDGER_TIMEOUT"`
	AuthIssuer      string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL     string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience    string        `mapstructure:"AUTH_AUDIENCE"`
	KYCBaseURL      string        `mapstructure:"KYC_BASE_URL"`
	KYCAuthMode     string        `mapstructure:"KYC_AUTH_MODE"`
	KYCBearerToken  string        `mapstructure:"KYC_BEARER_TOKEN"`
	KYCAPIKey       string        `mapstructure:"KYC_API_KEY"`
	ConsentValidity time.Duration `mapstructure:"CONSENT_VALIDITY"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS    float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"RATE_LIMIT_BURST"`
	TLSEnabled      bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile     string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile      string        `mapstructure:"TLS_KEY_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from ENV
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("LEDGER_TIMEOUT", "15s")
	v.SetDefault("KYC_AUTH_MODE", "bearer")
	v.SetDefault("CONSENT_VALIDITY", "59s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("AUTH_MODE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("LEDGER_URL")
	v.BindEnv("LEDGER_TIMEOUT")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("KYC_BASE_URL")
	v.BindEnv("KYC_AUTH_MODE")
	v.BindEnv("KYC_BEARER_TOKEN")
	v.BindEnv("KYC_API_KEY")
	v.BindEnv("CONSENT_VALIDITY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("TLS_ENABLED")
	v.BindEnv("TLS_CERT_FILE")
	v.BindEnv("TLS_KEY_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.LedgerURL == "" {
		return nil, fmt.Errorf("LEDGER_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevIdentityMiddleware is active — unauthenticated requests")
		log.Println("WARNING: are assigned a fixed development principal.")
		log.Println("WARNING: Set ENV=production and configure AUTH_ISSUER for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the gateway is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise, the mode is inferred:
//   - ENV=development → "development" (unauthenticated requests get a dev principal)
//   - Otherwise       → "delegation" (identity-provider delegation tokens)
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	return "delegation"
}

// Validate checks that the configuration is safe to run. In delegation mode
// an issuer or JWKS URL must be set so that real token verification is
// enforced. The KYC client refuses to start without a credential for its
// configured auth mode in production.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	if mode != "development" && mode != "delegation" {
		return fmt.Errorf("AUTH_MODE must be \"development\" or \"delegation\", got %q", mode)
	}
	if mode == "delegation" && c.AuthIssuer == "" && c.AuthJWKSURL == "" {
		return fmt.Errorf(
			"AUTH_ISSUER or AUTH_JWKS_URL must be set when AUTH_MODE is \"delegation\" (current ENV=%q). "+
				"Refusing to start without identity verification configuration", c.Env)
	}

	switch c.KYCAuthMode {
	case "bearer":
		if c.IsProduction() && c.KYCBaseURL != "" && c.KYCBearerToken == "" {
			return fmt.Errorf("KYC_BEARER_TOKEN is required in production when KYC_AUTH_MODE is \"bearer\"")
		}
	case "apikey":
		if c.IsProduction() && c.KYCBaseURL != "" && c.KYCAPIKey == "" {
			return fmt.Errorf("KYC_API_KEY is required in production when KYC_AUTH_MODE is \"apikey\"")
		}
	default:
		return fmt.Errorf("KYC_AUTH_MODE must be \"bearer\" or \"apikey\", got %q", c.KYCAuthMode)
	}

	if c.ConsentValidity <= 0 {
		return fmt.Errorf("CONSENT_VALIDITY must be positive, got %s", c.ConsentValidity)
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}

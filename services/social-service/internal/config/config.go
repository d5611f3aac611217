package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// SocialServiceConfig holds every setting of the social service, read once from the environment.
type SocialServiceConfig struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"social-service"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	// PublicURL is the externally reachable base URL of this API.
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`

	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	GRPC      GRPCConfig      `envPrefix:"GRPC_"`
	Mongo     MongoConfig     `envPrefix:"MONGO_"`
	Token     TokenConfig     `envPrefix:"TOKEN_"`
	Google    GoogleConfig    `envPrefix:"GOOGLE_"`
	SMTP      SMTPConfig      `envPrefix:"SMTP_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
	Consul    ConsulConfig    `envPrefix:"CONSUL_"`
	Events    EventsConfig    `envPrefix:"EVENTS_"`
}

type HTTPConfig struct {
	Host            string        `env:"HOST"             envDefault:"0.0.0.0"`
	Port            int           `env:"PORT"             envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT"     envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT"    envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`
}

// GRPCConfig configures the gRPC listener that only serves the health protocol.
type GRPCConfig struct {
	Port int `env:"PORT" envDefault:"9090"`
}

type MongoConfig struct {
	URI            string        `env:"URI,required,notEmpty"`
	Database       string        `env:"DATABASE"        envDefault:"jobfeed"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

type TokenConfig struct {
	Secret    string        `env:"SECRET,required,notEmpty"`
	Issuer    string        `env:"ISSUER"     envDefault:"jobfeed-api"`
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"168h"`
}

type GoogleConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// Enabled reports whether enough settings are present to offer Google sign-in.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"     envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Enabled reports whether an SMTP relay was configured. Without one, mails are logged and dropped.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type LogConfig struct {
	Level  string `env:"LEVEL"  envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type RateLimitConfig struct {
	AuthPerMinute int `env:"AUTH_PER_MINUTE" envDefault:"20"`
	AuthBurst     int `env:"AUTH_BURST"      envDefault:"10"`
}

type ConsulConfig struct {
	Address string `env:"ADDRESS"`
	// AdvertiseHost is the address other services use to reach this one.
	AdvertiseHost string `env:"ADVERTISE_HOST" envDefault:"localhost"`
}

type EventsConfig struct {
	BufferSize int `env:"BUFFER_SIZE" envDefault:"256"`
}

// Load parses the environment into a SocialServiceConfig and validates it.
func Load() (*SocialServiceConfig, error) {
	cfg, err := env.ParseAs[SocialServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *SocialServiceConfig) validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("TOKEN_SECRET must be at least 32 characters")
	}
	if c.Token.ExpiresIn <= 0 {
		return errors.New("TOKEN_EXPIRES_IN must be positive")
	}
	if c.SMTP.Enabled() && c.SMTP.From == "" {
		return errors.New("missing SMTP_FROM environment variable")
	}
	if c.RateLimit.AuthPerMinute <= 0 || c.RateLimit.AuthBurst <= 0 {
		return errors.New("RATE_LIMIT_AUTH_PER_MINUTE and RATE_LIMIT_AUTH_BURST must be positive")
	}
	if c.Events.BufferSize <= 0 {
		return errors.New("EVENTS_BUFFER_SIZE must be positive")
	}

	return nil
}

// VerificationURL is the endpoint linked from verification mails.
func (c *SocialServiceConfig) VerificationURL() string {
	return strings.TrimRight(c.PublicURL, "/") + "/auth/verification"
}

// HTTPAddr returns the listen address of the REST API.
func (c *SocialServiceConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

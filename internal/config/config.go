// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Contact   ContactConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host           string
	Port           int
	BaseURL        string
	SiteName       string
	MaxBodySize    int // in MB
	TrustedProxies []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// ContactConfig holds the recipient of contact-form relays.
type ContactConfig struct {
	To string
}

// RateLimitConfig carries the fixed-window limits for the submission
// endpoints and the in-process flood guard settings.
type RateLimitConfig struct { //nolint:govet // fieldalignment not critical for config structs
	WindowSeconds  int
	SubscribeLimit int
	ContactLimit   int
	SurveyLimit    int
	FloodRPS       float64
	FloodBurst     int
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:           cmd.String("host"),
			Port:           int(cmd.Int("port")),
			BaseURL:        cmd.String("base-url"),
			SiteName:       cmd.String("site-name"),
			MaxBodySize:    int(cmd.Int("max-body-size")),
			TrustedProxies: cmd.StringSlice("trusted-proxies"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Contact: ContactConfig{
			To: cmd.String("contact-to"),
		},
		RateLimit: RateLimitConfig{
			WindowSeconds:  int(cmd.Int("rate-limit-window")),
			SubscribeLimit: int(cmd.Int("rate-limit-subscribe")),
			ContactLimit:   int(cmd.Int("rate-limit-contact")),
			SurveyLimit:    int(cmd.Int("rate-limit-survey")),
			FloodRPS:       cmd.Float("flood-guard-rps"),
			FloodBurst:     int(cmd.Int("flood-guard-burst")),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Contact.To == "" {
		cfg.Contact.To = cfg.SMTP.From
	}

	return cfg
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL used in confirmation links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.StringFlag{
			Name:    "site-name",
			Value:   "Glowbook",
			Usage:   "Site name used in emails and page metadata",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SITE_NAME"), toml.TOML("server.site_name", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringSliceFlag{
			Name:    "trusted-proxies",
			Value:   []string{"127.0.0.1", "::1"},
			Usage:   "Peer addresses whose X-Forwarded-For header is trusted",
			Sources: cli.NewValueSourceChain(cli.EnvVar("TRUSTED_PROXIES"), toml.TOML("server.trusted_proxies", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/waitlist.db",
			Usage:   "Database DSN",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_DSN"), toml.TOML("database.dsn", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_HOST"), toml.TOML("smtp.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PORT"), toml.TOML("smtp.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_USERNAME"), toml.TOML("smtp.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_PASSWORD"), toml.TOML("smtp.password", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM"), toml.TOML("smtp.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Usage:   "Sender display name for outgoing mail",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_FROM_NAME"), toml.TOML("smtp.from_name", configFile)),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SMTP_TLS"), toml.TOML("smtp.tls", configFile)),
		},
		&cli.StringFlag{
			Name:    "contact-to",
			Usage:   "Recipient of contact form messages (defaults to smtp-from)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("CONTACT_TO"), toml.TOML("contact.to", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-window",
			Value:   3600,
			Usage:   "Rate limit window in seconds",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_WINDOW"), toml.TOML("rate_limit.window_seconds", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-subscribe",
			Value:   5,
			Usage:   "Max subscribe requests per window per IP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_SUBSCRIBE"), toml.TOML("rate_limit.subscribe", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-contact",
			Value:   5,
			Usage:   "Max contact requests per window per IP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_CONTACT"), toml.TOML("rate_limit.contact", configFile)),
		},
		&cli.IntFlag{
			Name:    "rate-limit-survey",
			Value:   5,
			Usage:   "Max survey requests per window per IP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RATE_LIMIT_SURVEY"), toml.TOML("rate_limit.survey", configFile)),
		},
		&cli.FloatFlag{
			Name:    "flood-guard-rps",
			Value:   5,
			Usage:   "In-process flood guard: sustained requests per second per IP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLOOD_GUARD_RPS"), toml.TOML("rate_limit.flood_rps", configFile)),
		},
		&cli.IntFlag{
			Name:    "flood-guard-burst",
			Value:   20,
			Usage:   "In-process flood guard: burst size per IP",
			Sources: cli.NewValueSourceChain(cli.EnvVar("FLOOD_GUARD_BURST"), toml.TOML("rate_limit.flood_burst", configFile)),
		},
	}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"reservas/internal/utils"
)

const (
	EnvLocal = "local"
	EnvDev   = "development"
	EnvProd  = "production"

	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type SMTPConfig struct {
	Host   string
	Port   int `validate:"gte=1,lte=65535"`
	Secure bool
	User   string
	Pass   string
	From   string
}

// Enabled reports whether the SMTP transport has enough credentials to send.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string `validate:"omitempty,email"`
	FromName  string
}

func (c SendGridConfig) Enabled() bool {
	return c.APIKey != "" && c.FromEmail != ""
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

type Config struct {
	Env      string `validate:"oneof=local development production"`
	Port     string `validate:"required,numeric"`
	SiteName string `validate:"required"`
	// Shown in the client confirmation email when set.
	SiteAddress string
	SiteMapsURL string `validate:"omitempty,url"`

	BusinessEmail string `validate:"omitempty,email"`
	NotifyTo      string `validate:"omitempty,email"`

	OpenTime  string
	CloseTime string
	OpenDays  map[time.Weekday]bool
	Location  *time.Location `validate:"required"`

	StoreDriver string `validate:"oneof=file postgres"`
	DataDir     string `validate:"required_if=StoreDriver file"`
	DatabaseURL string `validate:"required_if=StoreDriver postgres"`
	StaticDir   string
	// Take the client address from X-Forwarded-For when behind a proxy.
	TrustProxy bool

	SMTP     SMTPConfig
	SendGrid SendGridConfig
	Twilio   TwilioConfig

	NotifyTimeout   time.Duration `validate:"gt=0"`
	DigestCron      string
	RateLimitMax    int           `validate:"gte=0"`
	RateLimitWindow time.Duration `validate:"gt=0"`
}

// InternalRecipient is where new-reservation notices go.
func (c Config) InternalRecipient() string {
	switch {
	case c.NotifyTo != "":
		return c.NotifyTo
	case c.BusinessEmail != "":
		return c.BusinessEmail
	default:
		return c.SMTP.User
	}
}

// ReservationsFile is the JSON file used by the file store.
func (c Config) ReservationsFile() string {
	return filepath.Join(c.DataDir, "reservations.json")
}

// FromEnv reads the configuration from the environment. OPEN_TIME and
// CLOSE_TIME are not validated here: malformed bounds disable the hours check.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:           envDefault("APP_ENV", EnvLocal),
		Port:          envDefault("PORT", "3000"),
		SiteName:      envDefault("SITE_NAME", "Restaurante La Escondida"),
		SiteAddress:   strings.TrimSpace(os.Getenv("SITE_ADDRESS")),
		SiteMapsURL:   strings.TrimSpace(os.Getenv("SITE_MAPS_URL")),
		BusinessEmail: strings.TrimSpace(os.Getenv("BUSINESS_EMAIL")),
		NotifyTo:      strings.TrimSpace(os.Getenv("NOTIFY_TO")),
		OpenTime:      envDefault("OPEN_TIME", "12:00"),
		CloseTime:     envDefault("CLOSE_TIME", "22:00"),
		StoreDriver:   strings.ToLower(envDefault("STORE_DRIVER", DriverFile)),
		DataDir:       envDefault("DATA_DIR", "data"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StaticDir:     envDefault("STATIC_DIR", "public"),
		DigestCron:    strings.TrimSpace(os.Getenv("DIGEST_CRON")),
		TrustProxy:    strings.EqualFold(envDefault("TRUST_PROXY", "false"), "true"),
		SMTP: SMTPConfig{
			Host:   strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Secure: strings.EqualFold(envDefault("SMTP_SECURE", "false"), "true"),
			User:   strings.TrimSpace(os.Getenv("SMTP_USER")),
			Pass:   os.Getenv("SMTP_PASS"),
		},
		SendGrid: SendGridConfig{
			APIKey:    strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
			FromEmail: strings.TrimSpace(os.Getenv("SENDGRID_FROM_EMAIL")),
			FromName:  strings.TrimSpace(os.Getenv("SENDGRID_FROM_NAME")),
		},
		Twilio: TwilioConfig{
			AccountSID: strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
			AuthToken:  strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
			FromNumber: strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER")),
		},
	}
	cfg.SMTP.From = envDefault("SMTP_FROM", fmt.Sprintf("%s <no-reply@localhost>", cfg.SiteName))
	if cfg.SendGrid.FromName == "" {
		cfg.SendGrid.FromName = cfg.SiteName
	}

	var err error
	cfg.SMTP.Port, err = strconv.Atoi(envDefault("SMTP_PORT", "587"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.OpenDays, err = utils.ParseOpenDays(envDefault("OPEN_DAYS", "tue,wed,thu,fri,sat,sun"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid OPEN_DAYS: %w", err)
	}

	cfg.Location, err = time.LoadLocation(envDefault("TIMEZONE", "America/Santiago"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	if cfg.NotifyTimeout, err = durationEnv("NOTIFY_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return Config{}, err
	}
	cfg.RateLimitMax, err = strconv.Atoi(envDefault("RATE_LIMIT_MAX", "5"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_MAX: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func envDefault(k, d string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	return v
}

func durationEnv(k string, d time.Duration) (time.Duration, error) {
	v := envDefault(k, "")
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return dur, nil
}

package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Mutter0815/TripIntake/internal/intake"
)

// Source is a key/value configuration source. *viper.Viper satisfies it.
type Source interface {
	GetString(key string) string
}

// MapSource serves keys from a literal map.
type MapSource map[string]string

func (m MapSource) GetString(key string) string { return m[key] }

type MailConfig struct {
	Provider      string
	From          string
	OperatorEmail string
	ReplyTo       string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
}

type APIConfig struct {
	Port           string
	DBDSN          string
	Mail           MailConfig
	MinFill        time.Duration
	StoreTimeout   time.Duration
	MailTimeout    time.Duration
	RMQURL         string
	Queue          string
	RedisURL       string
	RateLimit      int
	AdminToken     string
	CORSOrigins    []string
	MigrateOnStart bool
}

// NewSource loads an optional .env file into the environment and returns a viper
// instance reading environment variables.
func NewSource(envFile string) (*viper.Viper, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	v := viper.New()
	v.AutomaticEnv()
	return v, nil
}

type loader struct {
	src     Source
	missing []string
}

func (l *loader) get(k, def string) string {
	if v := strings.TrimSpace(l.src.GetString(k)); v != "" {
		return v
	}
	return def
}

func (l *loader) must(k string) string {
	v := strings.TrimSpace(l.src.GetString(k))
	if v == "" {
		l.missing = append(l.missing, k)
	}
	return v
}

func (l *loader) duration(k string, def time.Duration) time.Duration {
	raw := l.get(k, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func (l *loader) integer(k string, def int) int {
	if n, err := strconv.Atoi(l.get(k, "")); err == nil && n > 0 {
		return n
	}
	return def
}

// LoadAPI reads the intake-api configuration. Every missing required key is
// reported in one *intake.ConfigurationError.
func LoadAPI(src Source) (APIConfig, error) {
	l := &loader{src: src}

	cfg := APIConfig{
		Port:         l.get("PORT", "8080"),
		DBDSN:        l.must("DB_DSN"),
		MinFill:      l.duration("MIN_FILL_SECONDS", 3*time.Second),
		StoreTimeout: l.duration("STORE_TIMEOUT", 10*time.Second),
		MailTimeout:  l.duration("MAIL_TIMEOUT", 10*time.Second),
		RMQURL:       l.get("RMQ_URL", ""),
		Queue:        l.get("QUEUE", "intake_submissions"),
		RedisURL:     l.get("REDIS_URL", ""),
		RateLimit:    l.integer("RATE_LIMIT_PER_MINUTE", 20),
		AdminToken:   l.get("ADMIN_TOKEN", ""),
		CORSOrigins:  splitList(l.get("CORS_ORIGINS", "*")),
	}
	cfg.MigrateOnStart, _ = strconv.ParseBool(l.get("MIGRATE_ON_START", "false"))

	cfg.Mail = MailConfig{
		Provider:      strings.ToLower(l.get("MAIL_PROVIDER", "resend")),
		From:          l.must("MAIL_FROM"),
		OperatorEmail: l.must("NOTIFY_EMAIL"),
		ReplyTo:       l.get("MAIL_REPLY_TO", ""),
	}
	switch cfg.Mail.Provider {
	case "smtp":
		cfg.Mail.SMTPHost = l.must("SMTP_HOST")
		cfg.Mail.SMTPPort = l.integer("SMTP_PORT", 587)
		cfg.Mail.SMTPUsername = l.must("SMTP_USERNAME")
		cfg.Mail.SMTPPassword = l.must("SMTP_PASSWORD")
	default:
		cfg.Mail.Provider = "resend"
		cfg.Mail.ResendAPIKey = l.must("RESEND_API_KEY")
	}

	if len(l.missing) > 0 {
		return cfg, &intake.ConfigurationError{Missing: l.missing}
	}
	return cfg, nil
}

// LoadDB reads only what the migrate command needs.
func LoadDB(src Source) (string, error) {
	l := &loader{src: src}
	dsn := l.must("DB_DSN")
	if len(l.missing) > 0 {
		return "", &intake.ConfigurationError{Missing: l.missing}
	}
	return dsn, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

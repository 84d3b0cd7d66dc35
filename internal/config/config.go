package config

import (
	"log"
	"os"
	"strings"
	"time"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBDriver       string // "mysql" or "sqlite3"
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBPath         string // sqlite file path (sqlite3 only)
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing
	OTPTTL         time.Duration
	OTPPurgeCron   string   // cron spec for the expired-code sweep
	EventsFile     string   // optional static event list (.json, .yaml, .yml)
	CORSOrigins    []string // allowed browser origins
	RabbitURL      string   // AMQP url; empty disables the queue
	PublicURL      string   // base URL encoded into event QR codes
	ReviewLogDir   string   // where the consumer appends reviews.log
	Mail           MailConfig
}

// MailConfig selects the outgoing mail transport.  With an empty SMTPAddr
// messages are only logged.
type MailConfig struct {
	From     string
	SMTPAddr string // host:port
	User     string
	Pass     string
}

// IsSQLite reports whether the sqlite3 driver is selected.
func (c Config) IsSQLite() bool { return c.DBDriver == "sqlite3" }

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  MySQL connection
// settings are only required when DB_DRIVER is mysql.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBDriver:       envStr("DB_DRIVER", "mysql"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 43200),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		OTPTTL:         time.Duration(envInt("OTP_EXPIRY_MINUTES", 10)) * time.Minute,
		OTPPurgeCron:   envStr("OTP_PURGE_CRON", "@every 1m"),
		EventsFile:     os.Getenv("EVENTS_FILE"),
		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "http://localhost:5500,http://127.0.0.1:5500")),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
		ReviewLogDir:   envStr("REVIEW_LOG_DIR", "logs"),
		Mail: MailConfig{
			From:     envStr("MAIL_FROM", "no-reply@eventica.local"),
			SMTPAddr: os.Getenv("SMTP_ADDR"),
			User:     os.Getenv("SMTP_USER"),
			Pass:     os.Getenv("SMTP_PASS"),
		},
	}
	switch cfg.DBDriver {
	case "sqlite3":
		cfg.DBPath = envStr("DB_PATH", "eventica.db")
	case "mysql":
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	cfg.PublicURL = strings.TrimRight(envStr("PUBLIC_URL", "http://localhost:"+cfg.Port), "/")
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	return cfg
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

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

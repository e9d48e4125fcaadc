package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort string
	CORSOrigin string

	MongoURI    string
	MongoDBName string

	JWTSecret string
	JWTTTL    time.Duration

	LogFile  string
	LogLevel string

	Email EmailConfig

	PasswordBlacklist string

	CassandraHosts    []string
	CassandraKeyspace string

	Neo4jURI      string
	Neo4jUsername string
	Neo4jPassword string
}

type EmailConfig struct {
	From     string
	Password string
	SMTPHost string
	SMTPPort string
}

// Enabled reports whether outbound mail can be sent.
func (e EmailConfig) Enabled() bool {
	return e.From != "" && e.Password != "" && e.SMTPHost != ""
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	cfg := &Config{
		Env:         getEnv("ENV", "production"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "yoosprint"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      ttl,
		LogFile:     getEnv("LOG_FILE", "logs/yoosprint.log"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Email: EmailConfig{
			From:     os.Getenv("EMAIL_FROM"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			SMTPHost: getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort: getEnv("SMTP_PORT", "587"),
		},
		PasswordBlacklist: os.Getenv("PASSWORD_BLACKLIST"),
		CassandraHosts:    splitList(os.Getenv("CASS_DB")),
		CassandraKeyspace: getEnv("CASS_KEYSPACE", "notifications"),
		Neo4jURI:          os.Getenv("NEO4J_URI"),
		Neo4jUsername:     os.Getenv("NEO4J_USERNAME"),
		Neo4jPassword:     os.Getenv("NEO4J_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" {
			return nil, errors.New("JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = "yoosprint-dev-secret"
	}
	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT %q", cfg.ServerPort)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.ServerPort
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      Server
	Database    Database
	Remote      Remote
	Query       Query
	Auth        Auth
	Logger      Logger
	Collections string
}

type Server struct {
	Host string
	Port int
}

type Database struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type Remote struct {
	Timeout time.Duration
}

type Query struct {
	DefaultMaxRec int
	MaxMaxRec     int
	Timeout       time.Duration
	RateLimit     float64
	RateBurst     int
}

type Auth struct {
	Enabled bool
}

type Logger struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "sia")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "obscore")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("REMOTE_TIMEOUT", "60s")
	v.SetDefault("QUERY_DEFAULT_MAXREC", 1000)
	v.SetDefault("QUERY_MAX_MAXREC", 100000)
	v.SetDefault("QUERY_TIMEOUT", "120s")
	v.SetDefault("QUERY_RATE_LIMIT", 10.0)
	v.SetDefault("QUERY_RATE_BURST", 20)
	v.SetDefault("AUTH_ENABLED", true)
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")
	v.SetDefault("COLLECTIONS_PATH", "/etc/sia/collections.yaml")

	// Env
	v.AutomaticEnv()

	cfg := &Config{
		Server: Server{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: Database{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Remote: Remote{
			Timeout: v.GetDuration("REMOTE_TIMEOUT"),
		},
		Query: Query{
			DefaultMaxRec: v.GetInt("QUERY_DEFAULT_MAXREC"),
			MaxMaxRec:     v.GetInt("QUERY_MAX_MAXREC"),
			Timeout:       v.GetDuration("QUERY_TIMEOUT"),
			RateLimit:     v.GetFloat64("QUERY_RATE_LIMIT"),
			RateBurst:     v.GetInt("QUERY_RATE_BURST"),
		},
		Auth: Auth{
			Enabled: v.GetBool("AUTH_ENABLED"),
		},
		Logger: Logger{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		Collections: v.GetString("COLLECTIONS_PATH"),
	}

	if cfg.Query.DefaultMaxRec > cfg.Query.MaxMaxRec {
		return nil, fmt.Errorf("QUERY_DEFAULT_MAXREC (%d) exceeds QUERY_MAX_MAXREC (%d)",
			cfg.Query.DefaultMaxRec, cfg.Query.MaxMaxRec)
	}

	return cfg, nil
}

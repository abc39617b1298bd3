package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	EnvPrefix       = "CATALOG_"
	MinJwtKeyLength = 32
)

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	Server       Server        `yaml:"server"`
	Pg           Pg            `yaml:"pg"`
	Session      Session       `yaml:"session"`
	Log          Log           `yaml:"log"`
	BcryptCost   int           `yaml:"bcrypt_cost" validate:"gte=4,lte=31"`
	StoreTimeout time.Duration `yaml:"store_timeout" validate:"gt=0"`
	Cors         Cors          `yaml:"cors"`
	Audit        Audit         `yaml:"audit"`
}

type Server struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	HTTPS           bool          `yaml:"https"`
}

type Pg struct {
	Host    string `yaml:"host" validate:"required"`
	Port    int    `yaml:"port" validate:"gt=0"`
	User    string `yaml:"user" validate:"required"`
	Dbname  string `yaml:"dbname" validate:"required"`
	SSLMode string `yaml:"sslmode"`
	Migrate bool   `yaml:"migrate"`
}

type Session struct {
	TTL          time.Duration `yaml:"ttl"`
	Issuer       string        `yaml:"issuer"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Cors struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Audit struct {
	Topic string `yaml:"topic"`
}

// Private settings never live in files under version control.
type Private struct {
	JwtKey     string `env:"JWT_KEY"`
	PgPassword string `env:"PG_PASSWORD"`
	RedisURL   string `env:"REDIS_URL"`
}

func (s *Config) JwtKey() string {
	return s.private.JwtKey
}

func (s *Config) PgPassword() string {
	return s.private.PgPassword
}

// RedisURL is empty when Redis is not configured.
func (s *Config) RedisURL() string {
	return s.private.RedisURL
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.Session.TTL
}

// Validate rejects configurations the API must not start with.
func (s *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s.Public); err != nil {
		return fmt.Errorf("invalid public config: %w", err)
	}
	if s.Public.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if len(s.private.JwtKey) < MinJwtKeyLength {
		return fmt.Errorf("%sJWT_KEY must be at least %d bytes", EnvPrefix, MinJwtKeyLength)
	}
	return nil
}

func defaults() Public {
	return Public{
		Server:       Server{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Pg:           Pg{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Session:      Session{TTL: 30 * 24 * time.Hour, Issuer: "catalog-auth"},
		Log:          Log{Level: "info"},
		BcryptCost:   10,
		StoreTimeout: 3 * time.Second,
		Audit:        Audit{Topic: "catalog.auth"},
	}
}

func loadPath(configPath string, output interface{}) error {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml from configFolder and private settings from the
// environment. A .env file in configFolder, if present, seeds the environment
// without overriding variables that are already set.
func Load(configFolder string) (*Config, error) {
	public := defaults()
	if err := loadPath(path.Join(configFolder, "public.yaml"), &public); err != nil {
		return nil, err
	}

	if err := godotenv.Load(path.Join(configFolder, ".env")); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	var private Private
	if err := env.ParseWithOptions(&private, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse private config: %w", err)
	}

	cfg := &Config{Public: public, private: private}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err)
	}
	return cfg
}

// New builds a Config in code. Used by tests and tools.
func New(public Public, private Private) *Config {
	return &Config{Public: public, private: private}
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Contest   []string  `yaml:"contest"`
	Logger    Logger    `yaml:"logger"`
	Storage   Storage   `yaml:"storage"`
	Auth      Auth      `yaml:"auth"`
	Listen    string    `yaml:"listen" validate:"required"`
	Admin     Admin     `yaml:"admin"`
	CORS      CORS      `yaml:"cors"`
	Judge     Judge     `yaml:"judge"`
	Standings Standings `yaml:"standings"`
}

type Logger struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

type Storage struct {
	Database string `yaml:"database" validate:"required"`
}

type Auth struct {
	JWT JWT `yaml:"jwt"`
}

type JWT struct {
	Secret      string `yaml:"secret" validate:"required,min=8"`
	ExpireHours int    `yaml:"expire_hours" validate:"min=1"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen" validate:"required_if=Enabled true"`
}

// Judge configures the Codeforces API client.
type Judge struct {
	BaseURL        string        `yaml:"base_url" validate:"required,url"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout" validate:"min=0"`
	RateLimit      float64       `yaml:"rate_limit" validate:"gt=0"`
	Burst          int           `yaml:"burst" validate:"min=1"`
	MaxConcurrency int           `yaml:"max_concurrency" validate:"min=1,max=64"`
	APIKey         string        `yaml:"api_key"`
	APISecret      string        `yaml:"api_secret" validate:"required_with=APIKey"`
}

type Standings struct {
	SettleDelay     time.Duration `yaml:"settle_delay" validate:"min=0"`
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"min=1s"`
	AttemptPenalty  int           `yaml:"attempt_penalty" validate:"min=1"`
}

// Defaults returns a config with every optional value filled in.
func Defaults() Config {
	return Config{
		Listen:  ":8080",
		Logger:  Logger{Level: "info"},
		Storage: Storage{Database: "data/arena.db"},
		Auth:    Auth{JWT: JWT{ExpireHours: 72}},
		Admin:   Admin{Listen: "127.0.0.1:8081"},
		Judge: Judge{
			BaseURL:        "https://codeforces.com/api",
			FetchTimeout:   20 * time.Second,
			RateLimit:      0.5,
			Burst:          1,
			MaxConcurrency: 8,
		},
		Standings: Standings{
			SettleDelay:     5 * time.Second,
			RefreshInterval: 60 * time.Second,
			AttemptPenalty:  20,
		},
	}
}

// Load reads path over Defaults, applies environment overrides and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads a .env file into the process environment when present.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		zap.S().Debugf("no .env loaded: %v", err)
	}
}

// Path resolves the config file to use: the flag value, then ARENA_CONFIG,
// then config.yaml.
func Path(flag string) string {
	if flag != "" {
		return flag
	}
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CF_API_KEY"); v != "" {
		c.Judge.APIKey = v
	}
	if v := os.Getenv("CF_API_SECRET"); v != "" {
		c.Judge.APISecret = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWT.Secret = v
	}
}

func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

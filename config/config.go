package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "./config/config.prod.yml"

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		Mode        string   `yaml:"mode"` // "development" or "production"
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	Verifier struct {
		Provider   string        `yaml:"provider"` // "gemini" or "openrouter"
		Model      string        `yaml:"model"`
		Timeout    time.Duration `yaml:"timeout"`
		GeminiKey  string        `yaml:"geminiKey"`
		OpenRouter struct {
			APIKey string `yaml:"apiKey"`
			URL    string `yaml:"url"`
		} `yaml:"openRouter"`
	} `yaml:"verifier"`

	Redis struct {
		Addr       string        `yaml:"addr"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		CatalogTTL time.Duration `yaml:"catalogTTL"`
	} `yaml:"redis"`

	RateLimit struct {
		CheckAnswerPerMinute int `yaml:"checkAnswerPerMinute"`
	} `yaml:"rateLimit"`

	S3 struct {
		Region  string `yaml:"region"`
		Bucket  string `yaml:"bucket"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"s3"`

	Streak struct {
		ResetTo int `yaml:"resetTo"`
	} `yaml:"streak"`

	Daily struct {
		Puzzles    int `yaml:"puzzles"`
		Challenges int `yaml:"challenges"`
	} `yaml:"daily"`

	Scheduler struct {
		Enabled      *bool         `yaml:"enabled"`
		Timezone     string        `yaml:"timezone"`
		DailyCron    string        `yaml:"dailyCron"`
		RolloverCron string        `yaml:"rolloverCron"`
		JobTimeout   time.Duration `yaml:"jobTimeout"`
	} `yaml:"scheduler"`
}

// LoadConfig reads the YAML file, then lets environment variables (and a
// .env file, when present) override secrets, and fills defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := map[string]*string{
		"MONGODB_URI":     &c.Database.URI,
		"JWT_SECRET":      &c.JWT.Secret,
		"GEMINI_API_KEY":  &c.Verifier.GeminiKey,
		"OPEN_ROUTER_KEY": &c.Verifier.OpenRouter.APIKey,
		"REDIS_ADDR":      &c.Redis.Addr,
		"REDIS_PASSWORD":  &c.Redis.Password,
		"S3_BUCKET":       &c.S3.Bucket,
		"AWS_REGION":      &c.S3.Region,
	}
	for key, dst := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 1313
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "development"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:5173"}
	}
	if c.Verifier.Provider == "" {
		c.Verifier.Provider = "gemini"
	}
	if c.Verifier.Timeout == 0 {
		c.Verifier.Timeout = 15 * time.Second
	}
	if c.Redis.CatalogTTL == 0 {
		c.Redis.CatalogTTL = 5 * time.Minute
	}
	if c.RateLimit.CheckAnswerPerMinute == 0 {
		c.RateLimit.CheckAnswerPerMinute = 30
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
	if c.Streak.ResetTo < 0 {
		c.Streak.ResetTo = 0
	}
	if c.Daily.Puzzles == 0 {
		c.Daily.Puzzles = 1
	}
	if c.Daily.Challenges == 0 {
		c.Daily.Challenges = 2
	}
	if c.Scheduler.Enabled == nil {
		enabled := true
		c.Scheduler.Enabled = &enabled
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "UTC"
	}
	if c.Scheduler.DailyCron == "" {
		c.Scheduler.DailyCron = "30 1 * * *"
	}
	if c.Scheduler.RolloverCron == "" {
		c.Scheduler.RolloverCron = "*/15 * * * *"
	}
	if c.Scheduler.JobTimeout == 0 {
		c.Scheduler.JobTimeout = 5 * time.Minute
	}
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

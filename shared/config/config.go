package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Selector   SelectorConfig   `yaml:"selector"`
	Planner    PlannerConfig    `yaml:"planner"`
	Server     ServerConfig     `yaml:"server"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Digest     DigestConfig     `yaml:"digest"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

type YouTubeConfig struct {
	APIKey            string  `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID          string  `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret      string  `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile         string  `yaml:"token_file"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type SelectorConfig struct {
	// MaxRetries and ThresholdMinutes are pointers so an explicit 0 survives
	// defaulting.
	MaxRetries         *int     `yaml:"max_retries"`
	ThresholdMinutes   *float64 `yaml:"threshold_minutes"`
	MinDurationMinutes float64  `yaml:"min_duration_minutes"`
	SearchLimit        int      `yaml:"search_limit"`
	FastFirstAttempt   *bool    `yaml:"fast_first_attempt"`
}

type PlannerConfig struct {
	DurationSlackMinutes    float64 `yaml:"duration_slack_minutes"`
	Concurrency             int     `yaml:"concurrency"`
	SelectionTimeoutSeconds int     `yaml:"selection_timeout_seconds"`
}

type ServerConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type CacheConfig struct {
	RedisURL   string `yaml:"redis_url" env:"REDIS_URL"`
	TTLMinutes int    `yaml:"ttl_minutes"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // file or sqlite
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

type DigestConfig struct {
	Schedule string        `yaml:"schedule"`
	Topics   []DigestTopic `yaml:"topics"`
}

type DigestTopic struct {
	Topic   string  `yaml:"topic"`
	Minutes float64 `yaml:"minutes"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads the file named by CONFIG_FILE (default config.yaml). A missing
// file is not an error; everything can come from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFile(configPath())
}

func LoadFile(configFile string) (*Config, error) {
	cfg, err := load(configFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadYouTube loads the configuration like Load but only checks the YouTube
// settings. It serves commands that never reach Gemini or SMTP.
func LoadYouTube() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := load(configPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.validateYouTube(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func configPath() string {
	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		return configFile
	}
	return "config.yaml"
}

func load(configFile string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setFromEnv(&c.YouTube.APIKey, "YOUTUBE_API_KEY")
	setFromEnv(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	setFromEnv(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setFromEnv(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setFromEnv(&c.Email.Username, "EMAIL_USERNAME")
	setFromEnv(&c.Email.Password, "EMAIL_PASSWORD")
	setFromEnv(&c.Cache.RedisURL, "REDIS_URL")

	if c.Server.Port == 0 {
		if port := os.Getenv("PORT"); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("invalid PORT %q: %w", port, err)
			}
			c.Server.Port = p
		}
	}
	return nil
}

func setFromEnv(field *string, key string) {
	if *field == "" {
		*field = os.Getenv(key)
	}
}

func (c *Config) applyDefaults() {
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.RequestsPerSecond <= 0 {
		c.YouTube.RequestsPerSecond = 5
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}

	if c.Selector.MaxRetries == nil {
		retries := 4
		c.Selector.MaxRetries = &retries
	}
	if c.Selector.ThresholdMinutes == nil {
		threshold := 5.0
		c.Selector.ThresholdMinutes = &threshold
	}
	if c.Selector.MinDurationMinutes == 0 {
		c.Selector.MinDurationMinutes = 2
	}
	if c.Selector.SearchLimit == 0 {
		c.Selector.SearchLimit = 15
	}
	if c.Selector.FastFirstAttempt == nil {
		fast := true
		c.Selector.FastFirstAttempt = &fast
	}

	if c.Planner.DurationSlackMinutes == 0 {
		c.Planner.DurationSlackMinutes = 10
	}
	if c.Planner.Concurrency == 0 {
		c.Planner.Concurrency = 4
	}

	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 24 * 60
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.Path == "" {
		if c.Storage.Backend == "sqlite" {
			c.Storage.Path = "data/plans.db"
		} else {
			c.Storage.Path = "data"
		}
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 30
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
}

func (c *Config) validateYouTube() error {
	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if *c.Selector.MaxRetries < 0 {
		return fmt.Errorf("selector.max_retries must not be negative")
	}
	if *c.Selector.ThresholdMinutes < 0 {
		return fmt.Errorf("selector.threshold_minutes must not be negative")
	}
	if c.Selector.SearchLimit < 1 || c.Selector.SearchLimit > 50 {
		return fmt.Errorf("selector.search_limit must be between 1 and 50")
	}
	if c.Planner.Concurrency < 1 {
		return fmt.Errorf("planner.concurrency must be at least 1")
	}
	if c.Storage.Backend != "file" && c.Storage.Backend != "sqlite" {
		return fmt.Errorf("storage.backend must be file or sqlite, got %q", c.Storage.Backend)
	}
	for _, t := range c.Digest.Topics {
		if t.Topic == "" || t.Minutes <= 0 {
			return fmt.Errorf("digest topics need a topic and positive minutes")
		}
	}
	return nil
}

// ValidateEmail checks the settings needed to send digest emails.
func (c *Config) ValidateEmail() error {
	if c.Email.SMTPServer == "" {
		return fmt.Errorf("SMTP server is required (email.smtp_server)")
	}
	if c.Email.Username == "" {
		return fmt.Errorf("Email username is required (set EMAIL_USERNAME or email.username)")
	}
	if c.Email.Password == "" {
		return fmt.Errorf("Email password is required (set EMAIL_PASSWORD or email.password)")
	}
	if c.Email.ToEmail == "" || c.Email.FromEmail == "" {
		return fmt.Errorf("email.from_email and email.to_email are required")
	}
	return nil
}

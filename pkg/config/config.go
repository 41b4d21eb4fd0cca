package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	PhantombusterAPIKey string `mapstructure:"PHANTOMBUSTER_API_KEY"`
	ProfilePostsAgentID string `mapstructure:"PB_PROFILE_POSTS_AGENT_ID"`
	SearchPostsAgentID  string `mapstructure:"PB_SEARCH_POSTS_AGENT_ID"`
	SessionCookie       string `mapstructure:"LINKEDIN_SESSION_COOKIE"`
	UserAgent           string `mapstructure:"LINKEDIN_USER_AGENT"`

	MaxPostsPerCrawl        int `mapstructure:"MAX_POSTS_PER_CRAWL"`
	MinRecrawlIntervalHours int `mapstructure:"MIN_RECRAWL_INTERVAL_HOURS"`
	JobTimeoutSeconds       int `mapstructure:"JOB_TIMEOUT_SECONDS"`
	PollIntervalSeconds     int `mapstructure:"POLL_INTERVAL_SECONDS"`

	AnthropicAPIKey      string `mapstructure:"ANTHROPIC_API_KEY"`
	ExtractionModel      string `mapstructure:"EXTRACTION_MODEL"`
	ExtractionMaxRetries int    `mapstructure:"EXTRACTION_MAX_RETRIES"`
	AnalyzeBatchLimit    int    `mapstructure:"ANALYZE_BATCH_LIMIT"`
}

// Load reads configuration from a .env file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Missing .env is fine; production configures through the environment.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("MAX_POSTS_PER_CRAWL", 20)
	viper.SetDefault("MIN_RECRAWL_INTERVAL_HOURS", 1)
	viper.SetDefault("JOB_TIMEOUT_SECONDS", 300)
	viper.SetDefault("POLL_INTERVAL_SECONDS", 10)
	viper.SetDefault("EXTRACTION_MAX_RETRIES", 3)
	viper.SetDefault("ANALYZE_BATCH_LIMIT", 50)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

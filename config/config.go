package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Target site
	BaseURL     string
	ImageOrigin string
	UserAgent   string

	// Fetch configuration
	FetchBackend      string
	RequestTimeout    time.Duration
	RequestsPerSecond float64

	// Crawl pacing and stopping
	PageDelay     time.Duration
	PageJitter    time.Duration
	RetryDelay    time.Duration
	MaxAttempts   int
	MaxEmptyPages int
	MaxPages      int
	ShuffleSeed   uint64
	CrawlInterval time.Duration

	// Memcache configuration
	MemcacheAddr   string
	RateLimitBlock time.Duration

	// Publisher configuration
	Publisher            string
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int
	KafkaBrokers         []string
	KafkaTopic           string

	// Trace file for the human-readable crawl log
	CrawlLogFile string

	// Environment
	Environment string

	// shuffleSeedErr is set when SHUFFLE_SEED is not an unsigned integer
	shuffleSeedErr error
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	baseURL := strings.TrimRight(getEnv("BASE_URL", "https://www.rotoloautomobili.com"), "/")
	shuffleSeed, shuffleSeedErr := strconv.ParseUint(getEnv("SHUFFLE_SEED", "0"), 10, 64)

	return &Config{
		BaseURL:              baseURL,
		ImageOrigin:          strings.TrimRight(getEnv("IMAGE_ORIGIN", baseURL), "/"),
		UserAgent:            getEnv("USER_AGENT", "Mozilla/5.0 (compatible; AutoScraper/1.0)"),
		FetchBackend:         getEnv("FETCH_BACKEND", "http"),
		RequestTimeout:       time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		RequestsPerSecond:    getEnvFloat("REQUESTS_PER_SECOND", 2),
		PageDelay:            time.Duration(getEnvInt("PAGE_DELAY_MS", 1500)) * time.Millisecond,
		PageJitter:           time.Duration(getEnvInt("PAGE_JITTER_MS", 500)) * time.Millisecond,
		RetryDelay:           time.Duration(getEnvInt("RETRY_DELAY_MS", 2000)) * time.Millisecond,
		MaxAttempts:          getEnvInt("MAX_ATTEMPTS", 3),
		MaxEmptyPages:        getEnvInt("MAX_EMPTY_PAGES", 2),
		MaxPages:             getEnvInt("MAX_PAGES", 50),
		ShuffleSeed:          shuffleSeed,
		CrawlInterval:        time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 0)) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RateLimitBlock:       time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,
		Publisher:            getEnv("PUBLISHER", "none"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "autocaricamento:listings"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 20),
		KafkaBrokers:         splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "autocaricamento-listings"),
		CrawlLogFile:         getEnv("CRAWL_LOG_FILE", ""),
		Environment:          getEnv("AUTOCARICAMENTO_ENVIRONMENT", "development"),
		shuffleSeedErr:       shuffleSeedErr,
	}
}

// Validate checks the configuration for values the crawler cannot work with
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if !strings.HasPrefix(c.ImageOrigin, "http://") && !strings.HasPrefix(c.ImageOrigin, "https://") {
		return fmt.Errorf("IMAGE_ORIGIN must be an absolute http(s) URL, got %q", c.ImageOrigin)
	}
	switch c.FetchBackend {
	case "http", "colly":
	default:
		return fmt.Errorf("FETCH_BACKEND must be http or colly, got %q", c.FetchBackend)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("REQUESTS_PER_SECOND must be positive")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be at least 1")
	}
	if c.MaxEmptyPages < 1 {
		return fmt.Errorf("MAX_EMPTY_PAGES must be at least 1")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be at least 1")
	}
	if c.shuffleSeedErr != nil {
		return fmt.Errorf("SHUFFLE_SEED must be a non-negative integer: %w", c.shuffleSeedErr)
	}
	if c.PageDelay < 0 || c.PageJitter < 0 || c.RetryDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	switch c.Publisher {
	case "none":
	case "redis":
		if c.RedisAddr == "" || c.RedisStream == "" {
			return fmt.Errorf("PUBLISHER=redis requires REDIS_ADDR and REDIS_STREAM")
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("PUBLISHER=kafka requires KAFKA_BROKERS and KAFKA_TOPIC")
		}
	default:
		return fmt.Errorf("PUBLISHER must be none, redis or kafka, got %q", c.Publisher)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

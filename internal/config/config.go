package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go-aggregator/internal/breaker"
)

type Config struct {
	AppPort int `validate:"required"`

	UserServiceURL    string `validate:"required,url"`
	OrderServiceURL   string `validate:"required,url"`
	PaymentServiceURL string `validate:"required,url"`

	PaymentTimeoutMillis int `validate:"required"`

	BreakerWindowSize           int `validate:"required"`
	BreakerFailureRateThreshold int `validate:"required,gt=0,lte=100"`
	BreakerMinimumCalls         int `validate:"required"`
	BreakerOpenWaitMillis       int `validate:"required"`
	BreakerHalfOpenPermits      int `validate:"required"`

	// Mock upstream settings, used by cmd/upstreams.
	UpstreamPort       int `validate:"required"`
	UserDelayMillis    int `validate:"gte=0"`
	OrderDelayMillis   int `validate:"gte=0"`
	PaymentDelayMillis int `validate:"gte=0"`
}

func LoadConfig() (*Config, error) {
	config := &Config{
		AppPort: getEnvAsInt("APP_PORT", 3000),

		UserServiceURL:    getEnv("USER_SERVICE_URL", "http://localhost:9090"),
		OrderServiceURL:   getEnv("ORDER_SERVICE_URL", "http://localhost:9090"),
		PaymentServiceURL: getEnv("PAYMENT_SERVICE_URL", "http://localhost:9090"),

		PaymentTimeoutMillis: getEnvAsInt("PAYMENT_TIMEOUT", 1000),

		BreakerWindowSize:           getEnvAsInt("BREAKER_WINDOW_SIZE", 5),
		BreakerFailureRateThreshold: getEnvAsInt("BREAKER_FAILURE_RATE_THRESHOLD", 50),
		BreakerMinimumCalls:         getEnvAsInt("BREAKER_MINIMUM_CALLS", 5),
		BreakerOpenWaitMillis:       getEnvAsInt("BREAKER_OPEN_WAIT", 10000),
		BreakerHalfOpenPermits:      getEnvAsInt("BREAKER_HALF_OPEN_PERMITS", 2),

		UpstreamPort:       getEnvAsInt("UPSTREAM_PORT", 9090),
		UserDelayMillis:    getEnvAsInt("USER_DELAY", 300),
		OrderDelayMillis:   getEnvAsInt("ORDER_DELAY", 700),
		PaymentDelayMillis: getEnvAsInt("PAYMENT_DELAY", 200),
	}

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) PaymentTimeout() time.Duration {
	return time.Duration(c.PaymentTimeoutMillis) * time.Millisecond
}

func (c *Config) BreakerConfig() breaker.Config {
	return breaker.Config{
		WindowSize:           c.BreakerWindowSize,
		FailureRateThreshold: float64(c.BreakerFailureRateThreshold),
		MinimumCalls:         c.BreakerMinimumCalls,
		OpenWaitDuration:     time.Duration(c.BreakerOpenWaitMillis) * time.Millisecond,
		HalfOpenPermits:      c.BreakerHalfOpenPermits,
	}
}

func (c *Config) UserDelay() time.Duration {
	return time.Duration(c.UserDelayMillis) * time.Millisecond
}

func (c *Config) OrderDelay() time.Duration {
	return time.Duration(c.OrderDelayMillis) * time.Millisecond
}

func (c *Config) PaymentDelay() time.Duration {
	return time.Duration(c.PaymentDelayMillis) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

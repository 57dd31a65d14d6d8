package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type (
	APP struct {
		Name         string
		Host         string
		Port         string
		Env          string
		UploadSecret string
	}
	Storage struct {
		Dir string
	}
	// Links holds raw link-lifecycle settings. TTL and cleanup interval
	// carry an explicit unit field (seconds or minutes) because deployments
	// have historically disagreed on which one the bare number means.
	Links struct {
		MaxDownloads        string
		TTL                 string
		TTLUnit             string
		CleanupInterval     string
		CleanupIntervalUnit string
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}

	Config struct {
		App     APP
		Storage Storage
		Links   Links
		MQ      MQ
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func Load() Config {
	app := APP{
		Name:         getEnv("SERVICE_NAME", "filedropapi"),
		Host:         getEnv("SERVICE_HOST", ""),
		Port:         getEnv("SERVICE_PORT", "8080"),
		Env:          getEnv("SERVICE_ENV", ""),
		UploadSecret: getEnv("SERVICE_UPLOAD_SECRET", ""),
	}
	storage := Storage{
		Dir: getEnv("STORAGE_DIR", "data"),
	}
	links := Links{
		MaxDownloads:        getEnv("LINK_MAX_DOWNLOADS", "3"),
		TTL:                 getEnv("LINK_TTL", "3600"),
		TTLUnit:             getEnv("LINK_TTL_UNIT", "seconds"),
		CleanupInterval:     getEnv("CLEANUP_INTERVAL", "60"),
		CleanupIntervalUnit: getEnv("CLEANUP_INTERVAL_UNIT", "seconds"),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", ""),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", ""),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", ""),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", ""),
	}

	return Config{
		App:     app,
		Storage: storage,
		Links:   links,
		MQ:      mq,
	}
}

func (c Config) MaxDownloads() (uint32, error) {
	n, err := strconv.ParseUint(c.Links.MaxDownloads, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("LINK_MAX_DOWNLOADS must be a positive integer, got %q", c.Links.MaxDownloads)
	}
	return uint32(n), nil
}

func (c Config) LinkTTL() (time.Duration, error) {
	return durationIn(c.Links.TTL, c.Links.TTLUnit)
}

func (c Config) CleanupInterval() (time.Duration, error) {
	return durationIn(c.Links.CleanupInterval, c.Links.CleanupIntervalUnit)
}

func durationIn(value, unit string) (time.Duration, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("duration must be a positive integer, got %q", value)
	}

	switch strings.ToLower(unit) {
	case "second", "seconds", "sec", "secs", "s":
		return time.Duration(n) * time.Second, nil
	case "minute", "minutes", "min", "mins", "m":
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("unsupported duration unit %q (want seconds or minutes)", unit)
	}
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}

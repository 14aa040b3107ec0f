package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

//Config represents options given in the environment
type Config struct {
	SearchURL     string        //base URL of the search backend; required
	SearchTimeout time.Duration //per search request; default: none

	SessionDuration int //in minutes; default: 30
	CacheMaxBytes   int //memory transcript store size; default: 16 MiB

	RedisAddr     string //host:port; when set, transcripts are kept in Redis
	RedisPassword string
	RedisDB       int

	ListenAddr string //addr format used for net.Dial; default: :8000
	Prefix     string //url prefix to mount the front-end to without trailing slash

	Debug bool
}

func loadConfig() (*Config, error) {
	//a missing .env file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read .env file: %w", err)
	}

	config := &Config{}
	if err := envconfig.Process("EGPT", config); err != nil {
		return nil, fmt.Errorf("could not read configuration from environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.SessionDuration == 0 {
		c.SessionDuration = 30
	}
	if c.CacheMaxBytes == 0 {
		c.CacheMaxBytes = 16 * 1024 * 1024
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	c.Prefix = strings.TrimRight(c.Prefix, "/")

	if c.SearchURL == "" {
		return errors.New("EGPT_SEARCHURL must be configured")
	}
	u, err := url.Parse(c.SearchURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("EGPT_SEARCHURL (%s) must be an http or https URL", c.SearchURL)
	}

	if c.SessionDuration < 0 {
		return errors.New("EGPT_SESSIONDURATION must not be negative")
	}
	if c.SearchTimeout < 0 {
		return errors.New("EGPT_SEARCHTIMEOUT must not be negative")
	}
	if c.Prefix != "" && !strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("EGPT_PREFIX (%s) must start with /", c.Prefix)
	}
	return nil
}

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Scraper struct {
		// Worker pool size for detail-page scraping.
		Concurrency int `yaml:"concurrency"`
		// Consecutive scroll rounds with an unchanged feed height before the
		// results list is considered exhausted. A stability threshold, not an
		// iteration cap.
		ScrollStableRounds int `yaml:"scroll_stable_rounds"`
		// Pause between scroll rounds, in milliseconds.
		ScrollPauseMillis    int     `yaml:"scroll_pause_millis"`
		PageTimeoutSeconds   int     `yaml:"page_timeout_seconds"`
		SearchTimeoutSeconds int     `yaml:"search_timeout_seconds"`
		NavRequestsPerSecond float64 `yaml:"nav_requests_per_second"`
		Headless             bool    `yaml:"headless"`
	} `yaml:"scraper"`

	Retention struct {
		MaxAgeDays int `yaml:"max_age_days"`
	} `yaml:"retention"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.Scraper.PageTimeoutSeconds) * time.Second
}

func (c Config) SearchTimeout() time.Duration {
	return time.Duration(c.Scraper.SearchTimeoutSeconds) * time.Second
}

func (c Config) ScrollPause() time.Duration {
	return time.Duration(c.Scraper.ScrollPauseMillis) * time.Millisecond
}

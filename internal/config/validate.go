package config

import "fmt"

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills unset scraper knobs with their defaults and
// reports values that are outright wrong or likely to misbehave.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	if out.App.Port == 0 {
		out.App.Port = 38620
	}
	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Scraper.Concurrency == 0 {
		out.Scraper.Concurrency = 5
	}
	if out.Scraper.Concurrency < 0 {
		res.addErr("scraper.concurrency must be > 0")
	} else if out.Scraper.Concurrency > 20 {
		res.addWarn("scraper.concurrency is very high (%d); the source site may throttle or block.", out.Scraper.Concurrency)
	}

	if out.Scraper.ScrollStableRounds == 0 {
		out.Scraper.ScrollStableRounds = 8
	}
	if out.Scraper.ScrollStableRounds < 0 {
		res.addErr("scraper.scroll_stable_rounds must be > 0")
	} else if out.Scraper.ScrollStableRounds < 3 {
		res.addWarn("scraper.scroll_stable_rounds below 3 tends to cut result lists short on slow connections.")
	}

	if out.Scraper.ScrollPauseMillis == 0 {
		out.Scraper.ScrollPauseMillis = 2500
	}
	if out.Scraper.PageTimeoutSeconds == 0 {
		out.Scraper.PageTimeoutSeconds = 15
	}
	if out.Scraper.SearchTimeoutSeconds == 0 {
		out.Scraper.SearchTimeoutSeconds = 30
	}
	if out.Scraper.PageTimeoutSeconds < 0 || out.Scraper.SearchTimeoutSeconds < 0 {
		res.addErr("scraper timeouts must be > 0")
	}

	if out.Scraper.NavRequestsPerSecond == 0 {
		out.Scraper.NavRequestsPerSecond = 2
	}
	if out.Scraper.NavRequestsPerSecond < 0 {
		res.addErr("scraper.nav_requests_per_second must be > 0")
	}

	if out.Retention.MaxAgeDays == 0 {
		out.Retention.MaxAgeDays = 90
	}
	if out.Retention.MaxAgeDays < 0 {
		res.addErr("retention.max_age_days must be > 0")
	}

	return out, res
}

package rcp

import (
	"math"
	"math/rand/v2"
	"time"
)

// NextBackoffDelay returns the reconnect delay for attempt N (1-based).
// rnd returns values in [0, 1); nil uses math/rand/v2.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rnd func() float64) time.Duration {
	if cfg.Base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}

	delay := float64(cfg.Base) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.Max > 0 && delay > float64(cfg.Max) {
		delay = float64(cfg.Max)
	}

	if cfg.Jitter > 0 {
		jitter := min(cfg.Jitter, 1.0)
		if rnd == nil {
			rnd = rand.Float64
		}
		delay *= 1 + jitter*(2*rnd()-1)
	}
	return time.Duration(delay)
}

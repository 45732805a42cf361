package astro

import (
	"context"
	"time"

	"github.com/roach88/ziwei/internal/chart"
	"github.com/roach88/ziwei/internal/settings"
)

// Engine computes astrolabes.
type Engine interface {
	// Astrolabe computes the natal chart of c under cfg.
	Astrolabe(ctx context.Context, c chart.Chart, cfg settings.Settings) (*Astrolabe, error)

	// Horoscope overlays a on the reference instant at.
	Horoscope(ctx context.Context, a *Astrolabe, at time.Time) (*Horoscope, error)
}

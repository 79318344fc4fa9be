package exchange

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces REST calls so a tight reconciliation loop cannot trip the
// venue's request-weight ban threshold.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer allows roughly perMinute requests with a small burst.
func NewPacer(perMinute int) *Pacer {
	if perMinute <= 0 {
		perMinute = 1200
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 10),
	}
}

// Wait blocks until the next request is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

package events

import (
	"context"
	"log/slog"

	"vcdemo/pkg/platform/circuit"
)

// BreakerPublisher tries the primary publisher on every event. While the
// circuit is open, primary failures are absorbed by the fallback so a broker
// outage degrades to logging instead of a stream of errors.
type BreakerPublisher struct {
	primary  Publisher
	fallback Publisher
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewBreakerPublisher wraps primary with a breaker that routes to fallback.
func NewBreakerPublisher(primary, fallback Publisher, breaker *circuit.Breaker, logger *slog.Logger) *BreakerPublisher {
	return &BreakerPublisher{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (p *BreakerPublisher) Publish(ctx context.Context, event Event) error {
	err := p.primary.Publish(ctx, event)
	if err == nil {
		if p.breaker.RecordSuccess() == circuit.Closed {
			p.logger.InfoContext(ctx, "event publisher recovered", "breaker", p.breaker.Name())
		}
		return nil
	}

	useFallback, transition := p.breaker.RecordFailure()
	if transition == circuit.Opened {
		p.logger.WarnContext(ctx, "event publisher degraded to fallback",
			"breaker", p.breaker.Name(),
			"error", err,
		)
	}
	if !useFallback {
		return err
	}
	return p.fallback.Publish(ctx, event)
}

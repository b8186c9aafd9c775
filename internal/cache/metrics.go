package cache

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dgnsrekt/cardsound/internal/cache"

// metrics records cache activity. All instruments are no-ops unless a meter
// provider is installed.
type metrics struct {
	loads        metric.Int64Counter
	loadDuration metric.Float64Histogram
	plays        metric.Int64Counter
	cached       metric.Int64UpDownCounter
}

var (
	resultHit   = metric.WithAttributes(attribute.String("result", "hit"))
	resultMiss  = metric.WithAttributes(attribute.String("result", "miss"))
	resultError = metric.WithAttributes(attribute.String("result", "error"))
	resultOK    = metric.WithAttributes(attribute.String("result", "ok"))
)

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(meterName)

	loads, err := meter.Int64Counter(
		"sound.load.total",
		metric.WithDescription("Sound load requests by result"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, err
	}

	loadDuration, err := meter.Float64Histogram(
		"sound.load.duration_ms",
		metric.WithDescription("Time spent opening sound assets in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	plays, err := meter.Int64Counter(
		"sound.play.total",
		metric.WithDescription("Play requests by result"),
		metric.WithUnit("{play}"),
	)
	if err != nil {
		return nil, err
	}

	cached, err := meter.Int64UpDownCounter(
		"sound.cached",
		metric.WithDescription("Number of sounds currently cached"),
		metric.WithUnit("{sound}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		loads:        loads,
		loadDuration: loadDuration,
		plays:        plays,
		cached:       cached,
	}, nil
}

func (m *metrics) recordHit(ctx context.Context) {
	m.loads.Add(ctx, 1, resultHit)
}

func (m *metrics) recordFetch(ctx context.Context, d time.Duration, err error) {
	m.loadDuration.Record(ctx, float64(d.Microseconds())/1000.0)
	if err != nil {
		m.loads.Add(ctx, 1, resultError)
		return
	}
	m.loads.Add(ctx, 1, resultMiss)
}

func (m *metrics) recordPlay(ctx context.Context, err error) {
	if err != nil {
		m.plays.Add(ctx, 1, resultError)
		return
	}
	m.plays.Add(ctx, 1, resultOK)
}

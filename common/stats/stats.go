// Package stats provides a set of minimal interfaces which both build on
// and are by default backed by go-metrics. We wrap go-metrics so that the
// engine does not leak its metrics dependency to anyone pulling in drover
// as a library, and so tests can swap in a nil receiver.
package stats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
)

// A StatsReceiver can be passed down a call tree and scoped to each level.
//
//	statsReceiver.Scope("foo", "bar").Stat("baz")  // is equivalent to
//	statsReceiver.Stat("foo", "bar", "baz")
//
// Hierarchical names are stored using a '/' path separator. Variadic name
// elements will have '/' characters replaced by "_SLASH_" before they are
// used internally; stripping beats panicking because counter names are
// sometimes derived from error strings.
type StatsReceiver interface {
	// Scope returns a receiver that automatically namespaces elements
	// with the given scope args.
	Scope(scope ...string) StatsReceiver

	// Counter provides an event counter.
	Counter(name ...string) metrics.Counter

	// Gauge holds an int64 value that can be set arbitrarily.
	Gauge(name ...string) metrics.Gauge

	// Meter measures event rates, including 1m/5m moving averages.
	Meter(name ...string) metrics.Meter

	// Latency provides a histogram of recorded durations in nanoseconds.
	Latency(name ...string) *LatencyInstrument

	// Remove removes the given named stats item if it exists.
	Remove(name ...string)

	// Render constructs a JSON blob by marshaling the registry.
	Render(pretty bool) []byte
}

// DefaultStatsReceiver returns a receiver backed by a private go-metrics
// registry.
func DefaultStatsReceiver() StatsReceiver {
	return &defaultStatsReceiver{registry: metrics.NewRegistry()}
}

// NilStatsReceiver returns a receiver that swallows all recordings.
// Counters et al are still usable so callers never nil-check.
func NilStatsReceiver(scope ...string) StatsReceiver {
	return &nilStatsReceiver{}
}

type defaultStatsReceiver struct {
	registry metrics.Registry
	scope    []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{s.registry, s.scoped(scope...)}
}

func (s *defaultStatsReceiver) Counter(name ...string) metrics.Counter {
	return s.registry.GetOrRegister(s.scopedName(name...), metrics.NewCounter).(metrics.Counter)
}

func (s *defaultStatsReceiver) Gauge(name ...string) metrics.Gauge {
	return s.registry.GetOrRegister(s.scopedName(name...), metrics.NewGauge).(metrics.Gauge)
}

func (s *defaultStatsReceiver) Meter(name ...string) metrics.Meter {
	return s.registry.GetOrRegister(s.scopedName(name...), metrics.NewMeter).(metrics.Meter)
}

func (s *defaultStatsReceiver) Latency(name ...string) *LatencyInstrument {
	n := s.scopedName(name...)
	h := s.registry.GetOrRegister(n, func() metrics.Histogram {
		return metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))
	}).(metrics.Histogram)
	return &LatencyInstrument{h: h}
}

func (s *defaultStatsReceiver) Remove(name ...string) {
	s.registry.Unregister(s.scopedName(name...))
}

func (s *defaultStatsReceiver) Render(pretty bool) []byte {
	out := map[string]interface{}{}
	s.registry.Each(func(name string, i interface{}) {
		switch m := i.(type) {
		case metrics.Counter:
			out[name] = m.Count()
		case metrics.Gauge:
			out[name] = m.Value()
		case metrics.Meter:
			snap := m.Snapshot()
			out[name] = map[string]interface{}{
				"count":   snap.Count(),
				"rate1m":  snap.Rate1(),
				"rate5m":  snap.Rate5(),
				"rate15m": snap.Rate15(),
			}
		case metrics.Histogram:
			snap := m.Snapshot()
			out[name] = map[string]interface{}{
				"count": snap.Count(),
				"mean":  snap.Mean(),
				"p95":   snap.Percentile(0.95),
			}
		}
	})
	var b []byte
	if pretty {
		b, _ = json.MarshalIndent(out, "", "  ")
	} else {
		b, _ = json.Marshal(out)
	}
	return b
}

func (s *defaultStatsReceiver) scoped(scope ...string) []string {
	for i, sc := range scope {
		scope[i] = strings.Replace(sc, "/", "_SLASH_", -1)
	}
	return append(append([]string{}, s.scope...), scope...)
}

func (s *defaultStatsReceiver) scopedName(name ...string) string {
	return strings.Join(s.scoped(name...), "/")
}

// LatencyInstrument records callsite latency:
//
//	defer stat.Latency("admitLatency_ms").Time().Stop()
type LatencyInstrument struct {
	h     metrics.Histogram
	start time.Time
}

func (l *LatencyInstrument) Time() *LatencyInstrument {
	l.start = time.Now()
	return l
}

func (l *LatencyInstrument) Stop() {
	if l.h != nil {
		l.h.Update(int64(time.Since(l.start)))
	}
}

func (l *LatencyInstrument) Record(d time.Duration) {
	if l.h != nil {
		l.h.Update(int64(d))
	}
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver { return s }
func (s *nilStatsReceiver) Counter(name ...string) metrics.Counter {
	return metrics.NilCounter{}
}
func (s *nilStatsReceiver) Gauge(name ...string) metrics.Gauge {
	return metrics.NilGauge{}
}
func (s *nilStatsReceiver) Meter(name ...string) metrics.Meter {
	return metrics.NilMeter{}
}
func (s *nilStatsReceiver) Latency(name ...string) *LatencyInstrument {
	return &LatencyInstrument{}
}
func (s *nilStatsReceiver) Remove(name ...string)    {}
func (s *nilStatsReceiver) Render(pretty bool) []byte { return []byte("{}") }

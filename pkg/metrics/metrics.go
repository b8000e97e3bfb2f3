// Package metrics is a small in-process collector surfaced on the
// /metrics endpoint. Observations are bounded so the collector never
// grows without limit.
package metrics

import (
	"sync"
	"time"
)

const maxObservations = 100

type sizeObservation struct {
	value     float64
	timestamp time.Time
}

type Collector struct {
	counters  map[string]int64
	latencies map[string][]time.Duration
	sizes     map[string][]sizeObservation
	mutex     sync.RWMutex
}

func NewCollector() *Collector {
	return &Collector{
		counters:  make(map[string]int64),
		latencies: make(map[string][]time.Duration),
		sizes:     make(map[string][]sizeObservation),
	}
}

func (c *Collector) IncrementCounter(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.counters[name]++
}

func (c *Collector) ObserveLatency(name string, duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.latencies[name] = append(c.latencies[name], duration)
	if len(c.latencies[name]) > maxObservations {
		c.latencies[name] = c.latencies[name][len(c.latencies[name])-maxObservations:]
	}
}

func (c *Collector) ObserveSize(name string, size float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.sizes[name] = append(c.sizes[name], sizeObservation{value: size, timestamp: time.Now()})
	if len(c.sizes[name]) > maxObservations {
		c.sizes[name] = c.sizes[name][len(c.sizes[name])-maxObservations:]
	}
}

func (c *Collector) GetCounters() map[string]int64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	counters := make(map[string]int64, len(c.counters))
	for name, value := range c.counters {
		counters[name] = value
	}
	return counters
}

func (c *Collector) GetLatencies() map[string]map[string]float64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]map[string]float64)
	for name, durations := range c.latencies {
		if len(durations) == 0 {
			continue
		}
		var sum time.Duration
		for _, d := range durations {
			sum += d
		}
		result[name] = map[string]float64{
			"avg_ms": float64(sum) / float64(len(durations)) / float64(time.Millisecond),
		}
	}
	return result
}

func (c *Collector) GetSizes() map[string]map[string]float64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	result := make(map[string]map[string]float64)
	for name, observations := range c.sizes {
		if len(observations) == 0 {
			continue
		}
		var sum, max float64
		for _, obs := range observations {
			sum += obs.value
			if obs.value > max {
				max = obs.value
			}
		}
		result[name] = map[string]float64{
			"avg_bytes": sum / float64(len(observations)),
			"max_bytes": max,
		}
	}
	return result
}

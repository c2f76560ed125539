// Package webstat keeps per-URI request statistics for the diagnostics
// console.
package webstat

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// DefaultMaxEntries bounds the number of distinct URIs tracked.
const DefaultMaxEntries = 1000

// UnmatchedURI collects requests that matched no route, so that scans of
// random paths cannot fill the table.
const UnmatchedURI = "(unmatched)"

// URIStat is the statistics row for one URI.
type URIStat struct {
	URI        string        `json:"uri"`
	Requests   int64         `json:"requests"`
	Errors     int64         `json:"errors"`
	TotalTime  time.Duration `json:"-"`
	MaxTime    time.Duration `json:"-"`
	TotalMs    float64       `json:"total_ms"`
	MaxMs      float64       `json:"max_ms"`
	LastStatus int           `json:"last_status"`
	LastAccess time.Time     `json:"last_access"`
}

// Order selects how a snapshot is sorted.
type Order string

const (
	OrderRequests   Order = "requests"
	OrderErrors     Order = "errors"
	OrderTotalTime  Order = "total_time"
	OrderMaxTime    Order = "max_time"
	OrderLastAccess Order = "last_access"
	OrderURI        Order = "uri"
)

// ParseOrder accepts an order name; blank means OrderRequests.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OrderRequests, nil
	case OrderRequests, OrderErrors, OrderTotalTime, OrderMaxTime, OrderLastAccess, OrderURI:
		return o, nil
	default:
		return "", fmt.Errorf("unknown order %q", s)
	}
}

// Collector aggregates request statistics. It is safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	stats      map[string]*URIStat
	dropped    int64
	exclusions *Exclusions
	maxEntries int
	now        func() time.Time
}

// NewCollector creates a collector that ignores paths matching exclusions.
// maxEntries <= 0 uses DefaultMaxEntries.
func NewCollector(exclusions *Exclusions, maxEntries int) *Collector {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Collector{
		stats:      make(map[string]*URIStat),
		exclusions: exclusions,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Excluded reports whether path is not recorded
func (c *Collector) Excluded(path string) bool {
	return c.exclusions.Match(path)
}

// Record adds one request. Statuses of 500 and above count as errors.
// Requests for new URIs are dropped once maxEntries URIs are tracked.
func (c *Collector) Record(uri string, status int, latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stats[uri]
	if !ok {
		if len(c.stats) >= c.maxEntries {
			c.dropped++
			return
		}
		s = &URIStat{URI: uri}
		c.stats[uri] = s
	}

	s.Requests++
	if status >= 500 {
		s.Errors++
	}
	s.TotalTime += latency
	if latency > s.MaxTime {
		s.MaxTime = latency
	}
	s.LastStatus = status
	s.LastAccess = c.now()
}

// Snapshot returns a sorted copy of all rows.
func (c *Collector) Snapshot(order Order) []URIStat {
	c.mu.Lock()
	out := make([]URIStat, 0, len(c.stats))
	for _, s := range c.stats {
		row := *s
		row.TotalMs = millis(row.TotalTime)
		row.MaxMs = millis(row.MaxTime)
		out = append(out, row)
	}
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case OrderErrors:
			if a.Errors != b.Errors {
				return a.Errors > b.Errors
			}
		case OrderTotalTime:
			if a.TotalTime != b.TotalTime {
				return a.TotalTime > b.TotalTime
			}
		case OrderMaxTime:
			if a.MaxTime != b.MaxTime {
				return a.MaxTime > b.MaxTime
			}
		case OrderLastAccess:
			if !a.LastAccess.Equal(b.LastAccess) {
				return a.LastAccess.After(b.LastAccess)
			}
		case OrderURI:
		default:
			if a.Requests != b.Requests {
				return a.Requests > b.Requests
			}
		}
		return a.URI < b.URI
	})
	return out
}

// Dropped is the number of requests not recorded because the URI limit
// was reached.
func (c *Collector) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Reset clears all statistics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[string]*URIStat)
	c.dropped = 0
}

// Middleware records every request whose path is not excluded. Matched
// requests are keyed by their route pattern, the rest share UnmatchedURI.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if c.Excluded(path) {
			ctx.Next()
			return
		}

		start := time.Now()
		ctx.Next()

		uri := ctx.FullPath()
		if uri == "" {
			uri = UnmatchedURI
		}
		c.Record(uri, ctx.Writer.Status(), time.Since(start))
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

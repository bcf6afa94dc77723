// Package metrics exposes Prometheus counters for the auth flows.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and transports report to.
type Recorder interface {
	RecordRegistration(err error)
	RecordLogin(err error)
	RecordRefresh(err error)
	RecordLogout(err error, revoked int64)
	RecordAuthentication(err error)
	RecordTokenIssued(kind string)
	RecordTokensPurged(n int64)
	RecordHTTPRequest(route string, status int, d time.Duration)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	registrations   *prometheus.CounterVec
	logins          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	logouts         *prometheus.CounterVec
	authentications *prometheus.CounterVec
	tokensIssued    *prometheus.CounterVec
	tokensRevoked   prometheus.Counter
	tokensPurged    prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	result := []string{"result"}
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_registrations_total",
			Help: "Registration attempts by result.",
		}, result),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_logins_total",
			Help: "Login attempts by result.",
		}, result),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_refreshes_total",
			Help: "Token refresh attempts by result.",
		}, result),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_logouts_total",
			Help: "Logout attempts by result.",
		}, result),
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_authentications_total",
			Help: "Bearer token checks by result.",
		}, result),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_tokens_issued_total",
			Help: "Tokens recorded in the ledger by kind.",
		}, []string{"kind"}),
		tokensRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authkeeper_tokens_revoked_total",
			Help: "Tokens blacklisted by logout.",
		}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authkeeper_tokens_purged_total",
			Help: "Expired ledger rows deleted by the reaper.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkeeper_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authkeeper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.refreshes,
		c.logouts,
		c.authentications,
		c.tokensIssued,
		c.tokensRevoked,
		c.tokensPurged,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordRegistration(err error) {
	c.registrations.WithLabelValues(Result(err)).Inc()
}

func (c *Collector) RecordLogin(err error) {
	c.logins.WithLabelValues(Result(err)).Inc()
}

func (c *Collector) RecordRefresh(err error) {
	c.refreshes.WithLabelValues(Result(err)).Inc()
}

func (c *Collector) RecordLogout(err error, revoked int64) {
	c.logouts.WithLabelValues(Result(err)).Inc()
	if revoked > 0 {
		c.tokensRevoked.Add(float64(revoked))
	}
}

func (c *Collector) RecordAuthentication(err error) {
	c.authentications.WithLabelValues(Result(err)).Inc()
}

func (c *Collector) RecordTokenIssued(kind string) {
	c.tokensIssued.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordTokensPurged(n int64) {
	if n > 0 {
		c.tokensPurged.Add(float64(n))
	}
}

func (c *Collector) RecordHTTPRequest(route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(route).Observe(d.Seconds())
}

// Result folds an operation error into a small, fixed label set.
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrValidation):
		return "invalid"
	case errors.Is(err, common.ErrConflict):
		return "conflict"
	case common.IsLoginFailure(err):
		return "rejected"
	case errors.Is(err, common.ErrRevoked):
		return "revoked"
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrNoActiveSession):
		return "no_session"
	case common.IsUnauthorized(err):
		return "unauthorized"
	default:
		return "error"
	}
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRegistration(error)                     {}
func (Nop) RecordLogin(error)                            {}
func (Nop) RecordRefresh(error)                          {}
func (Nop) RecordLogout(error, int64)                    {}
func (Nop) RecordAuthentication(error)                   {}
func (Nop) RecordTokenIssued(string)                     {}
func (Nop) RecordTokensPurged(int64)                     {}
func (Nop) RecordHTTPRequest(string, int, time.Duration) {}

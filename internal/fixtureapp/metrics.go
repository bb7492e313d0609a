package fixtureapp

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the fixture application's counters. Each App owns its registry
// so several apps can run in one process.
type Metrics struct {
	Requests              *prometheus.CounterVec
	Signups               *prometheus.CounterVec
	Verifications         *prometheus.CounterVec
	OnboardingCompletions prometheus.Counter
	Registrations         prometheus.Counter
	Cleanups              *prometheus.CounterVec
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixture_http_requests_total",
			Help: "Requests served by the fixture application",
		}, []string{"method", "route", "status"}),
		Signups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixture_signups_total",
			Help: "Accounts created through the signup wizard",
		}, []string{"flow", "account_type"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixture_email_verifications_total",
			Help: "Email verification requests that reached the server",
		}, []string{"result"}),
		OnboardingCompletions: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixture_onboarding_completions_total",
			Help: "Onboarding wizards finished",
		}),
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixture_api_registrations_total",
			Help: "Accounts created through the register API",
		}),
		Cleanups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixture_cleanups_total",
			Help: "Test user deletions",
		}, []string{"result"}),
	}
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

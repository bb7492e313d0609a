// Package fixtureapp is an in-process stand-in for the application under
// test. It serves the signup wizard, the onboarding wizard, sign-in and the
// fixture API with the same routes, labels and navigation the browser suite
// expects, so scenarios can run without a deployed environment.
package fixtureapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/medara-io/medara-e2e/internal/logging"
)

const (
	sessionCookie = "medara_session"

	// DefaultVerificationCode is the code the verify endpoint accepts.
	DefaultVerificationCode = "123456"
)

// App is the fixture application.
type App struct {
	store    *store
	renderer *renderer
	registry *prometheus.Registry
	metrics  *Metrics
	logger   *zap.Logger
	engine   *gin.Engine

	verificationCode    string
	verificationEnabled atomic.Bool
}

// Option configures an App.
type Option func(*App)

// WithLogger logs requests and state changes to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithVerificationCode changes the accepted verification code.
func WithVerificationCode(code string) Option {
	return func(a *App) {
		a.verificationCode = code
	}
}

// New builds the app and its router.
func New(opts ...Option) (*App, error) {
	a := &App{
		store:            newStore(),
		renderer:         newRenderer(),
		registry:         prometheus.NewRegistry(),
		verificationCode: DefaultVerificationCode,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrNop(a.logger).Named("fixtureapp")
	a.metrics = newMetrics(a.registry)
	a.verificationEnabled.Store(true)

	if err := a.renderer.check(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	a.engine = a.routes()
	return a, nil
}

func (a *App) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger(), a.metrics.middleware(), a.sessionMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/auth/signUp")
	})

	auth := r.Group("/auth")
	auth.GET("/signUp", a.handleSignupPage)
	auth.POST("/signUp", a.handleSignupSubmit)
	auth.POST("/verify-email", a.handleVerifyEmail)
	auth.GET("/signin", a.handleSigninPage)
	auth.POST("/signin", a.handleSigninSubmit)

	portal := r.Group("/portal", a.requireUser())
	portal.GET("/onboarding", a.handleOnboardingIntro)
	portal.GET("/onboarding/step", a.handleOnboardingStep)
	portal.POST("/onboarding/step", a.handleOnboardingAnswer)
	portal.GET("/dashboard", a.handleDashboard)

	api := r.Group("/api")
	api.GET("/health", a.handleHealth)
	api.POST("/auth/register", a.handleRegister)
	api.DELETE("/test/users/:email", a.handleCleanupUser)

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return r
}

// Handler returns the app's HTTP handler.
func (a *App) Handler() http.Handler {
	return a.engine
}

// Metrics exposes the app's counters.
func (a *App) Metrics() *Metrics {
	return a.metrics
}

// Registry is the prometheus registry behind /metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// SetVerificationEnabled toggles the verify endpoint. When disabled it answers
// 503, which only a network stub in the browser can get past.
func (a *App) SetVerificationEnabled(enabled bool) {
	a.verificationEnabled.Store(enabled)
}

// Account returns the stored account for email.
func (a *App) Account(email string) (Account, bool) {
	return a.store.account(email)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
// ready, when non-nil, receives the bound address.
func (a *App) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}
	a.logger.Info("fixture application listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// sessionMiddleware gives every browser a session cookie.
func (a *App) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || !a.store.withSession(id, func(*session) {}) {
			id = a.store.newSession()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
		}
		c.Set(sessionCookie, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionCookie)
}

// requireUser sends anonymous visitors to sign in.
func (a *App) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := a.store.sessionUser(sessionID(c))
		if !ok {
			c.Redirect(http.StatusSeeOther, "/auth/signin")
			c.Abort()
			return
		}
		c.Set("account", acct)
		c.Next()
	}
}

func currentAccount(c *gin.Context) Account {
	return c.MustGet("account").(Account)
}

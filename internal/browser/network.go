package browser

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/medara-io/medara-e2e/internal/logging"
)

// VerifyEmailPattern matches the verification endpoint on any host.
const VerifyEmailPattern = "**/auth/verify-email"

// Stub answers every request matching Pattern with a canned JSON body.
// Requests that do not match pass through untouched.
type Stub struct {
	Pattern string
	Status  int
	Body    interface{}

	hits   atomic.Int64
	logger *zap.Logger
}

// Hits reports how many requests the stub has fulfilled.
func (s *Stub) Hits() int {
	return int(s.hits.Load())
}

// StubJSON installs a stub on the page.
func StubJSON(page playwright.Page, pattern string, status int, body interface{}, logger *zap.Logger) (*Stub, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stub body for %s: %w", pattern, err)
	}
	stub := &Stub{
		Pattern: pattern,
		Status:  status,
		Body:    body,
		logger:  logging.OrNop(logger),
	}
	err = page.Route(pattern, func(route playwright.Route) {
		stub.hits.Add(1)
		if err := route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(status),
			ContentType: playwright.String("application/json"),
			Body:        payload,
		}); err != nil {
			stub.logger.Warn("stub fulfil failed",
				zap.String("pattern", pattern),
				zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to route %s: %w", pattern, err)
	}
	return stub, nil
}

// MockEmailVerification makes every verification request succeed.
func MockEmailVerification(page playwright.Page, logger *zap.Logger) (*Stub, error) {
	return StubJSON(page, VerifyEmailPattern, 200, map[string]bool{"success": true}, logger)
}

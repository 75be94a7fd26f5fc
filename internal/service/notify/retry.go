package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	apphttp "ChallengeArena/pkg/http"
	"ChallengeArena/pkg/logger"
)

// sendWithRetry retries fn with exponential backoff (base, 2*base, 4*base ...).
// A non-temporary HTTP status ends the loop at once.
func sendWithRetry(ctx context.Context, lgr *logger.Logger, channel string, retries int, base time.Duration, fn func(context.Context) error) error {
	var lastErr error
	for i := 0; i <= retries; i++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		var se *apphttp.StatusError
		if errors.As(lastErr, &se) && !se.Temporary() {
			return fmt.Errorf("%s rejected: %w", channel, lastErr)
		}
		if i == retries {
			break
		}
		backoff := base << uint(i)
		lgr.Warn("notification send failed",
			logger.String("channel", channel),
			logger.Int("attempt", i+1),
			logger.Int("max_attempts", retries+1),
			logger.Duration("backoff", backoff),
			logger.Error(lastErr))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", retries+1, lastErr)
}

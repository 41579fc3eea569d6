// -----------------------------------------------------------------------
// Retry - Backoff policy for narrative provider calls
// -----------------------------------------------------------------------

package narrative

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// retryConfig defines backoff behavior for provider rate limits.
type retryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// defaultRetryConfig keeps the whole retry window inside a single worker
// deadline; a call that cannot get through in time is answered by the
// structured dossier instead.
func defaultRetryConfig() retryConfig {
	return retryConfig{
		MaxRetries:        2,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        20 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// isRateLimitError checks for 429/quota replies from either provider.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// retryDelayPattern matches "Please retry in Xs" or "retryDelay:Xs"
var retryDelayPattern = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// extractRetryDelay parses the API-suggested retry delay out of an error
// message. Returns 0 when none is present.
func extractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayPattern.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// backoff computes the wait before the given retry attempt. An
// API-provided delay overrides the initial backoff; the result is capped
// at MaxBackoff.
func (c retryConfig) backoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay + time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	wait := time.Duration(float64(base) * multiplier)
	if wait > c.MaxBackoff {
		wait = c.MaxBackoff
	}
	return wait
}

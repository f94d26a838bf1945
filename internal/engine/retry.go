package engine

import "time"

// retryBaseDelay and retryCap implement the failure backoff table: 10s,
// 20s, 40s, 80s, 160s, 320s, then pinned at 10 minutes from the 7th
// attempt on.
const (
	retryBaseDelay = 10 * time.Second
	retryCap       = 10 * time.Minute
)

func retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exp := attempt - 1
	if exp > 6 {
		exp = 6
	}
	d := retryBaseDelay * time.Duration(uint64(1)<<uint(exp))
	if d > retryCap {
		d = retryCap
	}
	return d
}

// pollBackoff implements the poller's store-failure backoff: 1s, 2s, 4s,
// ... capped at 60s, reached well before the 10th consecutive failure.
func pollBackoff(consecutiveFailures int) time.Duration {
	if consecutiveFailures < 1 {
		consecutiveFailures = 1
	}
	if consecutiveFailures > 10 {
		consecutiveFailures = 10
	}
	d := time.Second * time.Duration(uint64(1)<<uint(consecutiveFailures-1))
	if d > 60*time.Second {
		d = 60 * time.Second
	}
	return d
}

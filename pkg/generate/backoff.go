package generate

import "time"

// backoff returns the wait before the next attempt: the base unit doubled
// for each completed attempt (1, 2, 4, ... units). No jitter and no cap;
// the loop is bounded by the retry count, not the delay.
func backoff(unit time.Duration, attempt int) time.Duration {
	return unit * time.Duration(1<<(attempt-1))
}

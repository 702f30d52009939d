package provideradapter

import "errors"

var (
	errRateLimited = errors.New("provider rate limit budget depleted")
	errDegraded    = errors.New("provider circuit breaker open")
)

// Package resilience holds fault isolation helpers for outbound requests.
//
// The watcher deliberately has no retry policy: a failed request is logged and
// skipped until the next cycle. What it does have is a circuit breaker per host,
// so a board that is down stops costing a full timeout on every request.
//
// Usage Example:
//
//	breakers := circuitbreaker.NewRegistry(circuitbreaker.BoardFetchConfig)
//	body, err := breakers.For(host).Execute(func() (interface{}, error) {
//	    return fetch(ctx, url)
//	})
package resilience

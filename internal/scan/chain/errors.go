package chain

import "errors"

// Error taxonomy for source failures. Adapters wrap their provider
// errors around one of these sentinels so the pool can classify a
// failure with errors.Is regardless of the provider.
var (
	// ErrSourceUnavailable covers network failures and timeouts.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrSourceThrottled means the provider rejected the request for
	// rate or credit reasons.
	ErrSourceThrottled = errors.New("source throttled")
	// ErrSourceMalformed means the provider answered with a payload
	// shape the adapter could not interpret.
	ErrSourceMalformed = errors.New("source returned malformed payload")
	// ErrAllSourcesExhausted is returned by the pool when the retry
	// budget for a logical request ran out across all sources. The
	// orchestrator treats it as retryable at block granularity.
	ErrAllSourcesExhausted = errors.New("all sources exhausted")
	// ErrNotFound means the provider definitively does not know the
	// requested object.
	ErrNotFound = errors.New("not found by source")
)

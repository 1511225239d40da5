package adapters

import "routecraft.dev/routecraft"

// Log builds a `to(log())`/`tap(log())` destination that logs the exchange
// body via the exchange's bound logger and returns nil (void — the body is
// left unchanged downstream). Grounded on
// internal/sink/console/sink.go, generalized from fmt.Println to the
// exchange's structured logger.
func Log() routecraft.Destination {
	return routecraft.DestinationFunc(func(ex *routecraft.Exchange) (any, error) {
		ex.Logger.Info("exchange received", "body", ex.Body, "headers", ex.Headers)
		return nil, nil
	})
}

// Noop builds a destination that does nothing and returns void, used in
// tests that only need a branch to terminate without side effects.
func Noop() routecraft.Destination {
	return routecraft.DestinationFunc(func(ex *routecraft.Exchange) (any, error) {
		return nil, nil
	})
}

package adapters

import (
	"context"
	"time"

	"routecraft.dev/routecraft"
)

// TimerOptions configure Timer.
type TimerOptions struct {
	Period time.Duration // zero means fire once, immediately
}

// Timer builds a periodic (or one-shot, when Period is zero) source,
// stamping the routecraft.timer.* reserved headers on every message.
// Patterned after an internal/scheduler job loop (interval firing
// with counter/next-run bookkeeping), rewritten around a single
// time.Ticker instead of a registry-managed background job since routes
// already own their own lifecycle.
func Timer(opts TimerOptions) routecraft.Source {
	return routecraft.SourceFunc(func(ctx context.Context, submit routecraft.MessageHandler) error {
		fire := func(counter int, scheduled time.Time) error {
			headers := map[string]any{
				routecraft.HeaderTimerTime:      scheduled.Format(time.RFC3339Nano),
				routecraft.HeaderTimerFiredTime:  time.Now().Format(time.RFC3339Nano),
				routecraft.HeaderTimerPeriodMs:   int(opts.Period / time.Millisecond),
				routecraft.HeaderTimerCounter:    counter,
			}
			if opts.Period > 0 {
				headers[routecraft.HeaderTimerNextRun] = scheduled.Add(opts.Period).Format(time.RFC3339Nano)
			}
			_, err := submit(ctx, nil, headers)
			return err
		}

		if opts.Period <= 0 {
			return fire(0, time.Now())
		}

		ticker := time.NewTicker(opts.Period)
		defer ticker.Stop()

		counter := 0
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case t := <-ticker.C:
				if err := fire(counter, t); err != nil {
					return err
				}
				counter++
			}
		}
	})
}

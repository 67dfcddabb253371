// Copyright (c) 2025 The zcash-eth-bridge developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bridgeutil

import (
	"context"
	"time"
)

// RetryBaseDelay and RetryMaxDelay bound the exponential backoff Retry
// uses for transport-category errors, which are retried where they occur.
const (
	RetryBaseDelay = 200 * time.Millisecond
	RetryMaxDelay  = 5 * time.Second

	// RetryMaxAttempts bounds how long a transient failure can stall the
	// driver before the error surfaces and the process exits for the
	// operator to investigate.
	RetryMaxAttempts = 8
)

// Retry calls fn until it succeeds, ctx is cancelled, shouldRetry returns
// false for an error, or RetryMaxAttempts calls have failed. Delay doubles
// each attempt starting from RetryBaseDelay, capped at RetryMaxDelay.
func Retry(ctx context.Context, shouldRetry func(error) bool, fn func() error) error {
	delay := RetryBaseDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !shouldRetry(err) || attempt >= RetryMaxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > RetryMaxDelay {
			delay = RetryMaxDelay
		}
	}
}

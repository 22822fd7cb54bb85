// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"math"
	"time"
)

// LaunchBaseDelay is the first backoff between launch attempts; it doubles
// on each retry. Tests override it to avoid real sleeps.
var LaunchBaseDelay = 500 * time.Millisecond

// launchWithRetry calls launch until it succeeds, retrying up to retries
// times with exponential backoff. A cancelled context stops the wait and
// returns ctx.Err(). After the last attempt the last error is returned.
func launchWithRetry(ctx context.Context, retries int, launch func(context.Context) (Instance, error)) (Instance, error) {
	if retries < 0 {
		retries = 0
	}
	for attempt := 0; ; attempt++ {
		inst, err := launch(ctx)
		if err == nil {
			return inst, nil
		}
		if attempt >= retries {
			return nil, err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * LaunchBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

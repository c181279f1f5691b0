// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package semantic

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// retryPolicy retries failed model calls with exponential backoff, capped
// at maxDelay. Cancellation and malformed model output end the attempts at
// once since another call cannot fix them.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newRetryPolicy(maxAttempts int, baseDelay time.Duration) (retryPolicy, error) {
	if maxAttempts < 1 {
		return retryPolicy{}, ErrInvalidMaxAttempts
	}
	return retryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    defaultMaxDelay,
	}, nil
}

// retryable reports whether err may clear up on another model call.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrVectorCount):
		return false
	}
	return true
}

// delay returns the wait before the attempt following attempt.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.baseDelay << (attempt - 1)
	if d <= 0 || (p.maxDelay > 0 && d > p.maxDelay) {
		return p.maxDelay
	}
	return d
}

// do runs call until it succeeds, fails permanently or the attempts run out.
// The returned error is the last one call produced.
func (p retryPolicy) do(ctx context.Context, logger *slog.Logger, texts int, call func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = call()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("embedding succeeded after retry", "attempt", attempt, "texts", texts)
			}
			return nil
		}
		if !retryable(lastErr) || attempt == p.maxAttempts {
			break
		}

		wait := p.delay(attempt)
		logger.Debug("embedding failed, retrying", "attempt", attempt, "texts", texts, "wait", wait, "err", lastErr)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

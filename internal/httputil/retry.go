// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across the tool.
package httputil

import (
	"io"
	"math"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// RetryTransport is an http.RoundTripper that retries requests answered
// with HTTP 429 (Too Many Requests) using exponential backoff. The delay
// starts at RetryBaseDelay and doubles each attempt. It is installed in the
// HTTP client handed to the OpenAI SDK so rate limiting is absorbed below
// the API client.
type RetryTransport struct {
	// Base is the underlying transport; http.DefaultTransport when nil.
	Base http.RoundTripper

	// MaxRetries caps retry attempts; 0 means the default (5).
	MaxRetries int
}

// RoundTrip sends the request, retrying on 429. Requests without a
// replayable body (GetBody == nil) are never retried. On each 429 the
// response body is drained and closed before sleeping. If the request
// context is cancelled during a backoff wait the context error is
// returned. After exhausting retries the last 429 response is returned so
// the caller can inspect it.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	maxRetries := t.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			r.Body = body
		}

		resp, err := base.RoundTrip(r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		if attempt >= maxRetries || (req.Body != nil && req.GetBody == nil) {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

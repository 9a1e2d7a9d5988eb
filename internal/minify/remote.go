// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package minify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultRemoteURL is the endpoint of the remote script minifier. It expects
// a form encoded POST with the script in the field "input" and responds with
// the minified script as body.
const DefaultRemoteURL = "https://www.toptal.com/developers/javascript-minifier/api/raw"

// RemoteScript minifies scripts by a remote service.
type RemoteScript struct {
	// URL of the service. [DefaultRemoteURL] is used if empty.
	URL string
	// Client used for requests. [http.DefaultClient] is used if nil.
	Client *http.Client
	// Retries is the number of additional attempts after a failed request.
	Retries int
	// RetryDelay is the wait time before the first retry. It doubles for
	// every further retry.
	RetryDelay time.Duration
	// Timeout for a single attempt. No timeout if zero.
	Timeout time.Duration
	// Logger for retry notices. [slog.Default] is used if nil.
	Logger *slog.Logger
}

// Transform implements [Transform]. The input is never returned as is on
// failure.
func (r *RemoteScript) Transform(ctx context.Context, src []byte) ([]byte, error) {
	attempt := 0

	notify := func(err error, delay time.Duration) {
		attempt++

		r.logger().Debug("Retry remote minification",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err))
	}

	out, err := backoff.RetryNotifyWithData(
		func() ([]byte, error) {
			return r.post(ctx, src)
		},
		r.backOff(ctx),
		notify,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return out, nil
}

func (r *RemoteScript) backOff(ctx context.Context) backoff.BackOffContext { //nolint:ireturn
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = r.RetryDelay
	exponential.RandomizationFactor = 0
	exponential.MaxElapsedTime = 0

	retries := uint64(max(r.Retries, 0))

	return backoff.WithContext(backoff.WithMaxRetries(exponential, retries), ctx)
}

func (r *RemoteScript) post(ctx context.Context, src []byte) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	form := url.Values{"input": {string(src)}}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.url(),
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("new request: %w", err))
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote minify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrRemoteStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}

func (r *RemoteScript) url() string {
	if r.URL == "" {
		return DefaultRemoteURL
	}

	return r.URL
}

func (r *RemoteScript) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}

	return r.Logger
}

func (r *RemoteScript) client() *http.Client {
	if r.Client == nil {
		return http.DefaultClient
	}

	return r.Client
}

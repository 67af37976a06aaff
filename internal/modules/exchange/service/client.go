package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"signal_scanner/pkg/logger"
)

type Options struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
}

// restClient is the retrying GET+JSON transport shared by the exchange clients.
type restClient struct {
	name    string
	base    string
	http    *http.Client
	retries int
	backoff time.Duration
}

func newRESTClient(name, defaultBase string, o Options) restClient {
	base := o.BaseURL
	if base == "" {
		base = defaultBase
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return restClient{
		name:    name,
		base:    base,
		http:    &http.Client{Timeout: timeout},
		retries: max(o.Retries, 0),
		backoff: o.RetryBackoff,
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string { return fmt.Sprintf("http %d: %s", e.code, e.body) }

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// getJSON decodes the response of GET base+path?query into out, retrying transport errors,
// 429 and 5xx with a linear backoff until ctx is done.
func (c restClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(attempt)
			logger.Debug("[%s] retry %d for %s in %s: %v", c.name, attempt, path, wait, lastErr)
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "%s GET %s", c.name, path)
			case <-time.After(wait):
			}
		}

		body, err := c.get(ctx, u)
		if err == nil {
			if err := sonic.Unmarshal(body, out); err != nil {
				return errors.Wrapf(err, "%s decode %s", c.name, path)
			}
			return nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Wrapf(lastErr, "%s GET %s", c.name, path)
}

func (c restClient) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, &statusError{code: resp.StatusCode, body: string(b)}
	}
	return b, nil
}

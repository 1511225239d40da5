package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"routecraft.dev/routecraft"
)

// HTTPOptions configure an HTTP destination.
type HTTPOptions struct {
	Method  string // default GET; POST sends the exchange body as JSON
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// HTTP builds a `to(http(...))`/`tap(http(...))` destination that issues one
// request per exchange and replaces the body with the decoded JSON
// response (or leaves it unchanged on a non-JSON response body): an
// http.Client-backed destination with a bounded per-request timeout.
func HTTP(opts HTTPOptions) routecraft.Destination {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	return routecraft.DestinationFunc(func(ex *routecraft.Exchange) (any, error) {
		var body io.Reader
		if method == http.MethodPost || method == http.MethodPut {
			payload, err := json.Marshal(ex.Body)
			if err != nil {
				return nil, routecraft.WrapError(routecraft.CodeDestinationFailed, err)
			}
			body = bytes.NewReader(payload)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, method, opts.URL, body)
		if err != nil {
			return nil, routecraft.WrapError(routecraft.CodeDestinationFailed, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, routecraft.WrapError(routecraft.CodeDestinationFailed, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, routecraft.WrapError(routecraft.CodeDestinationFailed, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, routecraft.NewError(routecraft.CodeDestinationFailed, "http %s %s: status %d: %s", method, opts.URL, resp.StatusCode, data)
		}

		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, nil // non-JSON body: leave the exchange unchanged
		}
		return decoded, nil
	})
}

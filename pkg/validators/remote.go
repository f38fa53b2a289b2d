package validators

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/formkit/pkg/dom"
	"github.com/dmitrymomot/formkit/pkg/registry"
)

// Doer is the fetch-like network primitive remote validators run on.
// *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteConfig tunes a remote validator.
type RemoteConfig struct {
	// Client performs the request. Defaults to http.DefaultClient.
	Client Doer
	// Method defaults to GET. POST sends a JSON body instead of query
	// parameters.
	Method string
	// ValueParam names the query/body key carrying the field value.
	// Defaults to "value".
	ValueParam string
	// FieldParam names the key carrying the control name. Defaults to
	// "field".
	FieldParam string
	// Timeout bounds one request. Defaults to 10 seconds.
	Timeout time.Duration
}

func (c *RemoteConfig) withDefaults() {
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	if c.ValueParam == "" {
		c.ValueParam = "value"
	}
	if c.FieldParam == "" {
		c.FieldParam = "field"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// remoteResponse covers the boolean-ish shapes servers answer with.
// Exactly one of the flags is expected; the first non-nil one wins.
type remoteResponse struct {
	Valid     *bool  `json:"valid"`
	Unique    *bool  `json:"unique"`
	Available *bool  `json:"available"`
	Exists    *bool  `json:"exists"`
	Message   string `json:"message"`
}

// verdict reports the server's answer, or ok=false when no recognized
// flag is present. An exists=true answer means the value is taken, so
// it maps to invalid.
func (r remoteResponse) verdict() (valid, ok bool) {
	switch {
	case r.Valid != nil:
		return *r.Valid, true
	case r.Unique != nil:
		return *r.Unique, true
	case r.Available != nil:
		return *r.Available, true
	case r.Exists != nil:
		return !*r.Exists, true
	}
	return false, false
}

// Remote builds an asynchronous validator that checks the field value
// against endpoint. Transport failures, non-2xx statuses, and
// unrecognizable bodies all pass: infrastructure problems must never
// block form usability. Only an explicit negative server verdict fails
// the field, carrying the server-provided message when present.
func Remote(endpoint string, cfg RemoteConfig) registry.Func {
	cfg.withDefaults()

	return func(ctx context.Context, value, params string, field dom.Element) (registry.Result, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		name := ""
		if field != nil {
			name = field.Name()
		}

		req, err := buildRequest(ctx, cfg, endpoint, name, value)
		if err != nil {
			return registry.Pass, nil
		}

		resp, err := cfg.Client.Do(req)
		if err != nil {
			// Cancellation is not a transport failure; surface it so the
			// engine can apply its discard protocol.
			if ctx.Err() != nil {
				return registry.Pass, ctx.Err()
			}
			return registry.Pass, nil
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return registry.Pass, nil
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return registry.Pass, nil
		}

		var parsed remoteResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return registry.Pass, nil
		}
		valid, ok := parsed.verdict()
		if !ok || valid {
			return registry.Pass, nil
		}
		return registry.Fail(parsed.Message), nil
	}
}

// Unique is Remote under a name that reads naturally for
// availability checks ("data-validate=\"required|unique\"").
func Unique(endpoint string, cfg RemoteConfig) registry.Func {
	return Remote(endpoint, cfg)
}

func buildRequest(ctx context.Context, cfg RemoteConfig, endpoint, name, value string) (*http.Request, error) {
	if cfg.Method == http.MethodPost {
		payload, err := json.Marshal(map[string]string{
			cfg.FieldParam: name,
			cfg.ValueParam: value,
		})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(payload)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(cfg.FieldParam, name)
	q.Set(cfg.ValueParam, value)
	u.RawQuery = q.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
}

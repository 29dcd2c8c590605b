package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrAPIUnavailable reports that no daemon is answering on the API bind.
var ErrAPIUnavailable = errors.New("log API unavailable")

// Client fetches log lines from a running daemon over its API.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the configured API bind address. An empty
// bind returns nil, nil; callers fall back to reading the file directly.
func NewClient(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""

	// No client timeout: a wait-bounded fetch blocks server side until
	// lines arrive or the wait elapses.
	return &Client{base: base, http: &http.Client{}}, nil
}

// Fetch requests log lines from the daemon. The parameters mirror
// TailOptions: a negative offset asks for the last limit lines.
func (c *Client) Fetch(ctx context.Context, offset int64, limit int, wait time.Duration) (TailResult, error) {
	if c == nil {
		return TailResult{}, ErrAPIUnavailable
	}

	values := url.Values{}
	values.Set("offset", strconv.FormatInt(offset, 10))
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if wait > 0 {
		values.Set("wait_ms", strconv.FormatInt(wait.Milliseconds(), 10))
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/logs", RawQuery: values.Encode()})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return TailResult{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return TailResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return TailResult{}, fmt.Errorf("api logs returned status %d", resp.StatusCode)
	}
	var payload TailResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return TailResult{}, err
	}
	return payload, nil
}

// IsAPIUnavailable reports whether err means no daemon is reachable, as
// opposed to a daemon that answered with a failure.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}

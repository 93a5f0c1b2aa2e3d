// Package judge reads member submissions from an external judge's HTTP feed.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/streakd/internal/domain/model"
)

const (
	defaultTimeout  = 10 * time.Second
	maxBodyBytes    = 16 << 20
	submissionsPath = "/submissions"
)

// acceptedVerdicts are the verdicts that count as a solved problem. An
// empty verdict means the feed does not report one.
var acceptedVerdicts = map[string]bool{
	"":         true,
	"OK":       true,
	"ACCEPTED": true,
	"AC":       true,
}

type submission struct {
	Timestamp any    `json:"timestamp"`
	Verdict   string `json:"verdict"`
}

type submissionsResponse struct {
	Submissions []submission `json:"submissions"`
}

// Client fetches raw events from the judge.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a judge client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBase
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse judge base url: %w", err)
	}

	c := &Client{
		base: base,
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchEvents returns the member's accepted submissions as raw events.
func (c *Client) FetchEvents(ctx context.Context, memberID string) ([]model.RawEvent, error) {
	u := *c.base
	u.Path += submissionsPath
	u.RawQuery = url.Values{"member": {memberID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("judge request for %s: %w", memberID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, memberID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	var body submissionsResponse
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	events := make([]model.RawEvent, 0, len(body.Submissions))
	for _, s := range body.Submissions {
		if !acceptedVerdicts[strings.ToUpper(strings.TrimSpace(s.Verdict))] {
			continue
		}
		events = append(events, model.RawEvent{Timestamp: s.Timestamp})
	}
	return events, nil
}

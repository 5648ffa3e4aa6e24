// Package holiday fetches public-holiday calendars from the nager.date
// public API.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"jellybank/internal/core"
)

const defaultBaseURL = "https://date.nager.at/api/v3"

// Client talks to the nager.date PublicHolidays endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiHoliday struct {
	Date      string   `json:"date"`
	LocalName string   `json:"localName"`
	Name      string   `json:"name"`
	Types     []string `json:"types"`
}

func (h apiHoliday) isPublic() bool {
	for _, t := range h.Types {
		if strings.Contains(t, "Public") {
			return true
		}
	}
	return false
}

// FetchYear returns the public holidays of one country for one year.
// Only entries typed as public holidays count; an empty result is
// treated as an upstream fault since every supported country has at
// least one.
func (c *Client) FetchYear(ctx context.Context, year int, countryCode string) ([]core.Holiday, error) {
	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", c.baseURL, year, countryCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("holiday feed returned status %d", resp.StatusCode)
	}

	var entries []apiHoliday
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode holiday feed: %w", err)
	}

	var holidays []core.Holiday
	for _, e := range entries {
		if !e.isPublic() {
			continue
		}
		d, err := core.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday feed date %q: %w", e.Date, err)
		}
		name := e.LocalName
		if name == "" {
			name = e.Name
		}
		holidays = append(holidays, core.Holiday{Date: d, Name: name})
	}
	if len(holidays) == 0 {
		return nil, fmt.Errorf("holiday feed returned no public holidays for %s %d", countryCode, year)
	}
	return holidays, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/andli/cardartvoter/internal/domain/model"
)

// Scryfall client defaults. The public API asks for 50-100ms between
// requests; we stay at the slow end.
const (
	defaultBaseURL      = "https://api.scryfall.com"
	defaultUserAgent    = "cardartvoter/1.0"
	defaultRequestDelay = 100 * time.Millisecond
	defaultHTTPTimeout  = 30 * time.Second
)

// Client fetches card data from a Scryfall-compatible API with fixed
// pacing between requests.
type Client struct {
	baseURL   string
	userAgent string
	delay     time.Duration
	http      *http.Client
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host (tests use a
// local httptest server).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRequestDelay sets the pacing between consecutive requests.
func WithRequestDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// NewClient creates a paced Scryfall client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		delay:     defaultRequestDelay,
		http:      &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// searchPage mirrors the fields we read from a card search response.
type searchPage struct {
	Data     []scryfallCard `json:"data"`
	HasMore  bool           `json:"has_more"`
	NextPage string         `json:"next_page"`
}

type scryfallCard struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Set       string `json:"set"`
	SetName   string `json:"set_name"`
	Digital   bool   `json:"digital"`
	ImageURIs struct {
		Normal string `json:"normal"`
	} `json:"image_uris"`
}

// FetchSet pulls every card of one set, following pagination and skipping
// digital-only and imageless printings.
func (c *Client) FetchSet(ctx context.Context, setCode string) ([]model.CardSeed, error) {
	page := fmt.Sprintf("%s/cards/search?q=%s", c.baseURL, url.QueryEscape("set:"+setCode))

	var seeds []model.CardSeed
	for page != "" {
		var result searchPage
		if err := c.getJSON(ctx, page, &result); err != nil {
			return nil, fmt.Errorf("fetch set %s: %w", setCode, err)
		}
		for _, card := range result.Data {
			if card.Digital || card.ImageURIs.Normal == "" {
				continue
			}
			artist := card.Artist
			if artist == "" {
				artist = "Unknown"
			}
			seeds = append(seeds, model.CardSeed{
				ScryfallID: card.ID,
				Name:       card.Name,
				Artist:     artist,
				Set:        card.Set,
				SetName:    card.SetName,
				ImageURL:   card.ImageURIs.Normal,
			})
		}
		page = ""
		if result.HasMore {
			page = result.NextPage
		}
	}
	return seeds, nil
}

// getJSON performs one paced GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", ErrUpstream, rawURL, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	// Pace the next request.
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

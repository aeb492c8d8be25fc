package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ats-history/internal/ats"
)

const (
	DefaultBaseURL    = "https://api.collegefootballdata.com"
	requestsPerMinute = 60
	requestTimeout    = 15 * time.Second
	maxRetries        = 3
)

// Client reads games and lines from a CollegeFootballData-compatible API.
// It satisfies the engine's game and line source interfaces.
type Client struct {
	baseURL string
	apiKey  string
	client  *RateLimitedClient
}

// NewClient creates a new API client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  NewRateLimitedClient(requestsPerMinute, requestTimeout, maxRetries),
	}
}

// Games fetches one season of games, regular and postseason. An empty team fetches every game.
func (c *Client) Games(ctx context.Context, season int, team string) ([]ats.Game, error) {
	body, err := c.client.Get(ctx, c.endpoint("games", season, team), c.headers())
	if err != nil {
		return nil, fmt.Errorf("fetching games for %d: %w", season, err)
	}
	return DecodeGames(bytes.NewReader(body))
}

// Lines fetches one season of betting lines
func (c *Client) Lines(ctx context.Context, season int, team string) ([]ats.Line, error) {
	body, err := c.client.Get(ctx, c.endpoint("lines", season, team), c.headers())
	if err != nil {
		return nil, fmt.Errorf("fetching lines for %d: %w", season, err)
	}
	return DecodeLines(bytes.NewReader(body))
}

func (c *Client) endpoint(path string, season int, team string) string {
	q := url.Values{}
	q.Set("year", strconv.Itoa(season))
	q.Set("seasonType", "both")
	if team = strings.TrimSpace(team); team != "" {
		q.Set("team", team)
	}
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode())
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if c.apiKey != "" {
		h["Authorization"] = "Bearer " + c.apiKey
	}
	return h
}

// Package igdb searches the IGDB game catalog.
package igdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"playshelf/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const searchLimit = 10

// Config holds Twitch application credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBaseURL   string
	Timeout      time.Duration
}

// Game is a normalized search hit.
type Game struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Cover            *string  `json:"cover"`
	Platforms        []string `json:"platforms"`
	FirstReleaseDate *int64   `json:"first_release_date"`
}

// SearchResult is the catalog search response body.
type SearchResult struct {
	Games []Game `json:"games"`
}

type rawGame struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Cover *struct {
		URL string `json:"url"`
	} `json:"cover"`
	Platforms []struct {
		Name string `json:"name"`
	} `json:"platforms"`
	FirstReleaseDate *int64 `json:"first_release_date"`
}

// StatusError is returned when IGDB answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("igdb returned status %d", e.StatusCode)
}

// Client calls the IGDB v4 API with an app access token.
type Client struct {
	clientID   string
	baseURL    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	log        *observability.ClientLogger
}

// NewClient builds a Client. The app token is fetched lazily and reused until
// it expires.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	return &Client{
		clientID:   cfg.ClientID,
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		tokens:     oauth2.ReuseTokenSource(nil, cc.TokenSource(tokenCtx)),
		httpClient: httpClient,
		log:        observability.NewClientLogger("igdb"),
	}
}

// Search runs a name search and normalizes covers and platform names.
func (c *Client) Search(ctx context.Context, query string) (res *SearchResult, err error) {
	start := time.Now()
	defer func() { err = c.log.LogCall(ctx, "search", start, err, "query", query) }()

	tok, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("igdb token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", bytes.NewBufferString(SearchBody(query)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Content-Type", "text/plain")
	tok.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("igdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var raw []rawGame
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode igdb response: %w", err)
	}

	res = &SearchResult{Games: make([]Game, 0, len(raw))}
	for _, g := range raw {
		names := make([]string, 0, len(g.Platforms))
		for _, p := range g.Platforms {
			names = append(names, p.Name)
		}
		var cover string
		if g.Cover != nil {
			cover = g.Cover.URL
		}
		res.Games = append(res.Games, Game{
			ID:               g.ID,
			Name:             g.Name,
			Cover:            CoverURL(cover),
			Platforms:        PlatformNames(names),
			FirstReleaseDate: g.FirstReleaseDate,
		})
	}
	return res, nil
}

// SearchBody renders the Apicalypse query for a name search.
func SearchBody(query string) string {
	q := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(query)
	return fmt.Sprintf(`search "%s"; fields name,cover.*,platforms.name,first_release_date; limit %d;`, q, searchLimit)
}

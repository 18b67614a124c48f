// Package discord wraps the Discord OAuth2 flow and the REST endpoints used
// for identity and profile lookups.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"playshelf/internal/observability"

	"github.com/darui3018823/discordgo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

const (
	authorizeURL = "https://discord.com/oauth2/authorize"

	// RelationshipFriend is the relationship type Discord uses for accepted friends.
	RelationshipFriend = 1
)

// Scopes requested during login.
var Scopes = []string{"identify", "email", "connections"}

var (
	// ErrNoBotToken is returned by bot lookups when no bot token is configured.
	ErrNoBotToken = errors.New("discord bot token not configured")
	// ErrNoAccessToken is returned when a user-token call has no token to send.
	ErrNoAccessToken = errors.New("discord access token missing")
)

// Config holds Discord application credentials and endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	BotToken     string
	APIBaseURL   string
	Timeout      time.Duration
}

// Profile is the subset of a Discord user the application stores.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Email      string `json:"email,omitempty"`
}

// DisplayName prefers the global display name over the account username.
func (p *Profile) DisplayName() string {
	if p.GlobalName != "" {
		return p.GlobalName
	}
	return p.Username
}

// AvatarURL returns the CDN URL for the profile's avatar.
func (p *Profile) AvatarURL() string {
	return AvatarURL(p.ID, p.Avatar)
}

func profileFromUser(u *discordgo.User) *Profile {
	if u == nil {
		return &Profile{}
	}
	return &Profile{
		ID:         u.ID,
		Username:   u.Username,
		GlobalName: u.GlobalName,
		Avatar:     u.Avatar,
		Email:      u.Email,
	}
}

type relationship struct {
	ID   string          `json:"id"`
	Type int             `json:"type"`
	User *discordgo.User `json:"user"`
}

// Client talks to Discord on behalf of the application bot and of signed-in users.
type Client struct {
	oauth      *oauth2.Config
	botToken   string
	httpClient *http.Client
	log        *observability.ClientLogger
}

// NewClient builds a Client. When cfg.APIBaseURL is set, REST and token
// requests are sent there instead of discord.com.
func NewClient(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var transport http.RoundTripper = otelhttp.NewTransport(http.DefaultTransport)
	tokenURL := strings.TrimSuffix(discordgo.EndpointAPI, "/") + "/oauth2/token"
	if cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.APIBaseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid discord api base url: %w", err)
		}
		transport = &rewriteTransport{base: base, next: transport}
		tokenURL = base.String() + "/oauth2/token"
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		botToken:   cfg.BotToken,
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		log:        observability.NewClientLogger("discord"),
	}, nil
}

// HasBotToken reports whether bot lookups are possible.
func (c *Client) HasBotToken() bool {
	return c.botToken != ""
}

// AuthCodeURL returns the Discord consent page URL for state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a user token.
func (c *Client) Exchange(ctx context.Context, code string) (tok *oauth2.Token, err error) {
	start := time.Now()
	defer func() { err = c.log.LogCall(ctx, "exchange", start, err) }()

	tok, err = c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (tok *oauth2.Token, err error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is empty")
	}
	start := time.Now()
	defer func() { err = c.log.LogCall(ctx, "refresh", start, err) }()

	tok, err = c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return tok, nil
}

// CurrentUser fetches the profile that owns accessToken.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (p *Profile, err error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}
	start := time.Now()
	defer func() { err = c.log.LogCall(ctx, "current_user", start, err, "status", StatusCode(err)) }()

	s, err := c.session("Bearer " + accessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return profileFromUser(u), nil
}

// UserByID fetches any user's public profile with the bot token.
func (c *Client) UserByID(ctx context.Context, discordID string) (p *Profile, err error) {
	if !c.HasBotToken() {
		return nil, ErrNoBotToken
	}
	start := time.Now()
	defer func() { err = c.log.LogCall(ctx, "user_by_id", start, err, "discord_id", discordID, "status", StatusCode(err)) }()

	s, err := c.session("Bot " + c.botToken)
	if err != nil {
		return nil, err
	}
	u, err := s.User(discordID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch user %s: %w", discordID, err)
	}
	return profileFromUser(u), nil
}

// Friends lists the accepted friends of the user that owns accessToken.
func (c *Client) Friends(ctx context.Context, accessToken string) (out []Profile, err error) {
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}
	start := time.Now()
	defer func() { err = c.log.LogCall(ctx, "relationships", start, err, "status", StatusCode(err)) }()

	s, err := c.session("Bearer " + accessToken)
	if err != nil {
		return nil, err
	}
	body, err := s.Request(http.MethodGet, discordgo.EndpointUser("@me")+"/relationships", nil, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch relationships: %w", err)
	}

	var rels []relationship
	if err := json.Unmarshal(body, &rels); err != nil {
		return nil, fmt.Errorf("decode relationships: %w", err)
	}

	out = make([]Profile, 0, len(rels))
	for _, r := range rels {
		if r.Type != RelationshipFriend || r.User == nil {
			continue
		}
		out = append(out, *profileFromUser(r.User))
	}
	return out, nil
}

func (c *Client) session(token string) (*discordgo.Session, error) {
	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Client = c.httpClient
	s.ShouldRetryOnRateLimit = false
	s.MaxRestRetries = 0
	return s, nil
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// rewriteTransport sends requests aimed at the Discord API to another base URL.
type rewriteTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	raw := req.URL.String()
	if !strings.HasPrefix(raw, discordgo.EndpointAPI) {
		return t.next.RoundTrip(req)
	}
	target, err := url.Parse(t.base.String() + "/" + strings.TrimPrefix(raw, discordgo.EndpointAPI))
	if err != nil {
		return nil, err
	}
	out := req.Clone(req.Context())
	out.URL = target
	out.Host = target.Host
	return t.next.RoundTrip(out)
}

package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeDiscord(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"user-access","refresh_token":"user-refresh","token_type":"Bearer","expires_in":604800}`))
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != "user-refresh" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/users/@me/relationships", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-access" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"401: Unauthorized","code":0}`))
			return
		}
		_, _ = w.Write([]byte(`[
			{"id":"111","type":1,"user":{"id":"111","username":"ally","avatar":"abc"}},
			{"id":"222","type":2,"user":{"id":"222","username":"blocked"}},
			{"id":"333","type":1,"user":{"id":"333","username":"bea","global_name":"Bea"}}
		]`))
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/users/")
		auth := r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case id == "@me" && auth == "Bearer user-access":
			_, _ = w.Write([]byte(`{"id":"80351110224678912","username":"nelly","global_name":"Nelly","avatar":"a_hash","email":"nelly@example.com"}`))
		case id == "80351110224678912" && auth == "Bot bot-token":
			_, _ = w.Write([]byte(`{"id":"80351110224678912","username":"nelly","avatar":""}`))
		case auth == "Bot bot-token":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Unknown User","code":10013}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"401: Unauthorized","code":0}`))
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, botToken string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8375/auth/callback",
		BotToken:     botToken,
		APIBaseURL:   srv.URL,
		Timeout:      2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestClient_AuthCodeURL(t *testing.T) {
	srv := newFakeDiscord(t)
	c := newTestClient(t, srv, "")

	u, err := url.Parse(c.AuthCodeURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "discord.com", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "identify email connections", q.Get("scope"))
	assert.Equal(t, "client", q.Get("client_id"))
}

func TestClient_ExchangeAndCurrentUser(t *testing.T) {
	srv := newFakeDiscord(t)
	c := newTestClient(t, srv, "")
	ctx := context.Background()

	tok, err := c.Exchange(ctx, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "user-access", tok.AccessToken)
	assert.Equal(t, "user-refresh", tok.RefreshToken)
	assert.True(t, tok.Expiry.After(time.Now()))

	p, err := c.CurrentUser(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "80351110224678912", p.ID)
	assert.Equal(t, "Nelly", p.DisplayName())
	assert.Equal(t, "https://cdn.discordapp.com/avatars/80351110224678912/a_hash.gif", p.AvatarURL())

	_, err = c.Exchange(ctx, "bad-code")
	assert.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestClient_CurrentUserRejected(t *testing.T) {
	srv := newFakeDiscord(t)
	c := newTestClient(t, srv, "")

	_, err := c.CurrentUser(context.Background(), "revoked")
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	_, err = c.CurrentUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestClient_UserByID(t *testing.T) {
	srv := newFakeDiscord(t)

	_, err := newTestClient(t, srv, "").UserByID(context.Background(), "1")
	assert.ErrorIs(t, err, ErrNoBotToken)

	c := newTestClient(t, srv, "bot-token")
	p, err := c.UserByID(context.Background(), "80351110224678912")
	require.NoError(t, err)
	assert.Equal(t, "nelly", p.DisplayName())
	assert.Equal(t, "https://cdn.discordapp.com/embed/avatars/2.png", p.AvatarURL())

	_, err = c.UserByID(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestClient_TransportFailureIsNotAPIError(t *testing.T) {
	srv := newFakeDiscord(t)
	c := newTestClient(t, srv, "bot-token")
	srv.Close()

	_, err := c.UserByID(context.Background(), "80351110224678912")
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}

func TestClient_Refresh(t *testing.T) {
	srv := newFakeDiscord(t)
	c := newTestClient(t, srv, "")

	tok, err := c.Refresh(context.Background(), "user-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Equal(t, "new-refresh", tok.RefreshToken)

	_, err = c.Refresh(context.Background(), "stale")
	assert.Error(t, err)

	_, err = c.Refresh(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_Friends(t *testing.T) {
	srv := newFakeDiscord(t)
	c := newTestClient(t, srv, "")

	friends, err := c.Friends(context.Background(), "user-access")
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "111", friends[0].ID)
	assert.Equal(t, "Bea", friends[1].DisplayName())
}

func TestProfile_JSON(t *testing.T) {
	b, err := json.Marshal(Profile{ID: "1", Username: "u"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","username":"u"}`, string(b))
}

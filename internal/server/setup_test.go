package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playshelf/internal/cache"
	"playshelf/internal/config"
	"playshelf/internal/discord"
	"playshelf/internal/igdb"
	"playshelf/internal/middleware"
	"playshelf/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	testSecret   = "test-secret-key-12345678901234567890123456789012"
	testFrontend = "http://localhost:3000"
)

type MockDiscordAPI struct {
	mock.Mock
}

func (m *MockDiscordAPI) AuthCodeURL(state string) string {
	return "https://discord.com/oauth2/authorize?state=" + state
}

func (m *MockDiscordAPI) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	tok, _ := args.Get(0).(*oauth2.Token)
	return tok, args.Error(1)
}

func (m *MockDiscordAPI) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	args := m.Called(ctx, refreshToken)
	tok, _ := args.Get(0).(*oauth2.Token)
	return tok, args.Error(1)
}

func (m *MockDiscordAPI) CurrentUser(ctx context.Context, accessToken string) (*discord.Profile, error) {
	args := m.Called(ctx, accessToken)
	p, _ := args.Get(0).(*discord.Profile)
	return p, args.Error(1)
}

func (m *MockDiscordAPI) UserByID(ctx context.Context, discordID string) (*discord.Profile, error) {
	args := m.Called(ctx, discordID)
	p, _ := args.Get(0).(*discord.Profile)
	return p, args.Error(1)
}

func (m *MockDiscordAPI) Friends(ctx context.Context, accessToken string) ([]discord.Profile, error) {
	args := m.Called(ctx, accessToken)
	out, _ := args.Get(0).([]discord.Profile)
	return out, args.Error(1)
}

func (m *MockDiscordAPI) HasBotToken() bool {
	return true
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Search(ctx context.Context, query string) (*igdb.SearchResult, error) {
	args := m.Called(ctx, query)
	res, _ := args.Get(0).(*igdb.SearchResult)
	return res, args.Error(1)
}

type testEnv struct {
	server  *Server
	app     *fiber.App
	db      *gorm.DB
	discord *MockDiscordAPI
	catalog *MockCatalog
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Env:          "test",
		Port:         "0",
		FrontendURL:  testFrontend,
		JWTSecret:    testSecret,
		FeatureFlags: "discord_friends_import=on,dashboard=on",
	}
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.NewSQLiteDB(t)
	env := &testEnv{db: db, discord: new(MockDiscordAPI), catalog: new(MockCatalog)}

	s, err := NewServerWithClients(cfg, db, nil, Clients{Discord: env.discord, Catalog: env.catalog})
	require.NoError(t, err)
	env.server = s
	env.app = s.NewApp()
	return env
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func sessionFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := middleware.IssueSessionToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends a request as userID (uuid.Nil for anonymous) and returns the
// status and raw body.
func (e *testEnv) do(t *testing.T, method, path string, userID uuid.UUID, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+sessionFor(t, userID))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

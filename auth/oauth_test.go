package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/uhppoted/dbm-sheets/props"
)

func newTestService(t *testing.T, tokenURL string) (*Service, props.Store) {
	t.Helper()

	config := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/o/oauth2/auth",
			TokenURL: tokenURL,
		},
		RedirectURL: "http://localhost/callback",
		Scopes:      Scopes,
	}

	store := props.NewMemory().Scope(props.UserScope("someone@example.com"))

	return NewServiceWithConfig(config, "someone@example.com", store, zap.NewNop()), store
}

func saveToken(t *testing.T, store props.Store, token oauth2.Token) {
	t.Helper()

	b, err := json.Marshal(token)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "oauth2.GCSAPI", string(b)))
}

func TestHasAccessWithoutToken(t *testing.T) {
	service, _ := newTestService(t, "http://localhost/token")

	assert.False(t, service.HasAccess(context.Background()))
}

func TestHasAccessWithRefreshableToken(t *testing.T) {
	service, store := newTestService(t, "http://localhost/token")

	saveToken(t, store, oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	})

	assert.True(t, service.HasAccess(context.Background()))
}

func TestHasAccessWithExpiredToken(t *testing.T) {
	service, store := newTestService(t, "http://localhost/token")

	saveToken(t, store, oauth2.Token{
		AccessToken: "expired",
		Expiry:      time.Now().Add(-time.Hour),
	})

	assert.False(t, service.HasAccess(context.Background()))
}

func TestAccessTokenRefreshesAndSaves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh"}`))
	}))
	defer srv.Close()

	service, store := newTestService(t, srv.URL)
	ctx := context.Background()

	saveToken(t, store, oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	})

	token, err := service.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)

	v, ok, err := store.Get(ctx, "oauth2.GCSAPI")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, v, `"access_token":"fresh"`)
}

func TestAccessTokenWithoutToken(t *testing.T) {
	service, _ := newTestService(t, "http://localhost/token")

	_, err := service.AccessToken(context.Background())
	assert.ErrorContains(t, err, "access not granted or expired")
}

func TestReset(t *testing.T) {
	service, store := newTestService(t, "http://localhost/token")
	ctx := context.Background()

	saveToken(t, store, oauth2.Token{AccessToken: "valid", Expiry: time.Now().Add(time.Hour)})
	require.True(t, service.HasAccess(ctx))

	require.NoError(t, service.Reset(ctx))
	assert.False(t, service.HasAccess(ctx))
}

func TestAuthorizationURL(t *testing.T) {
	service, _ := newTestService(t, "http://localhost/token")

	u, err := url.Parse(service.AuthorizationURL())
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "force", q.Get("approval_prompt"))
	assert.Equal(t, "someone@example.com", q.Get("login_hint"))
	assert.Equal(t, "state-token", q.Get("state"))
}

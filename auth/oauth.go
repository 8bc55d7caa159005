// Package auth implements the OAuth2 capability used for the DBM API and the Google Cloud
// Storage report downloads.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/uhppoted/dbm-sheets/props"
)

const (
	STORAGE  = "https://www.googleapis.com/auth/devstorage.read_only"
	DBM      = "https://www.googleapis.com/auth/doubleclickbidmanager"
	SHEETS   = "https://www.googleapis.com/auth/spreadsheets"
	DRIVE    = "https://www.googleapis.com/auth/drive.metadata.readonly"
	USERINFO = "https://www.googleapis.com/auth/userinfo.email"
)

// Scopes requested by the authorisation flow.
var Scopes = []string{STORAGE, DBM, SHEETS, DRIVE, USERINFO}

const serviceName = "GCSAPI"

// OAuth is the capability the sync engine needs from the OAuth2 flow.
type OAuth interface {
	HasAccess(ctx context.Context) bool
	AccessToken(ctx context.Context) (string, error)
	AuthorizationURL() string
	Reset(ctx context.Context) error
}

// Service is an OAuth implementation that keeps the user's token in the user scoped
// property store.
type Service struct {
	config *oauth2.Config
	store  props.Store
	user   string
	logger *zap.Logger

	guard sync.Mutex
}

var _ OAuth = (*Service)(nil)

// NewService loads the OAuth2 client configuration from a Google developer console
// credentials.json file.
func NewService(credentials string, user string, store props.Store, logger *zap.Logger) (*Service, error) {
	b, err := os.ReadFile(credentials)
	if err != nil {
		return nil, err
	}

	config, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, err
	}

	return NewServiceWithConfig(config, user, store, logger), nil
}

func NewServiceWithConfig(config *oauth2.Config, user string, store props.Store, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		store:  store,
		user:   user,
		logger: logger.Named("oauth"),
	}
}

func (s *Service) Config() *oauth2.Config {
	return s.config
}

// HasAccess returns true if a token is stored that is either still valid or can be
// refreshed.
func (s *Service) HasAccess(ctx context.Context) bool {
	token, err := s.token(ctx)
	if err != nil {
		s.logger.Warn("error retrieving stored token", zap.Error(err))
		return false
	}

	return token != nil && (token.Valid() || token.RefreshToken != "")
}

// AccessToken returns a valid access token, refreshing and storing it if it has expired.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	token, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}

	return token.AccessToken, nil
}

func (s *Service) refresh(ctx context.Context) (*oauth2.Token, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	} else if token == nil {
		return nil, fmt.Errorf("access not granted or expired")
	}

	refreshed, err := s.config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("access not granted or expired (%w)", err)
	}

	if refreshed.AccessToken != token.AccessToken {
		if err := s.save(ctx, refreshed); err != nil {
			s.logger.Warn("error saving refreshed token", zap.Error(err))
		}
	}

	return refreshed, nil
}

// AuthorizationURL returns the URL a user should visit to (re-)authorise access.
func (s *Service) AuthorizationURL() string {
	options := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("approval_prompt", "force"),
	}

	if s.user != "" {
		options = append(options, oauth2.SetAuthURLParam("login_hint", s.user))
	}

	return s.config.AuthCodeURL("state-token", options...)
}

// Reset discards the stored token.
func (s *Service) Reset(ctx context.Context) error {
	s.logger.Info("resetting OAuth token", zap.String("user", s.user))

	return s.store.Delete(ctx, tokenKey())
}

// Exchange completes the authorisation flow for the code returned to the callback.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, token); err != nil {
		return nil, err
	}

	return token, nil
}

// TokenSource returns a token source backed by the stored token. Refreshed tokens are
// written back to the user properties.
func (s *Service) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{
		ctx:     ctx,
		service: s,
	}
}

type tokenSource struct {
	ctx     context.Context
	service *Service
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	t.service.guard.Lock()
	defer t.service.guard.Unlock()

	return t.service.refresh(t.ctx)
}

func (s *Service) token(ctx context.Context) (*oauth2.Token, error) {
	v, ok, err := s.store.Get(ctx, tokenKey())
	if err != nil {
		return nil, err
	} else if !ok || v == "" {
		return nil, nil
	}

	token := oauth2.Token{}
	if err := json.Unmarshal([]byte(v), &token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (s *Service) save(ctx context.Context, token *oauth2.Token) error {
	b, err := json.Marshal(token)
	if err != nil {
		return err
	}

	return s.store.Set(ctx, tokenKey(), string(b))
}

func tokenKey() string {
	return fmt.Sprintf("oauth2.%v", serviceName)
}

// Package dbm is a minimal client for the DoubleClick Bid Manager reporting API and the
// storage locations its reports are written to.
package dbm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/apperrors"
	"github.com/uhppoted/dbm-sheets/auth"
)

const DefaultBaseURL = "https://www.googleapis.com/doubleclickbidmanager/v1"

// Client retrieves query metadata and report content. Requests to the API and to v1 report
// storage carry the OAuth bearer token, v2 report downloads do not.
type Client struct {
	BaseURL  string
	V2Bucket string
	HTTP     *http.Client

	oauth  auth.OAuth
	logger *zap.Logger
}

func NewClient(oauth auth.OAuth, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:  DefaultBaseURL,
		V2Bucket: DefaultV2Bucket,
		HTTP: &http.Client{
			Timeout: 60 * time.Second,
		},
		oauth:  oauth,
		logger: logger.Named("dbm"),
	}
}

// ListQueries returns all the queries visible to the authorised user.
func (c *Client) ListQueries(ctx context.Context) ([]Query, error) {
	uri := c.BaseURL + "/queries"

	body, err := c.get(ctx, uri)
	if err != nil {
		c.logger.Error("fetch all reports failed", zap.String("url", uri), zap.Error(err))
		return nil, c.expired(ctx, "fetching report list", err)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		c.logger.Error("empty response from DBM API", zap.String("url", uri))
		return nil, &apperrors.EmptyResponseError{URL: uri}
	}

	var response queries
	if err := json.Unmarshal(body, &response); err != nil {
		c.logger.Error("invalid response from DBM API", zap.String("url", uri), zap.Error(err))
		return nil, &apperrors.MalformedResponseError{URL: uri, Reason: err.Error()}
	}

	if response.Queries == nil {
		c.logger.Error("no queries in response from DBM API", zap.String("url", uri))
		return nil, &apperrors.MalformedResponseError{URL: uri, Reason: "missing 'queries'"}
	}

	return *response.Queries, nil
}

// GetQuery returns the metadata for a single query.
func (c *Client) GetQuery(ctx context.Context, queryID string) (*Query, error) {
	uri := fmt.Sprintf("%v/query/%v", c.BaseURL, url.PathEscape(queryID))

	body, err := c.get(ctx, uri)
	if err != nil {
		c.logger.Error("fetch report failed", zap.String("query", queryID), zap.Error(err))
		return nil, c.expired(ctx, "fetching report with ID", err)
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		c.logger.Error("empty response from DBM API call, maybe report doesn't exist", zap.String("url", uri))
		return nil, &apperrors.EmptyResponseError{URL: uri}
	}

	var query Query
	if err := json.Unmarshal(body, &query); err != nil {
		c.logger.Error("invalid response from DBM report query", zap.String("url", uri), zap.Error(err))
		return nil, &apperrors.MalformedResponseError{URL: uri, Reason: err.Error()}
	}

	if !hasMetadata(body) {
		c.logger.Error("no metadata in response from DBM report query", zap.String("url", uri))
		return nil, &apperrors.MalformedResponseError{URL: uri, Reason: "missing 'metadata'"}
	}

	if query.QueryID == "" {
		query.QueryID = queryID
	}

	return &query, nil
}

// Download fetches the report content from its storage path.
func (c *Client) Download(ctx context.Context, path StoragePath) (string, error) {
	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, path.URL, nil)
	if err != nil {
		return "", err
	}

	if path.Authorised() {
		token, err := c.oauth.AccessToken(ctx)
		if err != nil {
			c.logger.Error("no access token for report download", zap.String("url", path.URL), zap.Error(err))
			return "", c.expired(ctx, "downloading report", err)
		}

		rq.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.HTTP.Do(rq)
	if err != nil {
		return "", fmt.Errorf("error downloading %v report (%w)", path.Version, err)
	}

	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", fmt.Errorf("error reading %v report (%w)", path.Version, err)
	}

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error downloading %v report (%v)", path.Version, response.Status)
	}

	return string(body), nil
}

// Classify wraps ClassifyStoragePath with the configured v2 bucket.
func (c *Client) Classify(path string) StoragePath {
	return ClassifyStoragePath(path, c.V2Bucket)
}

func (c *Client) get(ctx context.Context, uri string) ([]byte, error) {
	token, err := c.oauth.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	rq, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}

	rq.Header.Set("Authorization", "Bearer "+token)

	response, err := c.HTTP.Do(rq)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, fmt.Errorf("%v", response.Status)
	}

	return body, nil
}

func (c *Client) expired(ctx context.Context, operation string, cause error) error {
	err := &apperrors.AuthExpiredError{
		Operation:        operation,
		AuthorizationURL: c.oauth.AuthorizationURL(),
		Cause:            cause,
	}

	if reset := c.oauth.Reset(ctx); reset != nil {
		c.logger.Warn("error resetting OAuth token", zap.Error(reset))
	}

	return err
}

func hasMetadata(body []byte) bool {
	v := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &v); err != nil {
		return false
	}

	m, ok := v["metadata"]

	return ok && len(m) > 0 && string(m) != "null"
}

package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/apperrors"
	"github.com/uhppoted/dbm-sheets/dbm"
	"github.com/uhppoted/dbm-sheets/linkage"
	"github.com/uhppoted/dbm-sheets/props"
)

type reports struct {
	queries   map[string]dbm.Query
	content   map[string]string
	err       error
	downloads []dbm.StoragePath
}

func (r *reports) ListQueries(ctx context.Context) ([]dbm.Query, error) {
	list := []dbm.Query{}
	for _, q := range r.queries {
		list = append(list, q)
	}

	return list, r.err
}

func (r *reports) GetQuery(ctx context.Context, queryID string) (*dbm.Query, error) {
	if r.err != nil {
		return nil, r.err
	}

	if q, ok := r.queries[queryID]; ok {
		return &q, nil
	}

	return nil, &apperrors.EmptyResponseError{URL: "/query/" + queryID}
}

func (r *reports) Classify(path string) dbm.StoragePath {
	return dbm.ClassifyStoragePath(path, dbm.DefaultV2Bucket)
}

func (r *reports) Download(ctx context.Context, path dbm.StoragePath) (string, error) {
	r.downloads = append(r.downloads, path)

	if content, ok := r.content[path.URL]; ok {
		return content, nil
	}

	return "", errors.New("404 Not Found")
}

type nopOAuth struct{}

func (nopOAuth) HasAccess(ctx context.Context) bool              { return true }
func (nopOAuth) AccessToken(ctx context.Context) (string, error) { return "qwerty", nil }
func (nopOAuth) AuthorizationURL() string                        { return "" }
func (nopOAuth) Reset(ctx context.Context) error                 { return nil }

var runtime = time.Date(2026, time.March, 4, 6, 0, 0, 0, time.UTC)
var synced = time.Date(2026, time.March, 4, 9, 15, 0, 0, time.UTC)

func newFetcher(t *testing.T, r *reports, store props.Store) (*Fetcher, *linkage.Links, *MemoryWorkbook) {
	t.Helper()

	logger := zap.NewNop()
	links := linkage.NewLinks(store, logger)
	resolver := linkage.NewResolver(links, r, nopOAuth{}, logger)
	workbook := NewMemoryWorkbook()
	fetcher := NewFetcher(resolver, links, r, NewWriter(workbook, logger), logger)
	fetcher.now = func() time.Time { return synced }

	return fetcher, links, workbook
}

func TestFetchAndApplyV2(t *testing.T) {
	r := &reports{
		queries: map[string]dbm.Query{
			"12345": {QueryID: "12345", Metadata: dbm.Metadata{
				Title:               "Daily spend",
				LatestReportPath:    "https://storage.googleapis.com/ddm-xbid/daily.csv",
				LatestReportRunTime: runtime,
			}},
		},
		content: map[string]string{
			"https://storage.googleapis.com/ddm-xbid/daily.csv": daily,
		},
	}

	fetcher, links, workbook := newFetcher(t, r, props.NewMemory().Scope("document:test"))
	grid := workbook.Add(12, 100, 26)

	require.NoError(t, links.Link(context.Background(), 12, "12345", "Daily spend", "someone@example.com"))
	require.NoError(t, fetcher.FetchAndApply(context.Background(), 12))

	require.Len(t, r.downloads, 1)
	assert.Equal(t, dbm.V2, r.downloads[0].Version)
	assert.Equal(t, 5, grid.Rows)
	assert.Equal(t, 4, grid.Columns)

	l, err := links.Get(context.Background(), 12)
	require.NoError(t, err)
	require.NotNil(t, l.LastSync)
	require.NotNil(t, l.ReportUpdated)
	assert.True(t, synced.Equal(*l.LastSync))
	assert.True(t, runtime.Equal(*l.ReportUpdated))
}

func TestFetchAndApplyMigratesLegacyLink(t *testing.T) {
	r := &reports{
		queries: map[string]dbm.Query{
			"200": {QueryID: "200", Metadata: dbm.Metadata{
				Title:            "Daily spend",
				LatestReportPath: "https://storage.googleapis.com/0151_report/daily.csv",
			}},
		},
		content: map[string]string{
			"https://storage.googleapis.com/0151_report/daily.csv": daily,
		},
	}

	ctx := context.Background()
	store := props.NewMemory().Scope("document:test")
	require.NoError(t, store.Set(ctx, "12_BUCKET_NAME", "0151_report"))
	require.NoError(t, store.Set(ctx, "12_DBM_REPORT_NAME", "Daily spend"))

	fetcher, links, workbook := newFetcher(t, r, store)
	grid := workbook.Add(12, 100, 26)

	require.NoError(t, fetcher.FetchAndApply(ctx, 12))

	require.Len(t, r.downloads, 1)
	assert.Equal(t, dbm.V1, r.downloads[0].Version)
	assert.Equal(t, 4, grid.Rows)

	l, err := links.Get(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, "200", l.QueryID)
	assert.Equal(t, "", l.BucketName)
	assert.Nil(t, l.ReportUpdated)
}

func TestFetchAndApplyWithUnlinkedSheet(t *testing.T) {
	fetcher, _, workbook := newFetcher(t, &reports{}, props.NewMemory().Scope("document:test"))
	workbook.Add(12, 10, 10)

	err := fetcher.FetchAndApply(context.Background(), 12)
	assert.True(t, apperrors.IsLinkage(err), "%v", err)
}

func TestFetchAndApplyWithDownloadError(t *testing.T) {
	r := &reports{
		queries: map[string]dbm.Query{
			"12345": {QueryID: "12345", Metadata: dbm.Metadata{LatestReportPath: "https://storage.googleapis.com/151_report/missing.csv"}},
		},
	}

	fetcher, links, workbook := newFetcher(t, r, props.NewMemory().Scope("document:test"))
	grid := workbook.Add(12, 10, 10)
	grid.Cells[0][0] = "keep"

	ctx := context.Background()
	require.NoError(t, links.Link(ctx, 12, "12345", "Daily spend", "someone@example.com"))

	assert.Error(t, fetcher.FetchAndApply(ctx, 12))
	assert.Equal(t, "keep", grid.Cells[0][0])

	l, err := links.Get(ctx, 12)
	require.NoError(t, err)
	assert.Nil(t, l.LastSync)
}

func TestFetchAndApplyWithReportNotRun(t *testing.T) {
	r := &reports{
		queries: map[string]dbm.Query{
			"12345": {QueryID: "12345", HasMetadata: true, Metadata: dbm.Metadata{Title: "Daily spend"}},
		},
	}

	fetcher, links, workbook := newFetcher(t, r, props.NewMemory().Scope("document:test"))
	grid := workbook.Add(12, 10, 10)
	grid.Cells[0][0] = "keep"

	ctx := context.Background()
	require.NoError(t, links.Link(ctx, 12, "12345", "Daily spend", "someone@example.com"))

	err := fetcher.FetchAndApply(ctx, 12)
	assert.True(t, apperrors.IsMalformedResponse(err), "%v", err)
	assert.Empty(t, r.downloads)
	assert.Equal(t, "keep", grid.Cells[0][0])
}

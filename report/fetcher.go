package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/apperrors"
	"github.com/uhppoted/dbm-sheets/dbm"
	"github.com/uhppoted/dbm-sheets/linkage"
)

// Reports is the part of the DBM client the fetcher uses.
type Reports interface {
	GetQuery(ctx context.Context, queryID string) (*dbm.Query, error)
	Classify(path string) dbm.StoragePath
	Download(ctx context.Context, path dbm.StoragePath) (string, error)
}

// Fetcher pulls the latest report for a linked sheet into the sheet.
type Fetcher struct {
	resolver *linkage.Resolver
	links    *linkage.Links
	reports  Reports
	writer   *Writer
	now      func() time.Time
	logger   *zap.Logger
}

func NewFetcher(resolver *linkage.Resolver, links *linkage.Links, reports Reports, writer *Writer, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		resolver: resolver,
		links:    links,
		reports:  reports,
		writer:   writer,
		now:      time.Now,
		logger:   logger.Named("fetcher"),
	}
}

// FetchAndApply rewrites the sheet with the latest run of its linked report and records the
// sync and report run times.
func (f *Fetcher) FetchAndApply(ctx context.Context, sheetID int64) error {
	queryID, err := f.resolver.Resolve(ctx, sheetID)
	if err != nil {
		return err
	}

	query, err := f.reports.GetQuery(ctx, queryID)
	if err != nil {
		return err
	}

	if query.Metadata.LatestReportPath == "" {
		err := &apperrors.MalformedResponseError{URL: queryID, Reason: "report has not run yet"}
		f.logger.Error("no report to fetch", zap.Int64("sheet", sheetID), zap.String("query", queryID), zap.Error(err))
		return err
	}

	path := f.reports.Classify(query.Metadata.LatestReportPath)

	f.logger.Debug("fetching report",
		zap.Int64("sheet", sheetID),
		zap.String("query", queryID),
		zap.Stringer("version", path.Version),
		zap.String("url", path.URL))

	content, err := f.reports.Download(ctx, path)
	if err != nil {
		f.logger.Error("error downloading report", zap.Int64("sheet", sheetID), zap.String("query", queryID), zap.Error(err))
		return err
	}

	if err := f.writer.Apply(ctx, content, sheetID, path.Version); err != nil {
		return err
	}

	if err := f.links.MarkSynced(ctx, sheetID, f.now(), query.Metadata.LatestReportRunTime); err != nil {
		return err
	}

	f.logger.Info("sheet refreshed with new data", zap.Int64("sheet", sheetID), zap.String("query", queryID), zap.String("report", query.Metadata.Title))

	return nil
}

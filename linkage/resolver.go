package linkage

import (
	"context"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/apperrors"
	"github.com/uhppoted/dbm-sheets/auth"
	"github.com/uhppoted/dbm-sheets/dbm"
)

// QueryLister is the part of the DBM client the resolver needs to migrate legacy links.
type QueryLister interface {
	ListQueries(ctx context.Context) ([]dbm.Query, error)
}

// Resolver maps a sheet to the query ID of its linked report, migrating legacy bucket name
// links to query IDs as it goes.
type Resolver struct {
	links   *Links
	queries QueryLister
	oauth   auth.OAuth
	logger  *zap.Logger
}

func NewResolver(links *Links, queries QueryLister, oauth auth.OAuth, logger *zap.Logger) *Resolver {
	return &Resolver{
		links:   links,
		queries: queries,
		oauth:   oauth,
		logger:  logger.Named("resolver"),
	}
}

// Resolve returns the query ID for the sheet. Only a sheet linked by bucket name alone
// needs the remote query list.
func (r *Resolver) Resolve(ctx context.Context, sheet int64) (string, error) {
	linkage, err := r.links.Get(ctx, sheet)
	if err != nil {
		return "", err
	}

	switch {
	case linkage.QueryID == "" && linkage.BucketName == "":
		err := &apperrors.LinkageError{SheetID: sheet}
		r.logger.Error("sheet not linked", zap.Int64("sheet", sheet))
		return "", err

	case linkage.BucketName == "":
		return linkage.QueryID, nil

	case linkage.QueryID != "":
		if err := r.links.dropBucketName(ctx, sheet); err != nil {
			return "", err
		}

		r.logger.Info("removed stale bucket name", zap.Int64("sheet", sheet), zap.String("bucket", linkage.BucketName))
		return linkage.QueryID, nil
	}

	queries, err := r.queries.ListQueries(ctx)
	if err != nil {
		return "", r.expired(ctx, sheet, err)
	}

	for _, q := range queries {
		path := q.Metadata.LatestReportPath
		if path == "" {
			continue
		}

		if bucket, ok := dbm.BucketName(path); ok && bucket == linkage.BucketName {
			if err := r.links.Migrate(ctx, sheet, q.QueryID); err != nil {
				return "", err
			}

			r.logger.Info("migrated bucket name to query ID",
				zap.Int64("sheet", sheet),
				zap.String("bucket", linkage.BucketName),
				zap.String("query", q.QueryID))

			return q.QueryID, nil
		}
	}

	r.logger.Error("no query matches bucket name", zap.Int64("sheet", sheet), zap.String("bucket", linkage.BucketName))

	return "", &apperrors.IdentityNotFoundError{SheetID: sheet, BucketName: linkage.BucketName}
}

func (r *Resolver) expired(ctx context.Context, sheet int64, cause error) error {
	r.logger.Error("fetch all reports failed", zap.Int64("sheet", sheet), zap.Error(cause))

	if apperrors.IsAuthExpired(cause) || apperrors.IsEmptyResponse(cause) || apperrors.IsMalformedResponse(cause) {
		return cause
	}

	err := &apperrors.AuthExpiredError{
		Operation:        "fetching all reports",
		AuthorizationURL: r.oauth.AuthorizationURL(),
		Cause:            cause,
	}

	if reset := r.oauth.Reset(ctx); reset != nil {
		r.logger.Warn("error resetting OAuth token", zap.Error(reset))
	}

	return err
}

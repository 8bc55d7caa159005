// Package offline implements the unattended sync run by the scheduled triggers.
package offline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/apperrors"
	"github.com/uhppoted/dbm-sheets/auth"
	"github.com/uhppoted/dbm-sheets/linkage"
	"github.com/uhppoted/dbm-sheets/notify"
	"github.com/uhppoted/dbm-sheets/props"
	"github.com/uhppoted/dbm-sheets/report"
)

// LastAuthEmailKey is the document property holding the date the last authorization
// request was sent.
const LastAuthEmailKey = "lastAuthEmailDate"

const dateStamp = "2006-01-02"

type Fetcher interface {
	FetchAndApply(ctx context.Context, sheetID int64) error
}

type Orchestrator struct {
	oauth    auth.OAuth
	document report.Document
	links    *linkage.Links
	fetcher  Fetcher
	notifier notify.Notifier
	store    props.Store
	now      func() time.Time
	logger   *zap.Logger
}

func NewOrchestrator(oauth auth.OAuth, document report.Document, links *linkage.Links, fetcher Fetcher, notifier notify.Notifier, store props.Store, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		oauth:    oauth,
		document: document,
		links:    links,
		fetcher:  fetcher,
		notifier: notifier,
		store:    store,
		now:      time.Now,
		logger:   logger.Named("offline"),
	}
}

// Run syncs every linked sheet in the document. An expired credential aborts the run and
// is returned; any other sheet failure is emailed to the document owner and the run
// continues with the next sheet.
func (o *Orchestrator) Run(ctx context.Context) error {
	title, _ := o.document.Title(ctx)
	url, _ := o.document.URL(ctx)

	o.logger.Info("entered offline sync", zap.String("spreadsheet", title), zap.String("url", url))

	if !o.oauth.HasAccess(ctx) {
		return o.requestAuthorization(ctx)
	}

	sheets, err := o.document.Sheets(ctx)
	if err != nil {
		o.logger.Error("error retrieving sheets", zap.String("url", url), zap.Error(err))
		return err
	}

	o.logger.Info("started offline sync", zap.String("spreadsheet", title), zap.Int("sheets", len(sheets)))

	for _, sheet := range sheets {
		if linked, err := o.links.IsLinked(ctx, sheet.ID); err != nil {
			return err
		} else if !linked {
			continue
		}

		o.logger.Info("syncing sheet", zap.String("spreadsheet", title), zap.String("sheet", sheet.Title))

		if err := o.fetcher.FetchAndApply(ctx, sheet.ID); err != nil {
			if apperrors.IsAuthExpired(err) {
				o.logger.Error("offline sync aborted", zap.String("sheet", sheet.Title), zap.Error(err))
				o.credentialsExpired(ctx)
				return err
			}

			o.logger.Error("offline sync failed", zap.String("url", notify.SheetURL(url, sheet.ID)), zap.Error(err))
			o.syncFailed(ctx, url, sheet.ID, err)
			continue
		}

		o.logger.Info("finished syncing sheet", zap.String("spreadsheet", title), zap.String("sheet", sheet.Title))
	}

	return nil
}

// requestAuthorization emails the owner the authorization link at most once per day. The
// date is recorded even if the email could not be sent.
func (o *Orchestrator) requestAuthorization(ctx context.Context) error {
	today := o.now().Format(dateStamp)

	last, _, err := o.store.Get(ctx, LastAuthEmailKey)
	if err != nil {
		return err
	}

	if last == today {
		o.logger.Info("not authorised - authorization request already sent today")
		return nil
	}

	if owner, err := o.document.Owner(ctx); err != nil {
		o.logger.Warn("error retrieving document owner", zap.Error(err))
	} else if msg, err := notify.AuthorizationRequired(owner, o.oauth.AuthorizationURL()); err != nil {
		o.logger.Warn("error creating authorization request", zap.Error(err))
	} else if err := o.notifier.Send(ctx, msg); err != nil {
		o.logger.Warn("error sending authorization request", zap.Error(err))
	}

	return o.store.Set(ctx, LastAuthEmailKey, today)
}

func (o *Orchestrator) credentialsExpired(ctx context.Context) {
	owner, err := o.document.Owner(ctx)
	if err != nil {
		o.logger.Warn("error retrieving document owner", zap.Error(err))
		return
	}

	if msg, err := notify.CredentialsExpired(owner, o.oauth.AuthorizationURL()); err != nil {
		o.logger.Warn("error creating credentials expired email", zap.Error(err))
	} else if err := o.notifier.Send(ctx, msg); err != nil {
		o.logger.Warn("error sending credentials expired email", zap.Error(err))
	}
}

func (o *Orchestrator) syncFailed(ctx context.Context, url string, sheetID int64, cause error) {
	owner, err := o.document.Owner(ctx)
	if err != nil {
		o.logger.Warn("error retrieving document owner", zap.Error(err))
		return
	}

	if msg, err := notify.SyncFailed(owner, url, sheetID, cause); err != nil {
		o.logger.Warn("error creating sync failed email", zap.Error(err))
	} else if err := o.notifier.Send(ctx, msg); err != nil {
		o.logger.Warn("error sending sync failed email", zap.Error(err))
	}
}

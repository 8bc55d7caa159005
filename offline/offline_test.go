package offline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/apperrors"
	"github.com/uhppoted/dbm-sheets/linkage"
	"github.com/uhppoted/dbm-sheets/notify"
	"github.com/uhppoted/dbm-sheets/props"
	"github.com/uhppoted/dbm-sheets/report"
)

type oauth struct {
	authorised bool
}

func (o oauth) HasAccess(ctx context.Context) bool              { return o.authorised }
func (o oauth) AccessToken(ctx context.Context) (string, error) { return "qwerty", nil }
func (o oauth) AuthorizationURL() string                        { return "https://accounts.example.com/authorise" }
func (o oauth) Reset(ctx context.Context) error                 { return nil }

type fetcher struct {
	errors  map[int64]error
	fetched []int64
}

func (f *fetcher) FetchAndApply(ctx context.Context, sheetID int64) error {
	f.fetched = append(f.fetched, sheetID)

	return f.errors[sheetID]
}

type outbox struct {
	sent []notify.Message
}

func (o *outbox) Send(ctx context.Context, message notify.Message) error {
	o.sent = append(o.sent, message)

	return nil
}

type fixture struct {
	orchestrator *Orchestrator
	fetcher      *fetcher
	outbox       *outbox
	store        props.Store
}

func setup(t *testing.T, authorised bool, errs map[int64]error) fixture {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	store := props.NewMemory().Scope(props.DocumentScope("abc"))
	links := linkage.NewLinks(store, logger)

	workbook := report.NewMemoryWorkbook()
	workbook.Add(1, 10, 10)
	workbook.Add(2, 10, 10)
	workbook.Add(3, 10, 10)
	workbook.Add(4, 10, 10)

	require.NoError(t, links.Link(ctx, 1, "101", "report 1", "someone@example.com"))
	require.NoError(t, links.Link(ctx, 2, "102", "report 2", "someone@example.com"))
	require.NoError(t, store.Set(ctx, "3_BUCKET_NAME", "dfa_qwerty_report"))

	f := &fetcher{errors: errs}
	o := &outbox{}

	orchestrator := NewOrchestrator(oauth{authorised}, workbook, links, f, o, store, logger)
	orchestrator.now = func() time.Time { return time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC) }

	return fixture{orchestrator, f, o, store}
}

func TestRunSyncsLinkedSheets(t *testing.T) {
	f := setup(t, true, nil)

	require.NoError(t, f.orchestrator.Run(context.Background()))

	assert.Equal(t, []int64{1, 2, 3}, f.fetcher.fetched)
	assert.Empty(t, f.outbox.sent)
}

func TestRunAbortsOnExpiredCredentials(t *testing.T) {
	f := setup(t, true, map[int64]error{
		2: &apperrors.AuthExpiredError{Operation: "fetching query"},
	})

	err := f.orchestrator.Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsAuthExpired(err))
	assert.Equal(t, []int64{1, 2}, f.fetcher.fetched)

	require.Len(t, f.outbox.sent, 1)
	assert.Equal(t, "DBM Report - Google Sheets Addon - DBM API Credentials Expired", f.outbox.sent[0].Subject)
	assert.Equal(t, "owner@example.com", f.outbox.sent[0].To)
	assert.Contains(t, f.outbox.sent[0].HTML, "https://accounts.example.com/authorise")
}

func TestRunContinuesAfterSheetFailure(t *testing.T) {
	f := setup(t, true, map[int64]error{
		2: errors.New("404 Not Found"),
	})

	require.NoError(t, f.orchestrator.Run(context.Background()))

	assert.Equal(t, []int64{1, 2, 3}, f.fetcher.fetched)
	require.Len(t, f.outbox.sent, 1)

	msg := f.outbox.sent[0]
	if msg.Subject != "DBM Report - Google Sheets Addon - Offline Sync Failed" {
		t.Errorf("Incorrect subject\n   expected: %v\n   got:      %v\n", "DBM Report - Google Sheets Addon - Offline Sync Failed", msg.Subject)
	}

	expected := "Sheet URL: https://docs.google.com/spreadsheets/d/memory/edit#gid=2<br><br>404 Not Found"
	if msg.HTML != expected {
		t.Errorf("Incorrect email body\n   expected: %v\n   got:      %v\n", expected, msg.HTML)
	}
}

func TestRunRequestsAuthorizationOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := setup(t, false, nil)

	require.NoError(t, f.orchestrator.Run(ctx))
	require.NoError(t, f.orchestrator.Run(ctx))

	assert.Empty(t, f.fetcher.fetched)
	require.Len(t, f.outbox.sent, 1)
	assert.Equal(t, "DBM Report - Google Sheets Addon - Authorization Required", f.outbox.sent[0].Subject)

	date, ok, err := f.store.Get(ctx, LastAuthEmailKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2026-10-19", date)

	f.orchestrator.now = func() time.Time { return time.Date(2026, time.October, 20, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, f.orchestrator.Run(ctx))
	assert.Len(t, f.outbox.sent, 2)
}

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSyncFailed(t *testing.T) {
	msg, err := SyncFailed("owner@example.com", "https://docs.google.com/spreadsheets/d/abc/edit", 17, errors.New("report <missing>"))
	require.NoError(t, err)

	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, "DBM Report - Google Sheets Addon - Offline Sync Failed", msg.Subject)

	expected := "Sheet URL: https://docs.google.com/spreadsheets/d/abc/edit#gid=17<br><br>report &lt;missing&gt;"
	if msg.HTML != expected {
		t.Errorf("Incorrect email body\n   expected: %v\n   got:      %v\n", expected, msg.HTML)
	}
}

func TestCredentialsExpired(t *testing.T) {
	msg, err := CredentialsExpired("owner@example.com", "https://accounts.example.com/authorise?a=1")
	require.NoError(t, err)

	assert.Equal(t, "DBM Report - Google Sheets Addon - DBM API Credentials Expired", msg.Subject)
	assert.True(t, strings.HasPrefix(msg.HTML, "The security token for running offline syncs for DBM report sync has expired."))
	assert.Contains(t, msg.HTML, `href="https://accounts.example.com/authorise?a=1"`)
}

func TestAuthorizationRequired(t *testing.T) {
	msg, err := AuthorizationRequired("owner@example.com", "https://accounts.example.com/authorise")
	require.NoError(t, err)

	assert.Equal(t, "DBM Report - Google Sheets Addon - Authorization Required", msg.Subject)
	assert.Contains(t, msg.HTML, Title)
	assert.Contains(t, msg.HTML, `href="https://accounts.example.com/authorise"`)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	notifier := NewLog(zap.New(core))

	require.NoError(t, notifier.Send(context.Background(), Message{To: "owner@example.com", Subject: "test"}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "owner@example.com", entries[0].ContextMap()["to"])
}

func TestMailerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mailer := NewMailer("localhost", 25, "", "", "dbm@example.com", zap.NewNop())

	assert.ErrorIs(t, mailer.Send(ctx, Message{To: "owner@example.com"}), context.Canceled)
}

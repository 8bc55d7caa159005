package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("notify").Parse(`
{{define "authorization-required"}}<p>{{.Title}} needs to be authorised again before it can sync the DBM reports linked to this spreadsheet.</p>
<p>To authorise it please click <a href="{{.URL}}" target="_blank">here</a>.</p>{{end}}

{{define "credentials-expired"}}The security token for running offline syncs for DBM report sync has expired. <br>To renew it please click <a href="{{.URL}}" target="_blank">here</a>{{end}}

{{define "sync-failed"}}Sheet URL: {{.URL}}<br><br>{{.Error}}{{end}}
`))

// AuthorizationRequired is the email sent (at most once a day) when an offline sync finds
// the OAuth credentials are no longer valid.
func AuthorizationRequired(to, authorizationURL string) (Message, error) {
	return build(to, Title+" - Authorization Required", "authorization-required", map[string]any{
		"Title": Title,
		"URL":   authorizationURL,
	})
}

func CredentialsExpired(to, authorizationURL string) (Message, error) {
	return build(to, Title+" - DBM API Credentials Expired", "credentials-expired", map[string]any{
		"URL": authorizationURL,
	})
}

// SyncFailed reports a failed sheet, with a deep link to the sheet.
func SyncFailed(to, spreadsheetURL string, sheetID int64, cause error) (Message, error) {
	return build(to, Title+" - Offline Sync Failed", "sync-failed", map[string]any{
		"URL":   SheetURL(spreadsheetURL, sheetID),
		"Error": fmt.Sprintf("%v", cause),
	})
}

// SheetURL returns the link to a single worksheet in a spreadsheet.
func SheetURL(spreadsheetURL string, sheetID int64) string {
	return fmt.Sprintf("%v#gid=%v", spreadsheetURL, sheetID)
}

func build(to, subject, name string, data any) (Message, error) {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return Message{}, fmt.Errorf("error formatting '%v' email (%w)", name, err)
	}

	return Message{
		To:      to,
		Subject: subject,
		HTML:    b.String(),
	}, nil
}

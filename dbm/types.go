package dbm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Query is a recurring report definition as returned by the DBM API.
type Query struct {
	QueryID     string   `json:"-"`
	Metadata    Metadata `json:"metadata"`
	HasMetadata bool     `json:"-"`
}

type Metadata struct {
	Title               string    `json:"title"`
	LatestReportPath    string    `json:"googleCloudStoragePathForLatestReport"`
	LatestReportRunTime time.Time `json:"-"`
}

type queries struct {
	Queries *[]Query `json:"queries"`
}

// UnmarshalJSON accepts queryId as either a JSON string or a number (the API encodes int64
// values as strings).
func (q *Query) UnmarshalJSON(b []byte) error {
	v := struct {
		QueryID  json.RawMessage `json:"queryId"`
		Metadata *Metadata       `json:"metadata"`
	}{}

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	q.QueryID = flexible(v.QueryID)
	if v.Metadata != nil {
		q.Metadata = *v.Metadata
		q.HasMetadata = true
	}

	return nil
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	v := struct {
		Title               string          `json:"title"`
		LatestReportPath    string          `json:"googleCloudStoragePathForLatestReport"`
		LatestReportRunTime json.RawMessage `json:"latestReportRunTimeMs"`
	}{}

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	m.Title = v.Title
	m.LatestReportPath = v.LatestReportPath
	m.LatestReportRunTime = time.Time{}

	if s := flexible(v.LatestReportRunTime); s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid latestReportRunTimeMs '%v'", s)
		}

		m.LatestReportRunTime = time.UnixMilli(ms)
	}

	return nil
}

func flexible(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return string(raw)
}

// Package linkage keeps the per-sheet link between a worksheet and the DBM query it is
// synchronised from.
package linkage

import (
	"fmt"
	"strconv"
	"strings"
)

// Field enumerates the per-sheet properties. The storage names are only used at the
// property store boundary.
type Field int

const (
	QueryID Field = iota
	BucketName
	ReportName
	SetupUser
	LastSync
	ReportUpdated

	// written by the other DDM add-ons
	WebQueryURL
	ProfileID
	ReportID
)

var names = map[Field]string{
	QueryID:       "QUERY_ID",
	BucketName:    "BUCKET_NAME",
	ReportName:    "DBM_REPORT_NAME",
	SetupUser:     "DBM_REPORT_SETUP_USER",
	LastSync:      "LAST_SYNC",
	ReportUpdated: "DBM_REPORT_UPDATED_DATE",
	WebQueryURL:   "WEBQUERY_URL",
	ProfileID:     "PROFILE_ID",
	ReportID:      "REPORT_ID",
}

var own = []Field{QueryID, BucketName, ReportName, SetupUser, LastSync, ReportUpdated}
var foreign = []Field{WebQueryURL, ProfileID, ReportID}

func (f Field) String() string {
	if s, ok := names[f]; ok {
		return s
	}

	return fmt.Sprintf("FIELD_%d", int(f))
}

// Key identifies a single sheet property.
type Key struct {
	SheetID int64
	Field   Field
}

func (k Key) String() string {
	return fmt.Sprintf("%v_%v", k.SheetID, k.Field)
}

// ParseKey is the inverse of Key.String. Keys that are not per-sheet properties return false.
func ParseKey(s string) (Key, bool) {
	for f, name := range names {
		if prefix, ok := strings.CutSuffix(s, "_"+name); ok {
			if id, err := strconv.ParseInt(prefix, 10, 64); err == nil {
				return Key{SheetID: id, Field: f}, true
			}
		}
	}

	return Key{}, false
}

func keys(sheet int64, fields ...Field) []string {
	list := make([]string, 0, len(fields))
	for _, f := range fields {
		list = append(list, Key{sheet, f}.String())
	}

	return list
}

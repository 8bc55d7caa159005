package dbm

import (
	"regexp"
	"strings"
)

// Version identifies the generation of the report storage a latest-report path refers to.
type Version int

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	switch v {
	case V2:
		return "v2"
	default:
		return "v1"
	}
}

// DefaultV2Bucket is the storage bucket that holds v2 (public-by-path) reports.
const DefaultV2Bucket = "ddm-xbid"

// StoragePath is a classified latest-report path.
type StoragePath struct {
	URL     string
	Version Version
}

// Authorised returns true if the content fetch needs the bearer token.
func (p StoragePath) Authorised() bool {
	return p.Version != V2
}

// ClassifyStoragePath decides the report generation from the path alone. A path that
// contains the v2 bucket name anywhere after its first character is a v2 report.
func ClassifyStoragePath(path string, v2bucket string) StoragePath {
	if v2bucket == "" {
		v2bucket = DefaultV2Bucket
	}

	if strings.Index(path, v2bucket) > 0 {
		return StoragePath{URL: path, Version: V2}
	}

	return StoragePath{URL: path, Version: V1}
}

var bucketRegex = regexp.MustCompile(`[0-1]*[^/]*_report`)

// BucketName extracts the legacy bucket name from a latest-report path, returning false if
// the path does not contain one.
func BucketName(path string) (string, bool) {
	if match := bucketRegex.FindString(path); match != "" {
		return match, true
	}

	return "", false
}

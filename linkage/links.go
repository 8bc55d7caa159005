package linkage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/uhppoted/dbm-sheets/props"
)

// Linkage is the stored state of a single sheet.
type Linkage struct {
	SheetID       int64
	QueryID       string
	BucketName    string
	ReportName    string
	SetupUser     string
	LastSync      *time.Time
	ReportUpdated *time.Time
}

// Linked returns true if the sheet has either identifier and is therefore eligible for sync.
func (l Linkage) Linked() bool {
	return l.QueryID != "" || l.BucketName != ""
}

// Links is the repository for sheet linkage records held in a document property store.
type Links struct {
	store  props.Store
	logger *zap.Logger
}

func NewLinks(store props.Store, logger *zap.Logger) *Links {
	return &Links{
		store:  store,
		logger: logger.Named("links"),
	}
}

func (l *Links) Get(ctx context.Context, sheet int64) (*Linkage, error) {
	linkage := Linkage{
		SheetID: sheet,
	}

	text := map[Field]*string{
		QueryID:    &linkage.QueryID,
		BucketName: &linkage.BucketName,
		ReportName: &linkage.ReportName,
		SetupUser:  &linkage.SetupUser,
	}

	for f, p := range text {
		if v, _, err := l.store.Get(ctx, Key{sheet, f}.String()); err != nil {
			return nil, err
		} else {
			*p = v
		}
	}

	times := map[Field]**time.Time{
		LastSync:      &linkage.LastSync,
		ReportUpdated: &linkage.ReportUpdated,
	}

	for f, p := range times {
		v, ok, err := l.store.Get(ctx, Key{sheet, f}.String())
		if err != nil {
			return nil, err
		} else if ok && v != "" {
			if t, err := time.Parse(time.RFC3339, v); err != nil {
				l.logger.Warn("invalid timestamp", zap.Int64("sheet", sheet), zap.Stringer("field", f), zap.String("value", v))
			} else {
				*p = &t
			}
		}
	}

	return &linkage, nil
}

func (l *Links) IsLinked(ctx context.Context, sheet int64) (bool, error) {
	for _, f := range []Field{QueryID, BucketName} {
		if v, ok, err := l.store.Get(ctx, Key{sheet, f}.String()); err != nil {
			return false, err
		} else if ok && v != "" {
			return true, nil
		}
	}

	return false, nil
}

// Link associates the sheet with a query, replacing any previous link and removing the
// properties other add-ons keep for the sheet.
func (l *Links) Link(ctx context.Context, sheet int64, queryID string, reportName string, user string) error {
	if queryID == "" {
		return fmt.Errorf("invalid query ID")
	}

	batch := props.Batch{
		Set: map[string]string{
			Key{sheet, QueryID}.String():    queryID,
			Key{sheet, ReportName}.String(): reportName,
			Key{sheet, SetupUser}.String():  user,
		},
		Delete: keys(sheet, append([]Field{BucketName}, foreign...)...),
	}

	if err := l.store.Update(ctx, batch); err != nil {
		return fmt.Errorf("error linking sheet %v to query %v (%w)", sheet, queryID, err)
	}

	l.logger.Info("linked", zap.Int64("sheet", sheet), zap.String("query", queryID), zap.String("report", reportName))

	return nil
}

// Unlink deletes every linkage property for the sheet.
func (l *Links) Unlink(ctx context.Context, sheet int64) error {
	if err := l.store.Update(ctx, props.Batch{Delete: keys(sheet, own...)}); err != nil {
		return fmt.Errorf("error unlinking sheet %v (%w)", sheet, err)
	}

	l.logger.Info("unlinked", zap.Int64("sheet", sheet))

	return nil
}

// MarkSynced records a successful sync. A zero reportUpdated clears the stored report
// timestamp.
func (l *Links) MarkSynced(ctx context.Context, sheet int64, syncedAt time.Time, reportUpdated time.Time) error {
	batch := props.Batch{
		Set: map[string]string{
			Key{sheet, LastSync}.String(): syncedAt.Format(time.RFC3339),
		},
	}

	if reportUpdated.IsZero() {
		batch.Delete = keys(sheet, ReportUpdated)
	} else {
		batch.Set[Key{sheet, ReportUpdated}.String()] = reportUpdated.Format(time.RFC3339)
	}

	return l.store.Update(ctx, batch)
}

// Migrate replaces the legacy bucket name with the resolved query ID.
func (l *Links) Migrate(ctx context.Context, sheet int64, queryID string) error {
	batch := props.Batch{
		Set:    map[string]string{Key{sheet, QueryID}.String(): queryID},
		Delete: keys(sheet, BucketName),
	}

	return l.store.Update(ctx, batch)
}

func (l *Links) dropBucketName(ctx context.Context, sheet int64) error {
	return l.store.Delete(ctx, Key{sheet, BucketName}.String())
}

// Sheets returns the IDs of all sheets with any stored linkage property, in ascending order.
func (l *Links) Sheets(ctx context.Context) ([]int64, error) {
	list, err := l.store.Keys(ctx)
	if err != nil {
		return nil, err
	}

	set := map[int64]bool{}
	for _, k := range list {
		if key, ok := ParseKey(k); ok {
			set[key.SheetID] = true
		}
	}

	sheets := make([]int64, 0, len(set))
	for id := range set {
		sheets = append(sheets, id)
	}

	sort.Slice(sheets, func(i, j int) bool { return sheets[i] < sheets[j] })

	return sheets, nil
}

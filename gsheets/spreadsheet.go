// Package gsheets implements the report workbook on top of the Google Sheets and Google Drive
// APIs.
package gsheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/dbm-sheets/report"
)

var urlRegex = regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`)

// ParseURL extracts the spreadsheet ID from a Google Sheets URL. A bare ID is returned as is.
func ParseURL(url string) (string, error) {
	url = strings.TrimSpace(url)

	if match := urlRegex.FindStringSubmatch(url); len(match) > 1 && match[1] != "" {
		return match[1], nil
	}

	if url != "" && !strings.ContainsAny(url, "/:?#") {
		return url, nil
	}

	return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
}

// Spreadsheet is a single Google Sheets document.
type Spreadsheet struct {
	ID string

	sheets *sheets.Service
	drive  *drive.Service
	logger *zap.Logger
}

var _ report.Document = (*Spreadsheet)(nil)

// NewSpreadsheet creates the Sheets and Drive clients for the spreadsheet. The client
// options carry the credentials e.g. option.WithTokenSource.
func NewSpreadsheet(ctx context.Context, id string, logger *zap.Logger, opts ...option.ClientOption) (*Spreadsheet, error) {
	google, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	gdrive, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Drive client (%v)", err)
	}

	return &Spreadsheet{
		ID:     id,
		sheets: google,
		drive:  gdrive,
		logger: logger.Named("gsheets").With(zap.String("spreadsheet", id)),
	}, nil
}

// Sheets lists the worksheets in display order.
func (s *Spreadsheet) Sheets(ctx context.Context) ([]report.Sheet, error) {
	spreadsheet, err := s.get(ctx)
	if err != nil {
		return nil, err
	}

	list := []report.Sheet{}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			list = append(list, report.Sheet{
				ID:    sheet.Properties.SheetId,
				Title: sheet.Properties.Title,
			})
		}
	}

	return list, nil
}

// Sheet returns the grid for the worksheet with the sheet ID (the 'gid' in the sheet URL).
func (s *Spreadsheet) Sheet(ctx context.Context, sheetID int64) (report.Grid, error) {
	spreadsheet, err := s.get(ctx)
	if err != nil {
		return nil, err
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.SheetId == sheetID {
			return &grid{
				spreadsheet: s,
				properties:  sheet.Properties,
			}, nil
		}
	}

	return nil, fmt.Errorf("unable to identify worksheet with ID %v", sheetID)
}

// Title returns the spreadsheet name.
func (s *Spreadsheet) Title(ctx context.Context) (string, error) {
	spreadsheet, err := s.get(ctx)
	if err != nil {
		return "", err
	}

	if spreadsheet.Properties == nil {
		return "", nil
	}

	return spreadsheet.Properties.Title, nil
}

// Owner returns the email address of the spreadsheet owner.
func (s *Spreadsheet) Owner(ctx context.Context) (string, error) {
	file, err := s.file(ctx)
	if err != nil {
		return "", err
	}

	for _, owner := range file.Owners {
		if owner != nil && owner.EmailAddress != "" {
			return owner.EmailAddress, nil
		}
	}

	return "", fmt.Errorf("spreadsheet %v has no owner with an email address", s.ID)
}

// URL returns the spreadsheet web link.
func (s *Spreadsheet) URL(ctx context.Context) (string, error) {
	file, err := s.file(ctx)
	if err != nil {
		return "", err
	}

	if file.WebViewLink != "" {
		return file.WebViewLink, nil
	}

	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%v/edit", s.ID), nil
}

func (s *Spreadsheet) get(ctx context.Context) (*sheets.Spreadsheet, error) {
	spreadsheet, err := s.sheets.Spreadsheets.Get(s.ID).
		Fields("spreadsheetId", "properties.title", "sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet (%v)", err)
	}

	return spreadsheet, nil
}

func (s *Spreadsheet) file(ctx context.Context) (*drive.File, error) {
	file, err := s.drive.Files.Get(s.ID).
		Fields("name", "owners(emailAddress)", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spreadsheet file metadata (%v)", err)
	}

	return file, nil
}

func (s *Spreadsheet) batchUpdate(ctx context.Context, requests ...*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	if _, err := s.sheets.Spreadsheets.BatchUpdate(s.ID, &rq).Context(ctx).Do(); err != nil {
		return err
	}

	return nil
}

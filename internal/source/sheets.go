package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets reads every value of one worksheet of a Google spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// NewSheets builds a Sheets source. credentialsFile is a service-account JSON
// key; extra options are appended (tests pass an endpoint and no auth).
func NewSheets(ctx context.Context, credentialsFile, spreadsheetURL, worksheet string, opts ...option.ClientOption) (*Sheets, error) {
	id, err := SpreadsheetID(spreadsheetURL)
	if err != nil {
		return nil, &Error{Source: "google sheets", Err: err}
	}
	if credentialsFile == "" && len(opts) == 0 {
		return nil, &Error{Source: "google sheets", Err: errors.New("credentials_file is not configured")}
	}
	var all []option.ClientOption
	if credentialsFile != "" {
		all = append(all, option.WithCredentialsFile(credentialsFile), option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	}
	all = append(all, opts...)
	svc, err := sheets.NewService(ctx, all...)
	if err != nil {
		return nil, &Error{Source: "google sheets", Err: fmt.Errorf("authorize: %w", err)}
	}
	return &Sheets{svc: svc, spreadsheetID: id, worksheet: worksheet}, nil
}

// Fetch returns the formatted values of the worksheet.
func (s *Sheets) Fetch(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sheetRange(s.worksheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &Error{Source: "google sheets", Err: err}
	}
	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		grid[i] = cells
	}
	return grid, nil
}

// sheetRange quotes a worksheet title for A1 notation.
func sheetRange(worksheet string) string {
	if worksheet == "" {
		return "A:ZZ"
	}
	return "'" + strings.ReplaceAll(worksheet, "'", "''") + "'"
}

// SpreadsheetID extracts the document id from a spreadsheet URL. A bare id is
// returned unchanged.
func SpreadsheetID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("spreadsheet_url is not configured")
	}
	if !strings.Contains(raw, "/") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse spreadsheet url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "d" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", fmt.Errorf("no spreadsheet id in %q", raw)
}

// Package google exports the transaction ledger to a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/codec/csv"
	"fintrack/internal/core"
	"fintrack/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// maxCellLength is the per-cell character limit enforced by Sheets.
const maxCellLength = 50000

const defaultSheetName = "Transactions"

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	svc, err := newSheetsService(ctx, cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// newSheetsService falls back to GOOGLE_APPLICATION_CREDENTIALS when neither
// inline JSON nor a file path is configured.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	credentialsJSON, err := readCredentials(serviceAccountJSON, serviceAccountFile)
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).WithComponent(log.ComponentSheets).InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func readCredentials(inline, path string) ([]byte, error) {
	switch {
	case inline != "":
		return []byte(inline), nil
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportTransactions replaces the content of the configured tab with txs,
// using the CSV column layout. It returns the updated range.
func (e *Exporter) ExportTransactions(ctx context.Context, txs []core.Transaction) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	logger := log.FromContext(ctx).WithComponent(log.ComponentSheets)
	values, dropped := toValues(csv.Records(txs))
	if dropped > 0 {
		logger.WarnContext(ctx, "Dropped cells exceeding the Sheets size limit",
			"sheet", e.sheetName,
			"cells", dropped)
	}

	_, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, sheetRange(e.sheetName, "A:H"), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", e.sheetName, err)
	}
	if len(values) == 0 {
		return "", nil
	}

	rng := sheetRange(e.sheetName, "A1")
	resp, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update sheet %s: %w", e.sheetName, err)
	}

	logger.InfoContext(ctx, "Exported transactions to Google Sheets",
		log.FieldOperation, log.OpExport,
		"sheet", e.sheetName,
		"rows", len(values)-1,
		"range", resp.UpdatedRange)
	return resp.UpdatedRange, nil
}

// toValues converts CSV records to the Sheets value matrix, blanking cells
// that are too long to store.
func toValues(records [][]string) ([][]any, int) {
	dropped := 0
	out := make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(rec))
		for i, v := range rec {
			if len(v) > maxCellLength {
				v = ""
				dropped++
			}
			row[i] = v
		}
		out = append(out, row)
	}
	return out, dropped
}

// sheetRange builds an A1 range, quoting sheet names that need it.
func sheetRange(sheet, cells string) string {
	if strings.ContainsAny(sheet, " '!") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cells
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fintrack/internal/amqp"
	"fintrack/internal/codec"
	"fintrack/internal/codec/csv"
	jsoncodec "fintrack/internal/codec/json"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// DefaultMaxImportBytes caps the size of an uploaded file.
const DefaultMaxImportBytes int64 = 10 << 20

const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatSheets = "sheets"
)

var (
	// ErrNothingToExport is returned by ExportCSV when there are no
	// transactions, in which case no file is produced.
	ErrNothingToExport     = errors.New("no transactions to export")
	ErrSheetsNotConfigured = errors.New("google sheets export is not configured")
	ErrUnknownFormat       = errors.New("unknown format")
)

type (
	// TransferStore is the part of the store imports and exports need.
	TransferStore interface {
		store.TransactionAppender
		store.CategoryAppender
		store.TransactionLister
		store.CategoryLister
	}

	// ImportPublisher announces completed imports.
	ImportPublisher interface {
		PublishImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error
	}

	// SheetsExporter pushes the ledger to a spreadsheet.
	SheetsExporter interface {
		ExportTransactions(ctx context.Context, txs []core.Transaction) (string, error)
	}

	// transactionBatchAppender is implemented by stores that can accept many
	// transactions with a single flush.
	transactionBatchAppender interface {
		AppendTransactions(ctx context.Context, txs []core.Transaction) error
	}
)

// TransferService imports and exports the ledger and applies the merge
// policy to imported records.
type TransferService struct {
	store      TransferStore
	newID      IDGenerator
	strictJSON bool
	maxBytes   int64
	publisher  ImportPublisher
	sheets     SheetsExporter
}

type TransferOption func(*TransferService)

func WithIDGenerator(g IDGenerator) TransferOption {
	return func(s *TransferService) { s.newID = g }
}

// WithStrictJSON validates JSON transactions like CSV rows.
func WithStrictJSON(strict bool) TransferOption {
	return func(s *TransferService) { s.strictJSON = strict }
}

// WithMaxImportBytes sets the upload size limit. Non-positive disables it.
func WithMaxImportBytes(n int64) TransferOption {
	return func(s *TransferService) { s.maxBytes = n }
}

func WithPublisher(p ImportPublisher) TransferOption {
	return func(s *TransferService) { s.publisher = p }
}

func WithSheetsExporter(e SheetsExporter) TransferOption {
	return func(s *TransferService) { s.sheets = e }
}

func NewTransferService(st TransferStore, opts ...TransferOption) *TransferService {
	s := &TransferService{
		store:    st,
		newID:    NewID,
		maxBytes: DefaultMaxImportBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import dispatches on format ("csv" or "json").
func (s *TransferService) Import(ctx context.Context, format string, r io.Reader) (ImportReport, error) {
	switch format {
	case FormatCSV:
		return s.ImportCSV(ctx, r)
	case FormatJSON:
		return s.ImportJSON(ctx, r)
	default:
		return ImportReport{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ImportCSV parses r as CSV and appends the accepted transactions. A
// *codec.FileError means nothing was imported.
func (s *TransferService) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	data, err := codec.ReadAll(r, s.maxBytes)
	if err != nil {
		return ImportReport{}, err
	}
	res, err := csv.Unmarshal(data)
	if err != nil {
		return ImportReport{}, err
	}
	return s.apply(ctx, FormatCSV, res)
}

// ImportJSON parses r as a backup document and merges both collections.
func (s *TransferService) ImportJSON(ctx context.Context, r io.Reader) (ImportReport, error) {
	data, err := codec.ReadAll(r, s.maxBytes)
	if err != nil {
		return ImportReport{}, err
	}
	res, err := jsoncodec.Unmarshal(data, jsoncodec.WithStrict(s.strictJSON))
	if err != nil {
		return ImportReport{}, err
	}
	return s.apply(ctx, FormatJSON, res)
}

// apply merges parsed drafts into the store. Categories go first so that
// transaction references can be checked against the merged set.
func (s *TransferService) apply(ctx context.Context, format string, res *codec.Result) (ImportReport, error) {
	report := ImportReport{Errors: res.Messages()}

	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return report, fmt.Errorf("list categories: %w", err)
	}

	for _, d := range res.Categories {
		if core.HasCategoryNamed(cats, d.Name) {
			report.CategoriesSkipped++
			continue
		}
		c := d.WithID(s.newID())
		if err := s.store.AppendCategory(ctx, c); err != nil {
			return report, fmt.Errorf("append category: %w", err)
		}
		cats = append(cats, c)
		report.CategoriesImported++
	}

	txs := make([]core.Transaction, 0, len(res.Transactions))
	for _, d := range res.Transactions {
		if d.CategoryID != nil {
			if _, ok := core.FindCategory(cats, d.CategoryID); !ok {
				d.CategoryID = nil
				report.UnresolvedCategoryRefs++
			}
		}
		txs = append(txs, d.WithID(s.newID()))
	}
	if err := s.appendTransactions(ctx, txs); err != nil {
		return report, err
	}
	report.TransactionsImported = len(txs)

	log.NewStructuredLogger(log.FromContext(ctx)).LogImport(ctx, log.NewFields().
		WithImport(format, report.TransactionsImported, report.CategoriesImported,
			report.CategoriesSkipped, report.UnresolvedCategoryRefs, len(report.Errors)))

	s.publish(ctx, format, report)
	return report, nil
}

func (s *TransferService) appendTransactions(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if b, ok := s.store.(transactionBatchAppender); ok {
		if err := b.AppendTransactions(ctx, txs); err != nil {
			return fmt.Errorf("append transactions: %w", err)
		}
		return nil
	}
	for _, tx := range txs {
		if err := s.store.AppendTransaction(ctx, tx); err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}
	}
	return nil
}

// publish is best effort: the import already succeeded locally.
func (s *TransferService) publish(ctx context.Context, format string, report ImportReport) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewImportCompletedMessage(s.newID(), format)
	msg.TransactionsImported = report.TransactionsImported
	msg.CategoriesImported = report.CategoriesImported
	msg.CategoriesSkipped = report.CategoriesSkipped
	msg.UnresolvedCategoryRefs = report.UnresolvedCategoryRefs
	msg.ErrorCount = len(report.Errors)

	if err := s.publisher.PublishImportCompleted(ctx, msg); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to publish import completed message",
			err, log.ComponentAMQP, log.OpImport, log.NewFields().WithRecordID(msg.ImportID))
	}
}

// ExportCSV writes all transactions as CSV. It returns ErrNothingToExport
// and writes nothing when the ledger is empty.
func (s *TransferService) ExportCSV(ctx context.Context, w io.Writer) error {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	data := csv.Marshal(txs)
	if data == nil {
		return ErrNothingToExport
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the full backup document.
func (s *TransferService) ExportJSON(ctx context.Context, w io.Writer) error {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	data, err := jsoncodec.Marshal(jsoncodec.Backup{Transactions: txs, Categories: cats})
	if err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportSheets pushes every transaction to the configured spreadsheet and
// returns the updated range.
func (s *TransferService) ExportSheets(ctx context.Context) (string, error) {
	if s.sheets == nil {
		return "", ErrSheetsNotConfigured
	}
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return "", fmt.Errorf("list transactions: %w", err)
	}
	return s.sheets.ExportTransactions(ctx, txs)
}

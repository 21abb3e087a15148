// Package ingest turns raw uploaded statement files into persisted
// statements and transactions, and bulk-imports receivables.
//
// Ingestion is row-tolerant: a row that cannot be parsed is skipped and
// reported as a diagnostic, never failing the whole file. Only a
// non-row-scoped failure (undecodable content, an unreadable stream)
// aborts the upload, in which case the partially created statement is
// rolled back.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/concilia-app/concilia-backend/internal/domain/extract"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

var (
	// ErrDecode is returned when no supported text encoding applies to
	// the uploaded bytes.
	ErrDecode = errors.New("could not decode statement content")

	// ErrUnsupportedFormat is returned for file types outside the
	// upload allowlist, or allowed types without a parser yet.
	ErrUnsupportedFormat = errors.New("unsupported statement format")

	// ErrValidation is returned for missing or malformed required
	// input, correctable by the caller.
	ErrValidation = errors.New("invalid input")
)

// allowedExtensions is the upload allowlist. Only CSV has a parser
// today; .txt and .ofx are accepted at the boundary and rejected with
// ErrUnsupportedFormat until parsers exist for them.
var allowedExtensions = map[string]bool{
	".csv": true,
	".txt": true,
	".ofx": true,
}

// headerAliases maps localized header spellings to semantic fields.
// Statements arrive from varied banking systems; matching is
// case-insensitive over this table.
var headerAliases = map[string]string{
	"data":        "date",
	"date":        "date",
	"valor":       "value",
	"value":       "value",
	"amount":      "value",
	"descrição":   "description",
	"descricao":   "description",
	"histórico":   "description",
	"historico":   "description",
	"description": "description",
	"documento":   "document",
	"document":    "document",
}

// RowError is a per-row ingestion diagnostic. Line numbers are
// 1-based over the source file, header included.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result summarizes one statement ingestion.
type Result struct {
	RunID     string             `json:"run_id"`
	Statement *storage.Statement `json:"statement"`
	Imported  int                `json:"imported"`
	Skipped   []RowError         `json:"skipped,omitempty"`
}

// Ingestor parses uploaded statement files into the store.
type Ingestor struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewIngestor creates a statement ingestor.
func NewIngestor(repo storage.Repository, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Ingestor{
		repo:   repo,
		logger: logger,
	}
}

// IngestStatement decodes, parses and persists one uploaded statement.
// The statement is created in processing status up front and finalized
// with its transaction count and period once all rows are handled.
func (ing *Ingestor) IngestStatement(raw []byte, filename string) (*Result, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: missing filename", ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if ext != ".csv" {
		return nil, fmt.Errorf("%w: no parser for %s yet", ErrUnsupportedFormat, ext)
	}

	content, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	statement := &storage.Statement{
		Filename: filename,
		Status:   storage.StatementProcessing,
	}
	if err := ing.repo.CreateStatement(statement); err != nil {
		return nil, fmt.Errorf("creating statement: %w", err)
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Statement: statement,
	}

	logger := ing.logger.With("run_id", result.RunID, "statement_id", statement.ID, "filename", filename)

	if err := ing.parseRows(content, statement, result, logger); err != nil {
		// Non-row-scoped failure: roll the partial statement back.
		if delErr := ing.repo.DeleteStatement(statement.ID); delErr != nil {
			logger.Error("failed to roll back statement", "error", delErr)
		}
		return nil, err
	}

	statement.Status = storage.StatementCompleted
	statement.TotalTransactions = result.Imported
	if err := ing.repo.FinalizeStatement(statement); err != nil {
		if delErr := ing.repo.DeleteStatement(statement.ID); delErr != nil {
			logger.Error("failed to roll back statement", "error", delErr)
		}
		return nil, fmt.Errorf("finalizing statement: %w", err)
	}

	logger.Info("statement ingested",
		"imported", result.Imported,
		"skipped", len(result.Skipped))

	return result, nil
}

// parseRows walks the CSV rows, persisting the parseable ones and
// collecting diagnostics for the rest.
func (ing *Ingestor) parseRows(content string, statement *storage.Statement, result *Result, logger *slog.Logger) error {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrUnsupportedFormat, err)
	}

	columns := mapColumns(header)
	if _, ok := columns["date"]; !ok {
		return fmt.Errorf("%w: no recognizable date column", ErrUnsupportedFormat)
	}

	var periodStart, periodEnd time.Time
	line := 1

	for {
		line++

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed CSV rows are row-scoped: skip and continue.
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}

		txn, rowErr := parseRow(row, columns, statement.ID)
		if rowErr != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: rowErr.Error()})
			continue
		}

		if err := ing.repo.CreateTransaction(txn); err != nil {
			logger.Warn("failed to persist row", "line", line, "error", err)
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: "could not persist row"})
			continue
		}

		if result.Imported == 0 || txn.Date.Before(periodStart) {
			periodStart = txn.Date
		}
		if result.Imported == 0 || txn.Date.After(periodEnd) {
			periodEnd = txn.Date
		}
		result.Imported++
	}

	if result.Imported > 0 {
		statement.PeriodStart = &periodStart
		statement.PeriodEnd = &periodEnd
	}

	return nil
}

// parseRow converts one CSV row into a transaction, applying the
// extraction heuristics to the description.
func parseRow(row []string, columns map[string]int, statementID int64) (*storage.Transaction, error) {
	date, err := parseRowDate(fieldAt(row, columns, "date"))
	if err != nil {
		return nil, err
	}

	amount, err := parseRowAmount(fieldAt(row, columns, "value"))
	if err != nil {
		return nil, err
	}

	// Only a strictly positive amount is money in; zero rows (fee
	// reversals, informational lines) are debits and never enter the
	// reconciliation pool.
	txnType := storage.TransactionDebit
	if amount > 0 {
		txnType = storage.TransactionCredit
	}

	description := fieldAt(row, columns, "description")

	return &storage.Transaction{
		StatementID: statementID,
		Date:        date,
		Amount:      math.Abs(amount),
		Type:        txnType,
		Description: description,
		Document:    fieldAt(row, columns, "document"),
		PayerName:   extract.PayerName(description),
		PayerTaxID:  extract.TaxID(description),
		Status:      storage.ReconciliationPending,
	}, nil
}

// parseRowDate accepts DD/MM/YYYY when a slash separator is present,
// otherwise YYYY-MM-DD.
func parseRowDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("missing date")
	}

	layout := "2006-01-02"
	if strings.Contains(s, "/") {
		layout = "02/01/2006"
	}

	date, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q", s)
	}

	return date, nil
}

// parseRowAmount strips a currency prefix and converts comma decimal
// separators before numeric conversion. The sign is preserved for the
// caller to derive the transaction type.
func parseRowAmount(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "R$", ""))
	s = strings.ReplaceAll(s, ",", ".")

	if s == "" {
		return 0, errors.New("missing amount")
	}

	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}

	return amount, nil
}

// mapColumns resolves localized header spellings to column indexes.
// The first header claiming a semantic field wins.
func mapColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, name := range header {
		field, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, claimed := columns[field]; !claimed {
			columns[field] = i
		}
	}
	return columns
}

func fieldAt(row []string, columns map[string]int, field string) string {
	i, ok := columns[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// decodeText decodes uploaded bytes as UTF-8 and falls back to Latin-1.
// Statements arrive from varied banking systems with inconsistent
// encodings, so the fallback is mandatory.
func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return string(decoded), nil
}

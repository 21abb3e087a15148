package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// receivableHeaderAliases maps localized receivable import headers to
// semantic fields, same convention as the statement alias table.
var receivableHeaderAliases = map[string]string{
	"cliente":         "client",
	"client":          "client",
	"descrição":       "description",
	"descricao":       "description",
	"description":     "description",
	"valor":           "value",
	"value":           "value",
	"amount":          "value",
	"vencimento":      "due_date",
	"data_vencimento": "due_date",
	"due_date":        "due_date",
	"pedido":          "order_number",
	"numero_pedido":   "order_number",
	"order_number":    "order_number",
	"cpf_cnpj":        "tax_id",
	"cpf/cnpj":        "tax_id",
	"documento":       "tax_id",
	"tax_id":          "tax_id",
}

// ImportResult summarizes one receivables bulk import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  []RowError `json:"skipped,omitempty"`
}

// ImportReceivables bulk-loads receivables from a CSV upload. Rows
// missing the client name or the expected amount are skipped and
// reported; everything else is best-effort.
func (ing *Ingestor) ImportReceivables(raw []byte) (*ImportResult, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}

	content, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrUnsupportedFormat, err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		field, ok := receivableHeaderAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if _, claimed := columns[field]; !claimed {
			columns[field] = i
		}
	}

	result := &ImportResult{}
	line := 1

	for {
		line++

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: err.Error()})
			continue
		}

		receivable, rowErr := parseReceivableRow(row, columns)
		if rowErr != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: rowErr.Error()})
			continue
		}

		if err := ing.repo.CreateReceivable(receivable); err != nil {
			ing.logger.Warn("failed to persist receivable", "line", line, "error", err)
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: "could not persist row"})
			continue
		}
		result.Imported++
	}

	ing.logger.Info("receivables imported",
		"imported", result.Imported,
		"skipped", len(result.Skipped))

	return result, nil
}

func parseReceivableRow(row []string, columns map[string]int) (*storage.Receivable, error) {
	client := fieldAt(row, columns, "client")
	if client == "" {
		return nil, fmt.Errorf("missing client name")
	}

	amount, err := parseRowAmount(fieldAt(row, columns, "value"))
	if err != nil {
		return nil, err
	}

	receivable := &storage.Receivable{
		ClientName:     client,
		ExpectedAmount: amount,
		OrderNumber:    fieldAt(row, columns, "order_number"),
		ClientTaxID:    fieldAt(row, columns, "tax_id"),
		Notes:          fieldAt(row, columns, "description"),
		Status:         storage.ReceivablePending,
	}

	if raw := fieldAt(row, columns, "due_date"); raw != "" {
		due, err := parseRowDate(raw)
		if err != nil {
			return nil, err
		}
		receivable.DueDate = &due
	}

	return receivable, nil
}

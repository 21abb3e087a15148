// Package matching ranks candidate receivables for a bank transaction.
//
// The composite confidence is a fixed weighted sum of four factors:
//   - Value (0.40): amount similarity within a 5% tolerance
//   - Identification (0.30): payer name vs client name, or exact tax id
//   - Date (0.20): proximity to the due date, or to the creation date
//     when no due date exists
//   - Order reference (0.10): order number found in the description
//
// Example usage:
//
//	finder := matching.NewFinder(matching.DefaultConfig())
//	matches := finder.FindMatches(txn, pendingReceivables)
//	if len(matches) > 0 && matches[0].Confidence >= 0.8 {
//		// strong enough for automatic reconciliation
//	}
package matching

import (
	"sort"
	"strings"

	"github.com/concilia-app/concilia-backend/internal/domain/similarity"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// Finder ranks receivables against transactions.
type Finder struct {
	config Config
}

// NewFinder creates a new finder with the given config.
func NewFinder(config Config) *Finder {
	return &Finder{config: config}
}

// FindMatches scores every candidate receivable against the transaction
// and returns the candidates at or above the minimum confidence, sorted
// by confidence descending. The sort is stable: ties keep input order.
func (f *Finder) FindMatches(txn *storage.Transaction, candidates []*storage.Receivable) []Match {
	matches := make([]Match, 0, len(candidates))

	for _, rcv := range candidates {
		factors := f.score(txn, rcv)
		confidence := f.config.Weights.Value*factors.Value +
			f.config.Weights.Identification*factors.Identification +
			f.config.Weights.Date*factors.Date +
			f.config.Weights.OrderReference*factors.OrderReference

		if confidence >= f.config.MinConfidence {
			matches = append(matches, Match{
				Receivable: rcv,
				Confidence: confidence,
				Factors:    factors,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches
}

// score computes the raw factor scores for one candidate.
func (f *Finder) score(txn *storage.Transaction, rcv *storage.Receivable) Factors {
	var factors Factors

	factors.Value = similarity.Value(txn.Amount, rcv.ExpectedAmount, f.config.ValueTolerance)

	// Identification: an exact tax-id match dominates name similarity.
	nameScore := similarity.Text(txn.PayerName, rcv.ClientName)
	taxIDScore := 0.0
	if txn.PayerTaxID != "" && rcv.ClientTaxID != "" && txn.PayerTaxID == rcv.ClientTaxID {
		taxIDScore = 1.0
	}
	factors.Identification = nameScore
	if taxIDScore > factors.Identification {
		factors.Identification = taxIDScore
	}

	if rcv.DueDate != nil {
		factors.Date = similarity.Date(txn.Date, *rcv.DueDate, f.config.DateToleranceDays)
	} else {
		// No due date: fall back to proximity with the creation date,
		// with a wider tolerance.
		factors.Date = similarity.Date(txn.Date, rcv.CreatedAt, f.config.CreatedDateToleranceDays)
	}

	if rcv.OrderNumber != "" && strings.Contains(txn.Description, rcv.OrderNumber) {
		factors.OrderReference = 1.0
	}

	return factors
}

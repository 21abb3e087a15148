// Package reconcile orchestrates settling bank transactions against
// receivables: automatic sweeps, operator-reviewed suggestions, manual
// pairing and undo.
//
// Every mutation runs inside a scoped store transaction and the store's
// unique receivable linkage is the authoritative duplicate guard; the
// engine's own existence checks are an optimization, not the safeguard.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/concilia-app/concilia-backend/internal/domain/matching"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// DefaultMinConfidence is the floor a top-ranked match must clear before
// the sweep settles it without operator review.
const DefaultMinConfidence = 0.8

// maxSuggestions caps operator-facing suggestion lists.
const maxSuggestions = 5

// manualFallbackConfidence is recorded when an operator pairs entities
// the matcher did not rank: asserted by a human, not algorithmically
// strong.
const manualFallbackConfidence = 0.5

// ErrInvalidTransactionType is returned when a non-credit transaction is
// offered for reconciliation.
var ErrInvalidTransactionType = errors.New("only credit transactions can be reconciled")

// Engine coordinates the matcher and the store.
type Engine struct {
	repo   storage.Repository
	finder *matching.Finder
	logger *slog.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(repo storage.Repository, finder *matching.Finder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		repo:   repo,
		finder: finder,
		logger: logger,
	}
}

// SweepEntry is one settlement decided by an automatic sweep.
type SweepEntry struct {
	TransactionID int64            `json:"transaction_id"`
	ReceivableID  int64            `json:"receivable_id"`
	Confidence    float64          `json:"confidence"`
	Factors       matching.Factors `json:"factors"`
}

// SweepResult summarizes an automatic sweep.
type SweepResult struct {
	RunID   string       `json:"run_id"`
	Count   int          `json:"count"`
	Results []SweepEntry `json:"results"`
}

// RunAutomatic sweeps every pending credit transaction and settles the
// ones whose top-ranked candidate clears minConfidence. Each settlement
// commits independently: a failure on one transaction is logged and the
// sweep moves on.
//
// A transaction whose best candidate is already linked elsewhere stays
// pending; it is not retried against its next-best candidate within the
// same sweep.
func (e *Engine) RunAutomatic(ctx context.Context, minConfidence float64) (*SweepResult, error) {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	result := &SweepResult{
		RunID:   uuid.NewString(),
		Results: make([]SweepEntry, 0),
	}

	pending, err := e.repo.ListPendingCreditTransactions()
	if err != nil {
		return nil, fmt.Errorf("listing pending transactions: %w", err)
	}

	logger := e.logger.With("run_id", result.RunID)
	logger.Info("starting automatic reconciliation sweep",
		"pending_transactions", len(pending),
		"min_confidence", minConfidence)

	for _, txn := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		candidates, err := e.repo.ListPendingReceivables()
		if err != nil {
			return nil, fmt.Errorf("listing pending receivables: %w", err)
		}

		matches := e.finder.FindMatches(txn, candidates)
		if len(matches) == 0 || matches[0].Confidence < minConfidence {
			continue
		}

		best := matches[0]

		linked, err := e.repo.HasReconciliationForReceivable(best.Receivable.ID)
		if err != nil {
			return nil, fmt.Errorf("checking receivable linkage: %w", err)
		}
		if linked {
			// Conservative: leave the transaction pending rather than
			// cascade to the next-best candidate.
			continue
		}

		rec := &storage.Reconciliation{
			TransactionID: txn.ID,
			ReceivableID:  best.Receivable.ID,
			Type:          storage.ReconciliationAutomatic,
			Confidence:    best.Confidence,
			Notes:         fmt.Sprintf("automatic reconciliation. factors: %s", best.Factors),
			ReconciledBy:  "system",
		}

		if err := e.repo.CreateReconciliation(rec); err != nil {
			if errors.Is(err, storage.ErrDuplicateReconciliation) {
				// Lost a race for this receivable; the transaction
				// stays pending for the next sweep.
				logger.Warn("receivable linked concurrently, skipping",
					"transaction_id", txn.ID,
					"receivable_id", best.Receivable.ID)
				continue
			}
			logger.Error("failed to persist reconciliation",
				"transaction_id", txn.ID,
				"receivable_id", best.Receivable.ID,
				"error", err)
			continue
		}

		result.Count++
		result.Results = append(result.Results, SweepEntry{
			TransactionID: txn.ID,
			ReceivableID:  best.Receivable.ID,
			Confidence:    best.Confidence,
			Factors:       best.Factors,
		})
	}

	logger.Info("automatic reconciliation sweep finished", "reconciled", result.Count)

	return result, nil
}

// Suggestions returns the top-ranked candidates for one transaction,
// capped for display. Only credit transactions can be reconciled.
func (e *Engine) Suggestions(transactionID int64) ([]matching.Match, error) {
	txn, err := e.repo.GetTransaction(transactionID)
	if err != nil {
		return nil, fmt.Errorf("loading transaction %d: %w", transactionID, err)
	}

	if txn.Type != storage.TransactionCredit {
		return nil, ErrInvalidTransactionType
	}

	candidates, err := e.repo.ListPendingReceivables()
	if err != nil {
		return nil, fmt.Errorf("listing pending receivables: %w", err)
	}

	matches := e.finder.FindMatches(txn, candidates)
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}

	return matches, nil
}

// ManualReconcile pairs a transaction and a receivable on an operator's
// say-so. The recorded confidence comes from the matcher when it ranked
// this receivable, otherwise the neutral manual fallback.
func (e *Engine) ManualReconcile(transactionID, receivableID int64, notes, user string) (*storage.Reconciliation, error) {
	txn, err := e.repo.GetTransaction(transactionID)
	if err != nil {
		return nil, fmt.Errorf("loading transaction %d: %w", transactionID, err)
	}
	if _, err := e.repo.GetReceivable(receivableID); err != nil {
		return nil, fmt.Errorf("loading receivable %d: %w", receivableID, err)
	}

	exists, err := e.repo.HasReconciliationForPair(transactionID, receivableID)
	if err != nil {
		return nil, fmt.Errorf("checking existing linkage: %w", err)
	}
	if exists {
		return nil, storage.ErrDuplicateReconciliation
	}

	confidence := manualFallbackConfidence
	candidates, err := e.repo.ListPendingReceivables()
	if err != nil {
		return nil, fmt.Errorf("listing pending receivables: %w", err)
	}
	for _, m := range e.finder.FindMatches(txn, candidates) {
		if m.Receivable.ID == receivableID {
			confidence = m.Confidence
			break
		}
	}

	if user == "" {
		user = "system"
	}

	rec := &storage.Reconciliation{
		TransactionID: transactionID,
		ReceivableID:  receivableID,
		Type:          storage.ReconciliationManual,
		Confidence:    confidence,
		Notes:         notes,
		ReconciledBy:  user,
	}

	if err := e.repo.CreateReconciliation(rec); err != nil {
		return nil, err
	}

	e.logger.Info("manual reconciliation recorded",
		"transaction_id", transactionID,
		"receivable_id", receivableID,
		"confidence", confidence,
		"user", user)

	return rec, nil
}

// Undo deletes a reconciliation and reverts both linked entities to
// pending.
func (e *Engine) Undo(recordID int64) error {
	if err := e.repo.DeleteReconciliation(recordID); err != nil {
		return err
	}

	e.logger.Info("reconciliation undone", "record_id", recordID)

	return nil
}

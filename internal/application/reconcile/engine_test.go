package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concilia-app/concilia-backend/internal/domain/matching"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

func newTestEngine(repo storage.Repository) *Engine {
	return NewEngine(repo, matching.NewFinder(matching.DefaultConfig()), nil)
}

func seedStatement(t *testing.T, repo *storage.MockRepository) *storage.Statement {
	t.Helper()

	st := &storage.Statement{Filename: "extrato.csv"}
	require.NoError(t, repo.CreateStatement(st))
	return st
}

func seedCredit(t *testing.T, repo *storage.MockRepository, statementID int64, amount float64, date time.Time, payerName string) *storage.Transaction {
	t.Helper()

	txn := &storage.Transaction{
		StatementID: statementID,
		Date:        date,
		Amount:      amount,
		Type:        storage.TransactionCredit,
		Description: "PIX " + payerName,
		PayerName:   payerName,
	}
	require.NoError(t, repo.CreateTransaction(txn))
	return txn
}

func seedReceivable(t *testing.T, repo *storage.MockRepository, amount float64, clientName string, due time.Time) *storage.Receivable {
	t.Helper()

	rcv := &storage.Receivable{
		ClientName:     clientName,
		ExpectedAmount: amount,
		DueDate:        &due,
	}
	require.NoError(t, repo.CreateReceivable(rcv))
	return rcv
}

func TestRunAutomatic_SettlesStrongMatch(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	txn := seedCredit(t, repo, st.ID, 1500, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "JOAO DA SILVA")
	rcv := seedReceivable(t, repo, 1500, "Joao da Silva", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))

	result, err := engine.RunAutomatic(context.Background(), DefaultMinConfidence)
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Results, 1)
	assert.Equal(t, txn.ID, result.Results[0].TransactionID)
	assert.Equal(t, rcv.ID, result.Results[0].ReceivableID)
	assert.GreaterOrEqual(t, result.Results[0].Confidence, 0.8)

	gotTxn, err := repo.GetTransaction(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReconciliationReconciled, gotTxn.Status)

	gotRcv, err := repo.GetReceivable(rcv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReceivablePaid, gotRcv.Status)

	// The automatic record embeds the factor breakdown for operators.
	require.NotNil(t, repo.LastCreatedReconciliation)
	assert.Equal(t, storage.ReconciliationAutomatic, repo.LastCreatedReconciliation.Type)
	assert.Equal(t, "system", repo.LastCreatedReconciliation.ReconciledBy)
	assert.Contains(t, repo.LastCreatedReconciliation.Notes, "value: 1.00")
}

func TestRunAutomatic_LeavesWeakMatchPending(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	txn := seedCredit(t, repo, st.ID, 1500, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "JOAO DA SILVA")
	// Amount matches but the name and date do not: below 0.8.
	seedReceivable(t, repo, 1500, "Outra Empresa Ltda", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	result, err := engine.RunAutomatic(context.Background(), DefaultMinConfidence)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)

	gotTxn, err := repo.GetTransaction(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReconciliationPending, gotTxn.Status)
}

func TestRunAutomatic_IgnoresDebitsAndReconciled(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)

	debit := &storage.Transaction{
		StatementID: st.ID,
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:      1500,
		Type:        storage.TransactionDebit,
		PayerName:   "JOAO DA SILVA",
	}
	require.NoError(t, repo.CreateTransaction(debit))

	settled := &storage.Transaction{
		StatementID: st.ID,
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:      1500,
		Type:        storage.TransactionCredit,
		PayerName:   "JOAO DA SILVA",
		Status:      storage.ReconciliationReconciled,
	}
	require.NoError(t, repo.CreateTransaction(settled))
	settledRcv := seedReceivable(t, repo, 1500, "Joao da Silva", time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))

	result, err := engine.RunAutomatic(context.Background(), DefaultMinConfidence)
	require.NoError(t, err)

	// Neither the debit nor the already-reconciled credit is touched,
	// so the matching receivable stays pending.
	assert.Equal(t, 0, result.Count)

	gotRcv, err := repo.GetReceivable(settledRcv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReceivablePending, gotRcv.Status)
}

func TestRunAutomatic_NoCascadeToNextBestCandidate(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	first := seedCredit(t, repo, st.ID, 1000, date, "JOAO DA SILVA")
	second := seedCredit(t, repo, st.ID, 1000, date, "JOAO DA SILVA")

	// One perfect candidate; the later transaction must not cascade onto
	// a weaker one after the first claims it.
	best := seedReceivable(t, repo, 1000, "Joao da Silva", date)

	result, err := engine.RunAutomatic(context.Background(), DefaultMinConfidence)
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, first.ID, result.Results[0].TransactionID)
	assert.Equal(t, best.ID, result.Results[0].ReceivableID)

	gotSecond, err := repo.GetTransaction(second.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReconciliationPending, gotSecond.Status)
}

func TestRunAutomatic_SkipsAlreadyLinkedReceivable(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	txn := seedCredit(t, repo, st.ID, 1000, date, "JOAO DA SILVA")
	rcv := seedReceivable(t, repo, 1000, "Joao da Silva", date)

	// Linked out-of-band before the sweep runs; the store keeps the
	// receivable pending so it still appears as a candidate.
	other := seedCredit(t, repo, st.ID, 999, date, "JOAO DA SILVA")
	require.NoError(t, repo.CreateReconciliation(&storage.Reconciliation{
		TransactionID: other.ID,
		ReceivableID:  rcv.ID,
		Type:          storage.ReconciliationManual,
		Confidence:    0.5,
	}))
	rcv.Status = storage.ReceivablePending
	require.NoError(t, repo.UpdateReceivable(rcv))

	result, err := engine.RunAutomatic(context.Background(), DefaultMinConfidence)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)

	gotTxn, err := repo.GetTransaction(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReconciliationPending, gotTxn.Status)
}

func TestSuggestions_RanksAndCapsAtFive(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	txn := seedCredit(t, repo, st.ID, 1000, date, "JOAO DA SILVA")

	for i := 0; i < 7; i++ {
		seedReceivable(t, repo, 1000, "Joao da Silva", date.AddDate(0, 0, i))
	}

	matches, err := engine.Suggestions(txn.ID)
	require.NoError(t, err)
	assert.Len(t, matches, 5)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Confidence, matches[i].Confidence)
	}
}

func TestSuggestions_RejectsDebit(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	debit := &storage.Transaction{
		StatementID: st.ID,
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:      100,
		Type:        storage.TransactionDebit,
	}
	require.NoError(t, repo.CreateTransaction(debit))

	_, err := engine.Suggestions(debit.ID)
	assert.ErrorIs(t, err, ErrInvalidTransactionType)
}

func TestSuggestions_UnknownTransaction(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	_, err := engine.Suggestions(404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManualReconcile_UsesMatcherConfidenceWhenRanked(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	txn := seedCredit(t, repo, st.ID, 1500, date, "JOAO DA SILVA")
	rcv := seedReceivable(t, repo, 1500, "Joao da Silva", date.AddDate(0, 0, 2))

	rec, err := engine.ManualReconcile(txn.ID, rcv.ID, "confirmed by phone", "ana")
	require.NoError(t, err)

	assert.Equal(t, storage.ReconciliationManual, rec.Type)
	assert.Equal(t, "ana", rec.ReconciledBy)
	assert.Equal(t, "confirmed by phone", rec.Notes)
	assert.InDelta(t, 0.8428, rec.Confidence, 0.001)
}

func TestManualReconcile_FallsBackToNeutralConfidence(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	txn := seedCredit(t, repo, st.ID, 1500, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "JOAO DA SILVA")
	// Nothing the matcher would rank: wrong amount, name, date.
	rcv := seedReceivable(t, repo, 12, "Empresa XYZ", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))

	rec, err := engine.ManualReconcile(txn.ID, rcv.ID, "", "")
	require.NoError(t, err)

	assert.Equal(t, 0.5, rec.Confidence)
	assert.Equal(t, "system", rec.ReconciledBy)
}

func TestManualReconcile_RejectsDuplicatePair(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	txn := seedCredit(t, repo, st.ID, 1500, date, "JOAO DA SILVA")
	rcv := seedReceivable(t, repo, 1500, "Joao da Silva", date)

	_, err := engine.ManualReconcile(txn.ID, rcv.ID, "", "ana")
	require.NoError(t, err)

	_, err = engine.ManualReconcile(txn.ID, rcv.ID, "", "ana")
	assert.ErrorIs(t, err, storage.ErrDuplicateReconciliation)
}

func TestManualReconcile_UnknownEntities(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	txn := seedCredit(t, repo, st.ID, 100, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), "JOAO")

	_, err := engine.ManualReconcile(404, 1, "", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = engine.ManualReconcile(txn.ID, 404, "", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUndo_RestoresBothEntities(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	txn := seedCredit(t, repo, st.ID, 1500, date, "JOAO DA SILVA")
	rcv := seedReceivable(t, repo, 1500, "Joao da Silva", date)

	rec, err := engine.ManualReconcile(txn.ID, rcv.ID, "", "ana")
	require.NoError(t, err)

	require.NoError(t, engine.Undo(rec.ID))

	gotTxn, err := repo.GetTransaction(txn.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReconciliationPending, gotTxn.Status)
	assert.Nil(t, gotTxn.Confidence)

	gotRcv, err := repo.GetReceivable(rcv.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReceivablePending, gotRcv.Status)
}

func TestUndo_UnknownRecord(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	err := engine.Undo(404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunAutomatic_PersistFailureDoesNotAbortSweep(t *testing.T) {
	repo := storage.NewMockRepository()
	engine := newTestEngine(repo)

	st := seedStatement(t, repo)
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	seedCredit(t, repo, st.ID, 1500, date, "JOAO DA SILVA")
	seedReceivable(t, repo, 1500, "Joao da Silva", date)

	repo.CreateReconciliationErr = errors.New("disk full")

	result, err := engine.RunAutomatic(context.Background(), DefaultMinConfidence)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
}

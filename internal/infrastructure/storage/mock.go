package storage

import (
	"sort"
	"strings"
	"time"
)

// MockRepository is an in-memory implementation of Repository for
// testing. It stores all data in maps, mirrors the SQLite store's
// uniqueness guarantee on receivable linkage, and offers error
// injection for exercising failure paths.
type MockRepository struct {
	statements      map[int64]*Statement
	transactions    map[int64]*Transaction
	receivables     map[int64]*Receivable
	reconciliations map[int64]*Reconciliation
	rules           map[int64]*MatchingRule

	nextStatementID      int64
	nextTransactionID    int64
	nextReceivableID     int64
	nextReconciliationID int64
	nextRuleID           int64

	// Hooks for test assertions
	CreateReconciliationCalled bool
	LastCreatedReconciliation  *Reconciliation
	DeleteReconciliationCalled bool

	// Error injection for testing error paths
	CreateStatementErr      error
	CreateTransactionErr    error
	CreateReceivableErr     error
	CreateReconciliationErr error
	FinalizeStatementErr    error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		statements:           make(map[int64]*Statement),
		transactions:         make(map[int64]*Transaction),
		receivables:          make(map[int64]*Receivable),
		reconciliations:      make(map[int64]*Reconciliation),
		rules:                make(map[int64]*MatchingRule),
		nextStatementID:      1,
		nextTransactionID:    1,
		nextReceivableID:     1,
		nextReconciliationID: 1,
		nextRuleID:           1,
	}
}

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

func (m *MockRepository) CreateStatement(st *Statement) error {
	if m.CreateStatementErr != nil {
		return m.CreateStatementErr
	}
	if st.UploadedAt.IsZero() {
		st.UploadedAt = time.Now().UTC()
	}
	if st.Status == "" {
		st.Status = StatementProcessing
	}
	st.ID = m.nextStatementID
	m.nextStatementID++
	copied := *st
	m.statements[st.ID] = &copied
	return nil
}

func (m *MockRepository) GetStatement(id int64) (*Statement, error) {
	st, ok := m.statements[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *st
	return &copied, nil
}

func (m *MockRepository) ListStatements() ([]*Statement, error) {
	out := make([]*Statement, 0, len(m.statements))
	for _, st := range m.statements {
		copied := *st
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *MockRepository) FinalizeStatement(st *Statement) error {
	if m.FinalizeStatementErr != nil {
		return m.FinalizeStatementErr
	}
	stored, ok := m.statements[st.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = st.Status
	stored.TotalTransactions = st.TotalTransactions
	stored.PeriodStart = st.PeriodStart
	stored.PeriodEnd = st.PeriodEnd
	return nil
}

func (m *MockRepository) DeleteStatement(id int64) error {
	if _, ok := m.statements[id]; !ok {
		return ErrNotFound
	}
	delete(m.statements, id)
	for txID, t := range m.transactions {
		if t.StatementID == id {
			delete(m.transactions, txID)
		}
	}
	return nil
}

func (m *MockRepository) CreateTransaction(t *Transaction) error {
	if m.CreateTransactionErr != nil {
		return m.CreateTransactionErr
	}
	if t.Status == "" {
		t.Status = ReconciliationPending
	}
	t.ID = m.nextTransactionID
	m.nextTransactionID++
	copied := *t
	m.transactions[t.ID] = &copied
	return nil
}

func (m *MockRepository) GetTransaction(id int64) (*Transaction, error) {
	t, ok := m.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *MockRepository) ListTransactionsByStatement(statementID int64) ([]*Transaction, error) {
	var out []*Transaction
	for _, t := range m.transactions {
		if t.StatementID == statementID {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockRepository) ListPendingCreditTransactions() ([]*Transaction, error) {
	var out []*Transaction
	for _, t := range m.transactions {
		if t.Status == ReconciliationPending && t.Type == TransactionCredit {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockRepository) CreateReceivable(r *Receivable) error {
	if m.CreateReceivableErr != nil {
		return m.CreateReceivableErr
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = ReceivablePending
	}
	r.ID = m.nextReceivableID
	m.nextReceivableID++
	copied := *r
	m.receivables[r.ID] = &copied
	return nil
}

func (m *MockRepository) GetReceivable(id int64) (*Receivable, error) {
	r, ok := m.receivables[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockRepository) UpdateReceivable(r *Receivable) error {
	if _, ok := m.receivables[r.ID]; !ok {
		return ErrNotFound
	}
	copied := *r
	m.receivables[r.ID] = &copied
	return nil
}

func (m *MockRepository) DeleteReceivable(id int64) error {
	if _, ok := m.receivables[id]; !ok {
		return ErrNotFound
	}
	delete(m.receivables, id)
	return nil
}

func (m *MockRepository) ListReceivables(filters ReceivableFilters) ([]*Receivable, error) {
	var out []*Receivable
	for _, r := range m.receivables {
		if filters.Status != "" && r.Status != filters.Status {
			continue
		}
		if filters.Client != "" && !strings.Contains(strings.ToLower(r.ClientName), strings.ToLower(filters.Client)) {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MockRepository) ListPendingReceivables() ([]*Receivable, error) {
	var out []*Receivable
	for _, r := range m.receivables {
		if r.Status == ReceivablePending {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.ID < b.ID
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		default:
			return a.ID < b.ID
		}
	})
	return out, nil
}

func (m *MockRepository) CreateReconciliation(rec *Reconciliation) error {
	m.CreateReconciliationCalled = true
	if m.CreateReconciliationErr != nil {
		return m.CreateReconciliationErr
	}

	// Same guarantee as the SQLite unique index.
	for _, existing := range m.reconciliations {
		if existing.ReceivableID == rec.ReceivableID {
			return ErrDuplicateReconciliation
		}
	}

	txn, ok := m.transactions[rec.TransactionID]
	if !ok {
		return ErrNotFound
	}
	rcv, ok := m.receivables[rec.ReceivableID]
	if !ok {
		return ErrNotFound
	}

	if rec.ReconciledAt.IsZero() {
		rec.ReconciledAt = time.Now().UTC()
	}
	if rec.ReconciledBy == "" {
		rec.ReconciledBy = "system"
	}
	rec.ID = m.nextReconciliationID
	m.nextReconciliationID++

	copied := *rec
	m.reconciliations[rec.ID] = &copied
	m.LastCreatedReconciliation = &copied

	confidence := rec.Confidence
	txn.Status = ReconciliationReconciled
	txn.Confidence = &confidence
	rcv.Status = ReceivablePaid
	return nil
}

func (m *MockRepository) GetReconciliation(id int64) (*Reconciliation, error) {
	rec, ok := m.reconciliations[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *MockRepository) DeleteReconciliation(id int64) error {
	m.DeleteReconciliationCalled = true
	rec, ok := m.reconciliations[id]
	if !ok {
		return ErrNotFound
	}

	delete(m.reconciliations, id)

	if txn, ok := m.transactions[rec.TransactionID]; ok {
		txn.Status = ReconciliationPending
		txn.Confidence = nil
	}
	if rcv, ok := m.receivables[rec.ReceivableID]; ok {
		rcv.Status = ReceivablePending
	}
	return nil
}

func (m *MockRepository) HasReconciliationForReceivable(receivableID int64) (bool, error) {
	for _, rec := range m.reconciliations {
		if rec.ReceivableID == receivableID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRepository) HasReconciliationForPair(transactionID, receivableID int64) (bool, error) {
	for _, rec := range m.reconciliations {
		if rec.TransactionID == transactionID && rec.ReceivableID == receivableID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockRepository) ListReconciliations() ([]*ReconciliationDetail, error) {
	out := make([]*ReconciliationDetail, 0, len(m.reconciliations))
	for _, rec := range m.reconciliations {
		d := &ReconciliationDetail{Reconciliation: *rec}
		if txn, ok := m.transactions[rec.TransactionID]; ok {
			copied := *txn
			d.Transaction = &copied
		}
		if rcv, ok := m.receivables[rec.ReceivableID]; ok {
			copied := *rcv
			d.Receivable = &copied
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReconciledAt.Equal(out[j].ReconciledAt) {
			return out[i].ReconciledAt.After(out[j].ReconciledAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *MockRepository) CreateMatchingRule(rule *MatchingRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	if rule.Priority == 0 {
		rule.Priority = 1
	}
	rule.ID = m.nextRuleID
	m.nextRuleID++
	copied := *rule
	m.rules[rule.ID] = &copied
	return nil
}

func (m *MockRepository) ListMatchingRules() ([]*MatchingRule, error) {
	out := make([]*MatchingRule, 0, len(m.rules))
	for _, rule := range m.rules {
		copied := *rule
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

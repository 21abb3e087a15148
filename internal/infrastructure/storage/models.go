package storage

import (
	"time"
)

// StatementStatus tracks the lifecycle of an uploaded bank statement.
type StatementStatus string

const (
	StatementProcessing StatementStatus = "processing"
	StatementCompleted  StatementStatus = "completed"
	StatementError      StatementStatus = "error"
)

// TransactionType distinguishes money in from money out. Only credit
// transactions are eligible for reconciliation.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// ReconciliationStatus tracks whether a transaction has been settled
// against a receivable.
type ReconciliationStatus string

const (
	ReconciliationPending    ReconciliationStatus = "pending"
	ReconciliationReconciled ReconciliationStatus = "reconciled"
	ReconciliationDivergent  ReconciliationStatus = "divergent"
)

// ReceivableStatus tracks the payment state of an expected receivable.
type ReceivableStatus string

const (
	ReceivablePending ReceivableStatus = "pending"
	ReceivablePaid    ReceivableStatus = "paid"
	ReceivableOverdue ReceivableStatus = "overdue"
)

// ReconciliationType records how a reconciliation was decided.
type ReconciliationType string

const (
	ReconciliationAutomatic ReconciliationType = "automatic"
	ReconciliationManual    ReconciliationType = "manual"
)

// Statement is an uploaded batch of bank transactions for a period.
// Its transactions are owned by the statement and deleted with it.
type Statement struct {
	ID                int64           `json:"id"`
	Filename          string          `json:"filename"`
	UploadedAt        time.Time       `json:"uploaded_at"`
	Bank              string          `json:"bank,omitempty"`
	Account           string          `json:"account,omitempty"`
	PeriodStart       *time.Time      `json:"period_start,omitempty"`
	PeriodEnd         *time.Time      `json:"period_end,omitempty"`
	TotalTransactions int             `json:"total_transactions"`
	Status            StatementStatus `json:"status"`
}

// Transaction is a single statement line item. The amount is always the
// unsigned magnitude; the sign of the source value is kept in Type.
type Transaction struct {
	ID          int64                `json:"id"`
	StatementID int64                `json:"statement_id"`
	Date        time.Time            `json:"date"`
	Amount      float64              `json:"amount"`
	Type        TransactionType      `json:"type"`
	Description string               `json:"description,omitempty"`
	Document    string               `json:"document,omitempty"`
	PayerName   string               `json:"payer_name,omitempty"`
	PayerTaxID  string               `json:"payer_tax_id,omitempty"`
	Status      ReconciliationStatus `json:"status"`
	Confidence  *float64             `json:"confidence,omitempty"`
}

// Receivable is an expected incoming payment owed to the business.
type Receivable struct {
	ID             int64            `json:"id"`
	OrderNumber    string           `json:"order_number,omitempty"`
	ClientName     string           `json:"client_name"`
	ClientTaxID    string           `json:"client_tax_id,omitempty"`
	ExpectedAmount float64          `json:"expected_amount"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	Status         ReceivableStatus `json:"status"`
	Notes          string           `json:"notes,omitempty"`
}

// Reconciliation links exactly one transaction to exactly one receivable.
// A receivable carries at most one live reconciliation at any time; the
// store enforces this with a unique index on receivable_id.
type Reconciliation struct {
	ID            int64              `json:"id"`
	TransactionID int64              `json:"transaction_id"`
	ReceivableID  int64              `json:"receivable_id"`
	Type          ReconciliationType `json:"type"`
	Confidence    float64            `json:"confidence"`
	Notes         string             `json:"notes,omitempty"`
	ReconciledBy  string             `json:"reconciled_by"`
	ReconciledAt  time.Time          `json:"reconciled_at"`
}

// ReconciliationDetail is a reconciliation joined with both linked
// entities, used for operator-facing listings.
type ReconciliationDetail struct {
	Reconciliation
	Transaction *Transaction `json:"transaction"`
	Receivable  *Receivable  `json:"receivable"`
}

// MatchingRule is an operator-defined rule for customizing match
// weighting. Criteria are stored as serialized JSON; the rule store is an
// extensibility hook and is not consulted by the automatic matcher.
type MatchingRule struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Active        bool      `json:"active"`
	Priority      int       `json:"priority"`
	ValueCriteria string    `json:"value_criteria,omitempty"`
	DateCriteria  string    `json:"date_criteria,omitempty"`
	TextCriteria  string    `json:"text_criteria,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

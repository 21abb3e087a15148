package dto

// CreateReceivableRequest is the payload for registering one receivable.
type CreateReceivableRequest struct {
	OrderNumber    string  `json:"order_number"`
	ClientName     string  `json:"client_name" binding:"required"`
	ClientTaxID    string  `json:"client_tax_id"`
	ExpectedAmount float64 `json:"expected_amount" binding:"required,gt=0"`
	DueDate        string  `json:"due_date"`
	Notes          string  `json:"notes"`
}

// UpdateReceivableRequest is the payload for editing a receivable.
// Absent fields keep the stored value.
type UpdateReceivableRequest struct {
	OrderNumber    *string  `json:"order_number"`
	ClientName     *string  `json:"client_name"`
	ClientTaxID    *string  `json:"client_tax_id"`
	ExpectedAmount *float64 `json:"expected_amount"`
	DueDate        *string  `json:"due_date"`
	Status         *string  `json:"status"`
	Notes          *string  `json:"notes"`
}

// AutomaticReconciliationRequest tunes one automatic sweep. A zero
// MinConfidence uses the configured default.
type AutomaticReconciliationRequest struct {
	MinConfidence float64 `json:"min_confidence"`
}

// ManualReconciliationRequest links one transaction to one receivable
// by operator decision.
type ManualReconciliationRequest struct {
	TransactionID int64  `json:"transaction_id" binding:"required"`
	ReceivableID  int64  `json:"receivable_id" binding:"required"`
	Notes         string `json:"notes"`
	ReconciledBy  string `json:"reconciled_by"`
}

// CreateMatchingRuleRequest is the payload for registering a matching rule.
type CreateMatchingRuleRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Active        *bool  `json:"active"`
	Priority      int    `json:"priority"`
	ValueCriteria string `json:"value_criteria"`
	DateCriteria  string `json:"date_criteria"`
	TextCriteria  string `json:"text_criteria"`
}

package storage

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReconciliation is returned when a reconciliation would
	// link a receivable that already carries a live reconciliation, or
	// repeat an existing transaction/receivable pair. The store-side
	// unique index raises this even when two callers race past the
	// application-level check.
	ErrDuplicateReconciliation = errors.New("receivable is already reconciled")
)

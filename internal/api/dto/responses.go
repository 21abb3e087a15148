package dto

import (
	"time"

	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHealthResponse creates a healthy response with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	}
}

// ListResponse wraps a collection with its count so clients don't have
// to length-check the payload.
type ListResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

// NewListResponse wraps items in a ListResponse, normalizing nil slices
// to empty ones.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Count: len(items), Items: items}
}

// PendingOverview is the open work queue: credit transactions awaiting
// reconciliation alongside receivables awaiting payment.
type PendingOverview struct {
	Transactions ListResponse[*storage.Transaction] `json:"transactions"`
	Receivables  ListResponse[*storage.Receivable]  `json:"receivables"`
}

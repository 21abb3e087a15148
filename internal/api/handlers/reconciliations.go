package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/concilia-app/concilia-backend/internal/api/dto"
	"github.com/concilia-app/concilia-backend/internal/application/reconcile"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// Reconciliations handles matching and reconciliation requests.
type Reconciliations struct {
	*Base
	engine *reconcile.Engine

	// defaultMinConfidence applies to sweeps that don't set a threshold.
	defaultMinConfidence float64
}

// NewReconciliations creates the reconciliations handler.
func NewReconciliations(repo storage.Repository, engine *reconcile.Engine, defaultMinConfidence float64, logger *slog.Logger) *Reconciliations {
	return &Reconciliations{
		Base:                 NewBase(repo, logger),
		engine:               engine,
		defaultMinConfidence: defaultMinConfidence,
	}
}

// Automatic runs one automatic reconciliation sweep.
func (h *Reconciliations) Automatic(c *gin.Context) {
	var req dto.AutomaticReconciliationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
			return
		}
	}
	if req.MinConfidence < 0 || req.MinConfidence > 1 {
		c.JSON(http.StatusBadRequest, dto.ValidationError("min_confidence must be within [0, 1]"))
		return
	}

	minConfidence := req.MinConfidence
	if minConfidence == 0 {
		minConfidence = h.defaultMinConfidence
	}

	result, err := h.engine.RunAutomatic(c.Request.Context(), minConfidence)
	if err != nil {
		h.logger.Error("automatic sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
		return
	}

	c.JSON(http.StatusOK, result)
}

// Suggestions returns the ranked candidates for one credit transaction.
func (h *Reconciliations) Suggestions(c *gin.Context) {
	id, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	matches, err := h.engine.Suggestions(id)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrInvalidTransactionType):
			c.JSON(http.StatusBadRequest, dto.NewAPIError(dto.ErrCodeInvalidTransactionType, "only credit transactions can be reconciled"))
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.NotFoundError("transaction"))
		default:
			h.logger.Error("suggestion lookup failed", "transaction_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(matches))
}

// Manual links a transaction to a receivable by operator decision.
func (h *Reconciliations) Manual(c *gin.Context) {
	var req dto.ManualReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	record, err := h.engine.ManualReconcile(req.TransactionID, req.ReceivableID, req.Notes, req.ReconciledBy)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.NotFoundError("transaction or receivable"))
		case errors.Is(err, storage.ErrDuplicateReconciliation):
			c.JSON(http.StatusConflict, dto.NewAPIError(dto.ErrCodeDuplicateReconciliation, "pair already reconciled"))
		default:
			h.logger.Error("manual reconciliation failed",
				"transaction_id", req.TransactionID,
				"receivable_id", req.ReceivableID,
				"error", err)
			c.JSON(http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	c.JSON(http.StatusCreated, record)
}

// List returns every reconciliation joined with its linked entities.
func (h *Reconciliations) List(c *gin.Context) {
	records, err := h.repo.ListReconciliations()
	if err != nil {
		h.respondStorageError(c, err, "reconciliations")
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(records))
}

// Pending returns the open work queue: credit transactions awaiting
// reconciliation, newest first, and receivables awaiting payment in
// due-date order.
func (h *Reconciliations) Pending(c *gin.Context) {
	txns, err := h.repo.ListPendingCreditTransactions()
	if err != nil {
		h.respondStorageError(c, err, "transactions")
		return
	}
	sort.SliceStable(txns, func(i, j int) bool {
		return txns[i].Date.After(txns[j].Date)
	})

	receivables, err := h.repo.ListPendingReceivables()
	if err != nil {
		h.respondStorageError(c, err, "receivables")
		return
	}

	c.JSON(http.StatusOK, dto.PendingOverview{
		Transactions: dto.NewListResponse(txns),
		Receivables:  dto.NewListResponse(receivables),
	})
}

// Delete undoes one reconciliation, reverting both linked entities to
// pending.
func (h *Reconciliations) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.engine.Undo(id); err != nil {
		h.respondStorageError(c, err, "reconciliation")
		return
	}

	c.Status(http.StatusNoContent)
}

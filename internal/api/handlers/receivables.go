package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/concilia-app/concilia-backend/internal/api/dto"
	"github.com/concilia-app/concilia-backend/internal/application/ingest"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// Receivables handles receivable CRUD and bulk import requests.
type Receivables struct {
	*Base
	ingestor *ingest.Ingestor
}

// NewReceivables creates the receivables handler.
func NewReceivables(repo storage.Repository, ingestor *ingest.Ingestor, logger *slog.Logger) *Receivables {
	return &Receivables{
		Base:     NewBase(repo, logger),
		ingestor: ingestor,
	}
}

// Create registers one receivable.
func (h *Receivables) Create(c *gin.Context) {
	var req dto.CreateReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	receivable := &storage.Receivable{
		OrderNumber:    req.OrderNumber,
		ClientName:     req.ClientName,
		ClientTaxID:    req.ClientTaxID,
		ExpectedAmount: req.ExpectedAmount,
		Notes:          req.Notes,
		Status:         storage.ReceivablePending,
	}

	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ValidationError("due_date must be YYYY-MM-DD"))
			return
		}
		receivable.DueDate = &due
	}

	if err := h.repo.CreateReceivable(receivable); err != nil {
		h.respondStorageError(c, err, "receivable")
		return
	}

	c.JSON(http.StatusCreated, receivable)
}

// List returns receivables, optionally filtered by status and client
// name substring.
func (h *Receivables) List(c *gin.Context) {
	filters := storage.ReceivableFilters{
		Status: storage.ReceivableStatus(c.Query("status")),
		Client: c.Query("client"),
	}

	receivables, err := h.repo.ListReceivables(filters)
	if err != nil {
		h.respondStorageError(c, err, "receivables")
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(receivables))
}

// Pending returns receivables still awaiting payment, due-date order.
func (h *Receivables) Pending(c *gin.Context) {
	receivables, err := h.repo.ListPendingReceivables()
	if err != nil {
		h.respondStorageError(c, err, "receivables")
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(receivables))
}

// Get returns one receivable.
func (h *Receivables) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	receivable, err := h.repo.GetReceivable(id)
	if err != nil {
		h.respondStorageError(c, err, "receivable")
		return
	}

	c.JSON(http.StatusOK, receivable)
}

// Update edits one receivable. Only the provided fields change.
func (h *Receivables) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	receivable, err := h.repo.GetReceivable(id)
	if err != nil {
		h.respondStorageError(c, err, "receivable")
		return
	}

	if req.OrderNumber != nil {
		receivable.OrderNumber = *req.OrderNumber
	}
	if req.ClientName != nil {
		if *req.ClientName == "" {
			c.JSON(http.StatusBadRequest, dto.ValidationError("client_name cannot be empty"))
			return
		}
		receivable.ClientName = *req.ClientName
	}
	if req.ClientTaxID != nil {
		receivable.ClientTaxID = *req.ClientTaxID
	}
	if req.ExpectedAmount != nil {
		if *req.ExpectedAmount <= 0 {
			c.JSON(http.StatusBadRequest, dto.ValidationError("expected_amount must be positive"))
			return
		}
		receivable.ExpectedAmount = *req.ExpectedAmount
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			receivable.DueDate = nil
		} else {
			due, err := time.Parse("2006-01-02", *req.DueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, dto.ValidationError("due_date must be YYYY-MM-DD"))
				return
			}
			receivable.DueDate = &due
		}
	}
	if req.Status != nil {
		status := storage.ReceivableStatus(*req.Status)
		switch status {
		case storage.ReceivablePending, storage.ReceivablePaid, storage.ReceivableOverdue:
			receivable.Status = status
		default:
			c.JSON(http.StatusBadRequest, dto.ValidationError("invalid status"))
			return
		}
	}
	if req.Notes != nil {
		receivable.Notes = *req.Notes
	}

	if err := h.repo.UpdateReceivable(receivable); err != nil {
		h.respondStorageError(c, err, "receivable")
		return
	}

	c.JSON(http.StatusOK, receivable)
}

// Delete removes one receivable.
func (h *Receivables) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteReceivable(id); err != nil {
		h.respondStorageError(c, err, "receivable")
		return
	}

	c.Status(http.StatusNoContent)
}

// Import bulk-loads receivables from a CSV upload.
func (h *Receivables) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError("missing file field"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError("could not read upload"))
		return
	}
	if len(raw) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ValidationError("file exceeds the 10MB upload limit"))
		return
	}

	result, err := h.ingestor.ImportReceivables(raw)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrValidation):
			c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		case errors.Is(err, ingest.ErrUnsupportedFormat), errors.Is(err, ingest.ErrDecode):
			c.JSON(http.StatusBadRequest, dto.NewAPIError(dto.ErrCodeUnsupportedFormat, err.Error()))
		default:
			h.logger.Error("receivables import failed", "error", err)
			c.JSON(http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

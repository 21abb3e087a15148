package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/concilia-app/concilia-backend/internal/api/dto"
	"github.com/concilia-app/concilia-backend/internal/application/ingest"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// maxUploadBytes caps statement uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// Statements handles statement upload and lifecycle requests.
type Statements struct {
	*Base
	ingestor *ingest.Ingestor
}

// NewStatements creates the statements handler.
func NewStatements(repo storage.Repository, ingestor *ingest.Ingestor, logger *slog.Logger) *Statements {
	return &Statements{
		Base:     NewBase(repo, logger),
		ingestor: ingestor,
	}
}

// Upload ingests a multipart statement file.
func (h *Statements) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
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

	result, err := h.ingestor.IngestStatement(raw, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrValidation):
			c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			c.JSON(http.StatusUnsupportedMediaType, dto.NewAPIError(dto.ErrCodeUnsupportedFormat, err.Error()))
		case errors.Is(err, ingest.ErrDecode):
			c.JSON(http.StatusBadRequest, dto.NewAPIError(dto.ErrCodeUnsupportedFormat, err.Error()))
		default:
			h.logger.Error("statement ingestion failed", "filename", header.Filename, "error", err)
			c.JSON(http.StatusInternalServerError, dto.InternalError())
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List returns every uploaded statement, newest first.
func (h *Statements) List(c *gin.Context) {
	statements, err := h.repo.ListStatements()
	if err != nil {
		h.respondStorageError(c, err, "statements")
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(statements))
}

// Transactions returns the line items of one statement.
func (h *Statements) Transactions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if _, err := h.repo.GetStatement(id); err != nil {
		h.respondStorageError(c, err, "statement")
		return
	}

	txns, err := h.repo.ListTransactionsByStatement(id)
	if err != nil {
		h.respondStorageError(c, err, "transactions")
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(txns))
}

// Delete removes a statement and all of its transactions.
func (h *Statements) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteStatement(id); err != nil {
		h.respondStorageError(c, err, "statement")
		return
	}

	c.Status(http.StatusNoContent)
}

// Package handlers contains the HTTP handlers for the reconciliation API.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/concilia-app/concilia-backend/internal/api/dto"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	repo   storage.Repository
	logger *slog.Logger
}

// NewBase creates a new base handler with the given repository.
func NewBase(repo storage.Repository, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{repo: repo, logger: logger}
}

// pathID parses the named path parameter as an entity ID. A second
// return of false means the error response has already been written.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.BadRequestError("invalid "+name))
		return 0, false
	}
	return id, true
}

// respondStorageError maps storage errors onto HTTP responses. Unknown
// errors are logged and reported as internal.
func (b *Base) respondStorageError(c *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NotFoundError(resource))
	case errors.Is(err, storage.ErrDuplicateReconciliation):
		c.JSON(http.StatusConflict, dto.NewAPIError(dto.ErrCodeDuplicateReconciliation, "receivable already reconciled"))
	default:
		b.logger.Error("storage error", "resource", resource, "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError())
	}
}

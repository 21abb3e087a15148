package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/concilia-app/concilia-backend/internal/api/dto"
	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

// Rules handles matching rule requests.
type Rules struct {
	*Base
}

// NewRules creates the rules handler.
func NewRules(repo storage.Repository, logger *slog.Logger) *Rules {
	return &Rules{Base: NewBase(repo, logger)}
}

// List returns every matching rule, highest priority first.
func (h *Rules) List(c *gin.Context) {
	rules, err := h.repo.ListMatchingRules()
	if err != nil {
		h.respondStorageError(c, err, "rules")
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(rules))
}

// Create registers a matching rule.
func (h *Rules) Create(c *gin.Context) {
	var req dto.CreateMatchingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	rule := &storage.MatchingRule{
		Name:          req.Name,
		Description:   req.Description,
		Active:        true,
		Priority:      req.Priority,
		ValueCriteria: req.ValueCriteria,
		DateCriteria:  req.DateCriteria,
		TextCriteria:  req.TextCriteria,
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if err := h.repo.CreateMatchingRule(rule); err != nil {
		h.respondStorageError(c, err, "rule")
		return
	}

	c.JSON(http.StatusCreated, rule)
}

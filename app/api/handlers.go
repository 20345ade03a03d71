package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-retitle/app/database"
	"github.com/lysyi3m/rss-retitle/app/rewrite"
	"github.com/lysyi3m/rss-retitle/app/rules"
)

const feedContentType = "text/xml; charset=utf-8"

// NewHandler wires the HTTP handlers. store may be nil, in which case the rule
// mutation endpoints answer 501.
func NewHandler(fetcher FetcherInterface, rewriter RewriterInterface, previewer PreviewerInterface,
	registry RegistryInterface, store RuleStore, opts Options) *Handler {
	return &Handler{
		fetcher:   fetcher,
		rewriter:  rewriter,
		previewer: previewer,
		registry:  registry,
		store:     store,
		opts:      opts,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	data, err := h.fetcher.Run(c.Request.Context(), h.opts.SourceURL)
	if err != nil {
		slog.Error("Failed to fetch feed", "url", h.opts.SourceURL, "error", err)
		c.String(http.StatusBadGateway, "Error: %v", err)
		return
	}

	body, err := h.rewriter.Run(data, h.registry.Current())
	if err != nil {
		var parseErr *rewrite.ParseError
		if errors.As(err, &parseErr) && h.opts.PartialOnError {
			slog.Warn("Serving partial feed", "url", h.opts.SourceURL, "line", parseErr.Line, "error", parseErr.Err)
			c.Header("X-Rewrite-Partial", "true")
			c.Data(http.StatusOK, feedContentType, []byte(parseErr.Partial))
			return
		}

		slog.Error("Failed to rewrite feed", "url", h.opts.SourceURL, "error", err)
		c.String(http.StatusBadGateway, "Error: %v", err)
		return
	}

	c.Data(http.StatusOK, feedContentType, []byte(body))
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h *Handler) GetTitles(c *gin.Context) {
	data, err := h.fetcher.Run(c.Request.Context(), h.opts.SourceURL)
	if err != nil {
		slog.Error("Failed to fetch feed", "url", h.opts.SourceURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch feed", "details": err.Error()})
		return
	}

	preview, err := h.previewer.Run(data, h.registry.Current())
	if err != nil {
		slog.Error("Failed to preview feed", "url", h.opts.SourceURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to parse feed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, preview)
}

func (h *Handler) APIListRules(c *gin.Context) {
	active := h.registry.Current().Rules()

	c.JSON(http.StatusOK, gin.H{
		"rules": active,
		"total": len(active),
	})
}

func (h *Handler) APIListStoredRules(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	stored, err := h.store.ListRules(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_rules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rules": stored,
		"total": len(stored),
	})
}

func (h *Handler) APICreateRule(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	rule := rules.Rule{
		Name:        req.Name,
		Pattern:     req.Pattern,
		Replacement: req.Replacement,
		Priority:    h.opts.DefaultPriority,
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}

	if err := rules.Validate(rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule", "details": err.Error()})
		return
	}

	id, err := h.store.CreateRule(c.Request.Context(), rule)
	if err != nil {
		slog.Error("Database error", "operation", "create_rule", "rule", rule.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	set, ok := h.reload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           id,
		"rule":         rule,
		"active_rules": set.Len(),
	})
}

func (h *Handler) APIUpdateRule(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	id, ok := ruleID(c)
	if !ok {
		return
	}

	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.store.SetRuleEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		h.storeError(c, "update_rule", id, err)
		return
	}

	set, ok := h.reload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           id,
		"enabled":      *req.Enabled,
		"active_rules": set.Len(),
	})
}

func (h *Handler) APIDeleteRule(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}

	id, ok := ruleID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteRule(c.Request.Context(), id); err != nil {
		h.storeError(c, "delete_rule", id, err)
		return
	}

	set, ok := h.reload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"active_rules": set.Len(),
	})
}

func (h *Handler) APIReloadRules(c *gin.Context) {
	set, ok := h.reload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"active_rules": set.Len(),
	})
}

func (h *Handler) reload(c *gin.Context) (*rules.Set, bool) {
	set, err := h.registry.Reload(c.Request.Context())
	if err != nil {
		slog.Error("Error reloading rules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload rules",
			"details": err.Error(),
		})
		return nil, false
	}
	return set, true
}

func (h *Handler) requireStore(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Rule store not configured (set DB_PATH)"})
		return false
	}
	return true
}

func (h *Handler) storeError(c *gin.Context, operation string, id int64, err error) {
	if errors.Is(err, database.ErrRuleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}

	slog.Error("Database error", "operation", operation, "id", id, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}

func ruleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule id"})
		return 0, false
	}
	return id, true
}

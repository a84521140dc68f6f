package insights

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/mindmap"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/server/respond"
	"documind-backend/internal/usage"
)

// Handler wires HTTP handlers to the task service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches insight routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/insights/summary", h.summary)
	rg.POST("/insights/questions", h.question)
	rg.GET("/insights/conversation", h.conversation)
	rg.DELETE("/insights/conversation", h.clearConversation)
	rg.POST("/insights/mindmap", h.mindMap)
}

func (h *Handler) summary(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	c.Set("task", string(llm.TaskSummary))

	res, err := h.Svc.Summary(c.Request.Context(), sessionID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.Set("documentId", res.DocumentID)
	respond.OK(c, res)
}

type questionRequest struct {
	Question string `json:"question" binding:"required"`
}

func (h *Handler) question(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	c.Set("task", string(llm.TaskQuestion))

	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		return
	}

	res, err := h.Svc.Ask(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.Set("documentId", res.DocumentID)
	respond.OK(c, res)
}

func (h *Handler) conversation(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	doc, turns, err := h.Svc.Conversation(c.Request.Context(), sessionID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.Set("documentId", doc.ID)
	respond.OK(c, gin.H{
		"documentId": doc.ID,
		"turns":      turns,
	})
}

func (h *Handler) clearConversation(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	doc, err := h.Svc.ClearConversation(c.Request.Context(), sessionID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.Set("documentId", doc.ID)
	respond.OK(c, gin.H{"documentId": doc.ID, "cleared": true})
}

func (h *Handler) mindMap(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	c.Set("task", string(llm.TaskMindMap))

	res, err := h.Svc.MindMap(c.Request.Context(), sessionID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.Set("documentId", res.DocumentID)
	respond.OK(c, res)
}

// respondTaskError maps service failures onto the error catalogue.
func respondTaskError(c *gin.Context, err error) {
	var rateErr *llm.RateLimitedError
	var apiErr *llm.APIError

	switch {
	case errors.Is(err, documents.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "no_document", "no document loaded; upload a PDF first", nil)
	case errors.Is(err, documents.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, documents.ErrExtraction):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed",
			"Could not extract text from the PDF. It may be image-based, encrypted, or empty.", nil)
	case errors.Is(err, usage.ErrLimitReached):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded",
			"daily task limit reached; try again after the quota resets", nil)
	case errors.As(err, &rateErr):
		retryAfter := rateErr.RetryAfter
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Round(time.Second).Seconds())))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited",
			"model requests are rate limited; wait and retry", gin.H{
				"retryAfterMs": retryAfter.Milliseconds(),
			})
	case errors.Is(err, llm.ErrRateLimited):
		c.Header("Retry-After", "60")
		respond.Error(c, http.StatusTooManyRequests, "rate_limited",
			"model requests are rate limited; wait and retry", nil)
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, "llm_timeout", "the model did not respond in time", nil)
	case errors.Is(err, mindmap.ErrMalformedGraph):
		respond.Error(c, http.StatusBadGateway, "malformed_graph",
			"the model returned an unusable mind map; retry the request", nil)
	case errors.As(err, &apiErr):
		respond.Error(c, http.StatusBadGateway, "llm_error", "the model request failed", gin.H{
			"provider": apiErr.Provider,
		})
	case errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to run task", nil)
	}
}

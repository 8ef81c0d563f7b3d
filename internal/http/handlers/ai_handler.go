// README: AI summary handler (Gemini trip briefing).
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wayfinder/internal/ai"
	"wayfinder/internal/modules/plan"
)

type AIHandler struct {
	plan       *plan.Service
	summarizer ai.Summarizer
}

// NewAIHandler accepts a nil summarizer; the endpoint then reports itself
// unavailable instead of failing at startup.
func NewAIHandler(planSvc *plan.Service, summarizer ai.Summarizer) *AIHandler {
	return &AIHandler{plan: planSvc, summarizer: summarizer}
}

// Summary handles POST /api/plan/summary.
func (h *AIHandler) Summary(c *gin.Context) {
	if h.summarizer == nil {
		writeError(c, http.StatusServiceUnavailable, "summary service not configured")
		return
	}

	var req planReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.plan.Plan(c.Request.Context(), req.toCommand())
	if err != nil {
		writePlanError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	summary, err := h.summarizer.SummarizePlan(ctx, res.Response)
	if err != nil {
		writeError(c, http.StatusBadGateway, "summary generation failed")
		return
	}

	writeJSON(c, http.StatusOK, gin.H{
		"state":   res.State,
		"summary": summary,
		"options": res.Response.Options,
	})
}

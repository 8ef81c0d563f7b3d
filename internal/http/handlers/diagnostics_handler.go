// README: Operator diagnostics (recent degraded/failed plan requests).
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wayfinder/internal/modules/plan"
)

type DiagnosticsHandler struct {
	store *plan.Store
}

func NewDiagnosticsHandler(store *plan.Store) *DiagnosticsHandler {
	return &DiagnosticsHandler{store: store}
}

// RecentFailures handles GET /api/diagnostics/failures.
func (h *DiagnosticsHandler) RecentFailures(c *gin.Context) {
	if h.store == nil {
		writeError(c, http.StatusServiceUnavailable, "diagnostics store not configured")
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := h.store.RecentFailures(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if records == nil {
		records = []plan.Record{}
	}
	writeJSON(c, http.StatusOK, gin.H{"failures": records})
}

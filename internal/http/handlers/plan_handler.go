// README: Plan handlers for option listing and route projection.
package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"wayfinder/internal/modules/plan"
	"wayfinder/internal/types"
)

type PlanHandler struct {
	plan *plan.Service
}

func NewPlanHandler(svc *plan.Service) *PlanHandler {
	return &PlanHandler{plan: svc}
}

type pointReq struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

func (p pointReq) toPoint() types.Point {
	return types.Point{Lat: *p.Latitude, Lng: *p.Longitude}
}

type planReq struct {
	Origin      *pointReq  `json:"origin" binding:"required"`
	Destination *pointReq  `json:"destination" binding:"required"`
	DepartAt    *time.Time `json:"depart_at"`
}

func (r planReq) toCommand() plan.PlanCommand {
	return plan.PlanCommand{
		Origin:      r.Origin.toPoint(),
		Destination: r.Destination.toPoint(),
		When:        r.DepartAt,
	}
}

// Create handles POST /api/plan.
func (h *PlanHandler) Create(c *gin.Context) {
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

	writeJSON(c, http.StatusOK, gin.H{
		"state":   res.State,
		"options": res.Response.Options,
		"agents":  res.Response.Agents,
	})
}

// Routes handles POST /api/routes: the same planning pass, projected into
// presentation routes sorted fastest first.
func (h *PlanHandler) Routes(c *gin.Context) {
	var req planReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := req.toCommand()
	res, err := h.plan.Plan(c.Request.Context(), cmd)
	if err != nil {
		writePlanError(c, err)
		return
	}

	routes := make([]plan.Route, 0, len(res.Response.Options))
	for _, o := range res.Response.Options {
		routes = append(routes, plan.BuildRoute(o, cmd.Origin, cmd.Destination))
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].TotalDurationSeconds < routes[j].TotalDurationSeconds
	})

	writeJSON(c, http.StatusOK, gin.H{
		"state":  res.State,
		"routes": routes,
	})
}

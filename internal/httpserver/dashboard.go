package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type windowQuery struct {
	Days  int `form:"days"`
	Limit int `form:"limit"`
}

func (h *handlers) kpis(c *gin.Context) {
	k, err := h.dashboard.KPIs(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, k)
}

func (h *handlers) fastMoving(c *gin.Context) {
	var q windowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	rows, err := h.dashboard.FastMoving(c.Request.Context(), q.Days, q.Limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows, "count": len(rows)})
}

func (h *handlers) salesTrend(c *gin.Context) {
	var q windowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	rows, err := h.dashboard.SalesTrend(c.Request.Context(), q.Days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows, "count": len(rows)})
}

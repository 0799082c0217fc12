package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	salesvc "pharmacy-pos/internal/service/sale"
)

const dateLayout = "2006-01-02"

type listSalesQuery struct {
	Skip      int    `form:"skip"`
	Limit     int    `form:"limit"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

func (h *handlers) listSales(c *gin.Context) {
	var q listSalesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	in := salesvc.ListInput{Skip: q.Skip, Limit: q.Limit}
	var ok bool
	if in.Start, ok = parseDate(c, "start_date", q.StartDate); !ok {
		return
	}
	if in.End, ok = parseDate(c, "end_date", q.EndDate); !ok {
		return
	}
	sales, err := h.sales.List(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": sales, "count": len(sales), "offset": q.Skip})
}

func (h *handlers) getSale(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

func (h *handlers) todaySummary(c *gin.Context) {
	sum, err := h.sales.TodaySummary(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func parseDate(c *gin.Context, name, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		badRequest(c, "invalid "+name+", expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

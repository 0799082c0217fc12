package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	productsvc "pharmacy-pos/internal/service/product"
)

type listProductsQuery struct {
	Search          string `form:"search"`
	CategoryID      int64  `form:"category_id"`
	Skip            int    `form:"skip"`
	Limit           int    `form:"limit"`
	IncludeInactive bool   `form:"include_inactive"`
}

func (h *handlers) listProducts(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	products, err := h.products.List(c.Request.Context(), productsvc.ListInput{
		Search:          q.Search,
		CategoryID:      q.CategoryID,
		Skip:            q.Skip,
		Limit:           q.Limit,
		IncludeInactive: q.IncludeInactive,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products), "offset": q.Skip})
}

func (h *handlers) lowStock(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid limit")
			return
		}
		limit = v
	}
	products, err := h.products.LowStock(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) productByCode(c *gin.Context) {
	p, err := h.products.LookupCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) createProduct(c *gin.Context) {
	var in productsvc.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch productsvc.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, err := h.products.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// deactivateProduct hides the product from the till. Sale history keeps
// pointing at it, so the row is never removed.
func (h *handlers) deactivateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Deactivate(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in productsvc.AdjustInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, _ := principalFrom(c.Request.Context())
	adj, err := h.products.AdjustStock(c.Request.Context(), id, p.UserID, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, adj)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	categorysvc "pharmacy-pos/internal/service/category"
	suppliersvc "pharmacy-pos/internal/service/supplier"
)

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": categories, "count": len(categories)})
}

func (h *handlers) createCategory(c *gin.Context) {
	var in categorysvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *handlers) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in categorysvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	cat, err := h.categories.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *handlers) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pageQuery struct {
	Skip  int `form:"skip"`
	Limit int `form:"limit"`
}

func (h *handlers) listSuppliers(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	suppliers, err := h.suppliers.List(c.Request.Context(), q.Skip, q.Limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": suppliers, "count": len(suppliers), "offset": q.Skip})
}

func (h *handlers) getSupplier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	s, err := h.suppliers.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) createSupplier(c *gin.Context) {
	var in suppliersvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, err := h.suppliers.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *handlers) updateSupplier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in suppliersvc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	s, err := h.suppliers.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) deleteSupplier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.suppliers.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

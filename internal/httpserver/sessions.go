package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartsvc "pharmacy-pos/internal/service/cart"
	salesvc "pharmacy-pos/internal/service/sale"
)

func (h *handlers) openSession(c *gin.Context) {
	p, _ := principalFrom(c.Request.Context())
	snap, err := h.sessions.Open(c.Request.Context(), p.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *handlers) getSession(c *gin.Context) {
	p, _ := principalFrom(c.Request.Context())
	snap, err := h.sessions.Get(c.Request.Context(), p.UserID, c.Param("sessionId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) closeSession(c *gin.Context) {
	p, _ := principalFrom(c.Request.Context())
	if err := h.sessions.Close(c.Request.Context(), p.UserID, c.Param("sessionId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) updateSession(c *gin.Context) {
	var in cartsvc.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, _ := principalFrom(c.Request.Context())
	snap, err := h.sessions.Update(c.Request.Context(), p.UserID, c.Param("sessionId"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) checkout(c *gin.Context) {
	var in salesvc.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	p, _ := principalFrom(c.Request.Context())
	sale, err := h.sales.Checkout(c.Request.Context(), p, c.Param("sessionId"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

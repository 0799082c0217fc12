package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	notificationsvc "pharmacy-pos/internal/service/notification"
)

type listNotificationsQuery struct {
	IsRead *bool  `form:"is_read"`
	Type   string `form:"type"`
	Skip   int    `form:"skip"`
	Limit  int    `form:"limit"`
}

func (h *handlers) listNotifications(c *gin.Context) {
	var q listNotificationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}
	items, err := h.notifications.List(c.Request.Context(), notificationsvc.ListInput{
		IsRead: q.IsRead,
		Type:   q.Type,
		Skip:   q.Skip,
		Limit:  q.Limit,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items, "count": len(items), "offset": q.Skip})
}

func (h *handlers) unreadCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": n})
}

type markNotificationRequest struct {
	IsRead *bool `json:"isRead"`
}

func (h *handlers) markNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req markNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsRead == nil {
		badRequest(c, "isRead required")
		return
	}
	n, err := h.notifications.MarkRead(c.Request.Context(), id, *req.IsRead)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *handlers) markAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *handlers) deleteNotification(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) checkLowStock(c *gin.Context) {
	n, err := h.notifications.CheckLowStock(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": n})
}

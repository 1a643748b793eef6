package handler

import (
	"brokerdesk/internal/dto"
	"brokerdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationsHandler struct{ svc service.NotificationService }

func NewNotificationsHandler(svc service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{svc: svc}
}

func (h *NotificationsHandler) List(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var q dto.NotificationQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), u, q.UnreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *NotificationsHandler) Statistics(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.svc.Statistics(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.MarkRead(c.Request.Context(), u, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "notification marked read")
}

func (h *NotificationsHandler) MarkAllRead(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	n, err := h.svc.MarkAllRead(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, dto.MarkAllReadResponse{Updated: n}, "all notifications marked read")
}

func (h *NotificationsHandler) Create(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateNotificationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), u, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, resp, "notification sent")
}

func (h *NotificationsHandler) Delete(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), u, id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "notification deleted")
}

package handler

import (
	"net/http"

	"brokerdesk/internal/apierror"
	"brokerdesk/internal/dto"
	"brokerdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PropertiesHandler struct{ svc service.PropertyService }

func NewPropertiesHandler(svc service.PropertyService) *PropertiesHandler {
	return &PropertiesHandler{svc: svc}
}

func (h *PropertiesHandler) List(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var q dto.PropertyQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), u, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *PropertiesHandler) Mine(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.svc.Mine(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *PropertiesHandler) Team(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.svc.Team(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *PropertiesHandler) Statistics(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var owner uuid.UUID
	if raw := c.Query("ownerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.NewValidation(map[string]string{"ownerId": "uuid"}))
			return
		}
		owner = id
	}
	resp, err := h.svc.Statistics(c.Request.Context(), u, owner)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *PropertiesHandler) Get(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), u, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *PropertiesHandler) Create(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreatePropertyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), u, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, resp, "property created")
}

func (h *PropertiesHandler) Update(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePropertyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), u, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "property updated")
}

func (h *PropertiesHandler) Delete(c *gin.Context) {
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
	respondMessage(c, "property deleted")
}

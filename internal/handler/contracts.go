package handler

import (
	"net/http"

	"brokerdesk/internal/apierror"
	"brokerdesk/internal/dto"
	"brokerdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContractsHandler struct{ svc service.ContractService }

func NewContractsHandler(svc service.ContractService) *ContractsHandler {
	return &ContractsHandler{svc: svc}
}

func (h *ContractsHandler) List(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *ContractsHandler) Pending(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.svc.Pending(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

// Mine lists the caller's contracts, or those of ?userId= when visible.
func (h *ContractsHandler) Mine(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var userID uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.NewValidation(map[string]string{"userId": "uuid"}))
			return
		}
		userID = id
	}
	resp, err := h.svc.Mine(c.Request.Context(), u, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *ContractsHandler) Get(c *gin.Context) {
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

// Create godoc
// @Summary Upload a contract; it starts pending
// @Tags contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateContractRequest true "Contract"
// @Success 201 {object} dto.ContractResponse
// @Failure 400 {object} apierror.ValidationError
// @Router /v1/contracts [post]
func (h *ContractsHandler) Create(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateContractRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), u, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, resp, "contract uploaded")
}

// Update godoc
// @Summary Edit a pending contract, or run a transition when status is set
// @Tags contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Param body body dto.UpdateContractRequest true "Changes"
// @Success 200 {object} dto.ContractResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/contracts/{id} [put]
func (h *ContractsHandler) Update(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateContractRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), u, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "contract updated")
}

func (h *ContractsHandler) Approve(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ApproveContractRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Approve(c.Request.Context(), u, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "contract approved")
}

func (h *ContractsHandler) Reject(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.RejectContractRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reject(c.Request.Context(), u, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "contract rejected")
}

func (h *ContractsHandler) Pay(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.PayContractRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.MarkPaid(c.Request.Context(), u, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "commission marked paid")
}

// ── Reporting ────────────────────────────────────────────────────────────────

// Commissions godoc
// @Summary Commission totals per agent over the visible contracts
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses (default approved,paid)"
// @Param includeUnset query bool false "Count contracts without a recorded commission"
// @Router /v1/contracts/commissions [get]
func (h *ContractsHandler) Commissions(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var q dto.CommissionQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.Commissions(c.Request.Context(), u, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *ContractsHandler) AgentCommissions(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "userId")
	if !ok {
		return
	}
	resp, err := h.svc.AgentCommissions(c.Request.Context(), u, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *ContractsHandler) Statistics(c *gin.Context) {
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

// Statement godoc
// @Summary Download the commission statement of a paid contract
// @Tags contracts
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Failure 409 {object} apierror.APIError
// @Router /v1/contracts/{id}/statement [get]
func (h *ContractsHandler) Statement(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	path, name, err := h.svc.Statement(c.Request.Context(), u, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, name)
}

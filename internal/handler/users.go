package handler

import (
	"brokerdesk/internal/dto"
	"brokerdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type UsersHandler struct {
	svc       service.UserService
	contracts service.ContractService
}

func NewUsersHandler(svc service.UserService, contracts service.ContractService) *UsersHandler {
	return &UsersHandler{svc: svc, contracts: contracts}
}

// List godoc
// @Summary List the users visible to the caller
// @Tags users
// @Produce json
// @Security BearerAuth
// @Router /v1/users [get]
func (h *UsersHandler) List(c *gin.Context) {
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

func (h *UsersHandler) Get(c *gin.Context) {
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
// @Summary Create a user; the account waits for super_admin approval
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateUserRequest true "New user"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} apierror.ValidationError
// @Failure 403 {object} apierror.APIError
// @Router /v1/users [post]
func (h *UsersHandler) Create(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), u, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, resp, "user created, awaiting approval")
}

func (h *UsersHandler) Update(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), u, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "user updated")
}

func (h *UsersHandler) Delete(c *gin.Context) {
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
	respondMessage(c, "user deleted")
}

func (h *UsersHandler) Team(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Team(c.Request.Context(), u, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *UsersHandler) Hierarchy(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Hierarchy(c.Request.Context(), u, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

func (h *UsersHandler) Statistics(c *gin.Context) {
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

// Performance godoc
// @Summary Sales performance of a user; per-contract lines only for direct managers
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Router /v1/users/{id}/performance [get]
func (h *UsersHandler) Performance(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.contracts.Performance(c.Request.Context(), u, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

// ── Approvals ────────────────────────────────────────────────────────────────

func (h *UsersHandler) PendingApprovals(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	resp, err := h.svc.PendingApprovals(c.Request.Context(), u)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, resp)
}

// DecideApproval godoc
// @Summary Approve or reject a pending user; the reviewer is the caller
// @Tags approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Approval request ID"
// @Param body body dto.ApprovalDecisionRequest true "Decision"
// @Success 200 {object} dto.ApprovalResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/approvals/{id} [put]
func (h *UsersHandler) DecideApproval(c *gin.Context) {
	u, ok := actor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ApprovalDecisionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.DecideApproval(c.Request.Context(), u, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondUpdated(c, resp, "approval request "+resp.Status)
}

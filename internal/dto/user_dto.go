package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateUserRequest struct {
	Email         string  `json:"email"         validate:"required,email"`
	Name          string  `json:"name"          validate:"required,min=2,max=100"`
	Password      string  `json:"password"      validate:"required,min=8"`
	Role          string  `json:"role"          validate:"required,oneof=super_admin education_manager sales_manager agent"`
	ManagerID     *string `json:"managerId"     validate:"omitempty,uuid"`
	Phone         string  `json:"phone"         validate:"max=32"`
	NationalID    string  `json:"nationalId"    validate:"max=32"`
	HomeAddress   string  `json:"homeAddress"   validate:"max=255"`
	MaritalStatus string  `json:"maritalStatus" validate:"omitempty,oneof=single married divorced widowed"`
	Description   string  `json:"description"   validate:"max=1000"`
	Avatar        string  `json:"avatar"        validate:"omitempty,url"`
}

// UpdateUserRequest is a partial update: nil fields are left unchanged. An
// empty managerId removes the manager edge.
type UpdateUserRequest struct {
	Name          *string `json:"name"          validate:"omitempty,min=2,max=100"`
	Email         *string `json:"email"         validate:"omitempty,email"`
	Password      *string `json:"password"      validate:"omitempty,min=8"`
	Role          *string `json:"role"          validate:"omitempty,oneof=super_admin education_manager sales_manager agent"`
	ManagerID     *string `json:"managerId"     validate:"omitempty,uuid"`
	Status        *string `json:"status"        validate:"omitempty,oneof=active inactive pending_approval"`
	Phone         *string `json:"phone"         validate:"omitempty,max=32"`
	NationalID    *string `json:"nationalId"    validate:"omitempty,max=32"`
	HomeAddress   *string `json:"homeAddress"   validate:"omitempty,max=255"`
	MaritalStatus *string `json:"maritalStatus" validate:"omitempty,oneof=single married divorced widowed"`
	Description   *string `json:"description"   validate:"omitempty,max=1000"`
	Avatar        *string `json:"avatar"        validate:"omitempty,url"`
}

// ApprovalDecisionRequest is the body of PUT /v1/approvals/:id. Reviewer
// identity always comes from the token.
type ApprovalDecisionRequest struct {
	Status      string `json:"status"      validate:"required,oneof=approved rejected"`
	ReviewNotes string `json:"reviewNotes" validate:"max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UserResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Avatar        string    `json:"avatar,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	NationalID    string    `json:"nationalId,omitempty"`
	HomeAddress   string    `json:"homeAddress,omitempty"`
	MaritalStatus string    `json:"maritalStatus,omitempty"`
	Description   string    `json:"description,omitempty"`
	Role          string    `json:"role"`
	ManagerID     *string   `json:"managerId"`
	Status        string    `json:"status"`
	CreatedBy     *string   `json:"createdBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type TeamResponse struct {
	Manager UserResponse   `json:"manager"`
	Members []UserResponse `json:"members"`
	Count   int            `json:"count"`
}

// HierarchyNode is one user in the org tree returned by GET /v1/users/hierarchy/:id.
type HierarchyNode struct {
	User     UserResponse    `json:"user"`
	Level    int             `json:"level"`
	Children []HierarchyNode `json:"children"`
}

type ApprovalResponse struct {
	ID                     string     `json:"id"`
	RequestedUserID        string     `json:"requestedUserId"`
	RequestedUserName      string     `json:"requestedUserName"`
	RequestedUserEmail     string     `json:"requestedUserEmail"`
	RequestedUserRole      string     `json:"requestedUserRole"`
	RequestedByManagerID   string     `json:"requestedByManagerId"`
	RequestedByManagerName string     `json:"requestedByManagerName"`
	RequestedByManagerRole string     `json:"requestedByManagerRole"`
	Status                 string     `json:"status"`
	RequestedAt            time.Time  `json:"requestedAt"`
	ReviewedBy             *string    `json:"reviewedBy,omitempty"`
	ReviewedByName         string     `json:"reviewedByName,omitempty"`
	ReviewedAt             *time.Time `json:"reviewedAt,omitempty"`
	ReviewNotes            string     `json:"reviewNotes,omitempty"`
}

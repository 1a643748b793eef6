package dto

import (
	"time"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / Query ─────────────────────────────────────────────────────────

// ContractFilter narrows repository listings. Zero values match everything.
type ContractFilter struct {
	Statuses []model.ContractStatus
	AgentIDs []uuid.UUID
}

// CommissionQuery is bound from the query string of GET /v1/contracts/commissions.
type CommissionQuery struct {
	Status       string `form:"status"` // comma separated, default approved,paid
	IncludeUnset *bool  `form:"includeUnset"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateContractRequest struct {
	PropertyID         *string         `json:"propertyId"         validate:"omitempty,uuid"`
	PropertyTitle      string          `json:"propertyTitle"      validate:"max=200"`
	CustomerName       string          `json:"customerName"       validate:"required,min=1,max=200"`
	CustomerPhone      string          `json:"customerPhone"      validate:"max=32"`
	CustomerEmail      string          `json:"customerEmail"      validate:"omitempty,email"`
	CustomerNationalID string          `json:"customerNationalId" validate:"max=32"`
	SellerName         string          `json:"sellerName"         validate:"required,min=1,max=200"`
	SellerPhone        string          `json:"sellerPhone"        validate:"max=32"`
	FinalPrice         decimal.Decimal `json:"finalPrice"         validate:"required,gt=0"`
	ContractDate       *time.Time      `json:"contractDate"`
	SettlementDate     *time.Time      `json:"settlementDate"`
	ContractDocument   string          `json:"contractDocument"   validate:"required,min=1"`
}

// UpdateContractRequest is the body of PUT /v1/contracts/:id. When Status is
// present the request is a transition and only the transition fields are
// read; otherwise it is a partial edit of a pending contract.
type UpdateContractRequest struct {
	PropertyID         *string          `json:"propertyId"         validate:"omitempty,uuid"`
	PropertyTitle      *string          `json:"propertyTitle"      validate:"omitempty,max=200"`
	CustomerName       *string          `json:"customerName"       validate:"omitempty,max=200"`
	CustomerPhone      *string          `json:"customerPhone"      validate:"omitempty,max=32"`
	CustomerEmail      *string          `json:"customerEmail"      validate:"omitempty,email"`
	CustomerNationalID *string          `json:"customerNationalId" validate:"omitempty,max=32"`
	SellerName         *string          `json:"sellerName"         validate:"omitempty,max=200"`
	SellerPhone        *string          `json:"sellerPhone"        validate:"omitempty,max=32"`
	FinalPrice         *decimal.Decimal `json:"finalPrice"`
	ContractDate       *time.Time       `json:"contractDate"`
	SettlementDate     *time.Time       `json:"settlementDate"`
	ContractDocument   *string          `json:"contractDocument"`

	Status           *string          `json:"status"           validate:"omitempty,oneof=approved rejected paid"`
	StatusNotes      string           `json:"statusNotes"      validate:"max=1000"`
	CommissionAmount *decimal.Decimal `json:"commissionAmount"`
	CommissionNotes  string           `json:"commissionNotes"  validate:"max=1000"`
	PaymentReference string           `json:"paymentReference" validate:"max=100"`
}

type ApproveContractRequest struct {
	CommissionAmount decimal.Decimal `json:"commissionAmount" validate:"required,gt=0"`
	CommissionNotes  string          `json:"commissionNotes"  validate:"max=1000"`
	ReviewNotes      string          `json:"reviewNotes"      validate:"max=1000"`
}

type RejectContractRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=1000"`
}

type PayContractRequest struct {
	PaymentReference string `json:"paymentReference" validate:"max=100"`
	Notes            string `json:"notes"            validate:"max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StatusChangeResponse struct {
	Status        string    `json:"status"`
	ChangedBy     string    `json:"changedBy"`
	ChangedByName string    `json:"changedByName"`
	ChangedAt     time.Time `json:"changedAt"`
	Notes         string    `json:"notes,omitempty"`
}

// ContractResponse carries customer contact fields only for the owning agent;
// for everyone else they are empty and CustomerRedacted is true.
type ContractResponse struct {
	ID            string  `json:"id"`
	AgentID       string  `json:"agentId"`
	AgentName     string  `json:"agentName"`
	AgentRole     string  `json:"agentRole"`
	PropertyID    *string `json:"propertyId"`
	PropertyTitle string  `json:"propertyTitle,omitempty"`

	CustomerName       string `json:"customerName"`
	CustomerPhone      string `json:"customerPhone"`
	CustomerEmail      string `json:"customerEmail"`
	CustomerNationalID string `json:"customerNationalId"`
	CustomerRedacted   bool   `json:"customerRedacted"`

	SellerName  string `json:"sellerName"`
	SellerPhone string `json:"sellerPhone,omitempty"`

	FinalPrice decimal.Decimal `json:"finalPrice"`

	CommissionAmount        *decimal.Decimal `json:"commissionAmount"`
	CommissionNotes         string           `json:"commissionNotes,omitempty"`
	CommissionEnteredBy     *string          `json:"commissionEnteredBy,omitempty"`
	CommissionEnteredByName string           `json:"commissionEnteredByName,omitempty"`
	CommissionEnteredAt     *time.Time       `json:"commissionEnteredAt,omitempty"`

	ContractDate     time.Time  `json:"contractDate"`
	SettlementDate   *time.Time `json:"settlementDate,omitempty"`
	ContractDocument string     `json:"contractDocument"`
	UploadedAt       time.Time  `json:"uploadedAt"`

	Status        string                 `json:"status"`
	StatusHistory []StatusChangeResponse `json:"statusHistory"`

	ReviewedBy     *string    `json:"reviewedBy,omitempty"`
	ReviewedByName string     `json:"reviewedByName,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
	ReviewNotes    string     `json:"reviewNotes,omitempty"`

	PaidAt           *time.Time `json:"paidAt,omitempty"`
	PaymentReference string     `json:"paymentReference,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

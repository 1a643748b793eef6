package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractStatus string

const (
	ContractPending  ContractStatus = "pending"
	ContractApproved ContractStatus = "approved"
	ContractRejected ContractStatus = "rejected"
	ContractPaid     ContractStatus = "paid"
)

// Contract is a completed property transaction awaiting financial approval.
// Commission fields are filled only by the approval step and never derived.
type Contract struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AgentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AgentName string    `gorm:"not null"`
	AgentRole Role      `gorm:"type:varchar(32);not null"`

	PropertyID    *uuid.UUID `gorm:"type:uuid;index"`
	PropertyTitle string

	CustomerName       string `gorm:"not null"`
	CustomerPhone      string
	CustomerEmail      string
	CustomerNationalID string

	SellerName  string `gorm:"not null"`
	SellerPhone string

	FinalPrice decimal.Decimal `gorm:"type:decimal(16,2);not null"`

	CommissionAmount        *decimal.Decimal `gorm:"type:decimal(16,2)"`
	CommissionNotes         string
	CommissionEnteredBy     *uuid.UUID `gorm:"type:uuid"`
	CommissionEnteredByName string
	CommissionEnteredAt     *time.Time

	ContractDate   time.Time `gorm:"not null"`
	SettlementDate *time.Time

	ContractDocument string    `gorm:"not null"`
	UploadedAt       time.Time `gorm:"not null"`

	Status        ContractStatus         `gorm:"type:varchar(16);not null;default:pending;index"`
	StatusHistory []ContractStatusChange `gorm:"foreignKey:ContractID;constraint:OnDelete:CASCADE"`

	ReviewedBy     *uuid.UUID `gorm:"type:uuid"`
	ReviewedByName string
	ReviewedAt     *time.Time
	ReviewNotes    string

	PaidAt           *time.Time
	PaymentReference string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Contract) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasCommission reports whether a commission amount has been recorded.
func (c *Contract) HasCommission() bool { return c.CommissionAmount != nil }

// ContractStatusChange is one entry of a contract's append-only audit trail.
// Seq orders the entries; rows are only ever inserted.
type ContractStatusChange struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ContractID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_contract_seq"`
	Seq           int            `gorm:"not null;uniqueIndex:idx_contract_seq"`
	Status        ContractStatus `gorm:"type:varchar(16);not null"`
	ChangedBy     uuid.UUID      `gorm:"type:uuid;not null"`
	ChangedByName string         `gorm:"not null"`
	ChangedAt     time.Time      `gorm:"not null"`
	Notes         string
}

func (s *ContractStatusChange) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

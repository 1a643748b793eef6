package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// UserApprovalRequest gates a newly created user until a super_admin decides on it.
// It is one-to-one with the requested user.
type UserApprovalRequest struct {
	ID                     uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RequestedUserID        uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	RequestedUserName      string         `gorm:"not null"`
	RequestedUserEmail     string         `gorm:"not null"`
	RequestedUserRole      Role           `gorm:"type:varchar(32);not null"`
	RequestedByManagerID   uuid.UUID      `gorm:"type:uuid;not null"`
	RequestedByManagerName string         `gorm:"not null"`
	RequestedByManagerRole Role           `gorm:"type:varchar(32);not null"`
	Status                 ApprovalStatus `gorm:"type:varchar(16);not null;default:pending;index"`
	RequestedAt            time.Time      `gorm:"not null"`
	ReviewedBy             *uuid.UUID     `gorm:"type:uuid"`
	ReviewedByName         string
	ReviewedAt             *time.Time
	ReviewNotes            string
}

func (a *UserApprovalRequest) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Resolved reports whether a decision has already been recorded.
func (a *UserApprovalRequest) Resolved() bool { return a.Status != ApprovalPending }

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationUserApproval   NotificationType = "user_approval"
	NotificationContractReview NotificationType = "contract_review"
	NotificationPropertyUpdate NotificationType = "property_update"
	NotificationCommissionPaid NotificationType = "commission_paid"
	NotificationSystem         NotificationType = "system"
)

type Notification struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Type          NotificationType `gorm:"type:varchar(32);not null;index"`
	Title         string           `gorm:"not null"`
	Message       string           `gorm:"not null"`
	RecipientID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	RecipientName string
	SenderID      *uuid.UUID `gorm:"type:uuid"`
	SenderName    string
	IsRead        bool `gorm:"not null;default:false"`
	CreatedAt     time.Time
	ReadAt        *time.Time
	ActionURL     string
	Metadata      map[string]any `gorm:"serializer:json"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

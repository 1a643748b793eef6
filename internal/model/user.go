package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the position of a user in the brokerage hierarchy.
type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleEducationManager Role = "education_manager"
	RoleSalesManager     Role = "sales_manager"
	RoleAgent            Role = "agent"
)

// Roles lists every known role from highest to lowest rank.
var Roles = []Role{RoleSuperAdmin, RoleEducationManager, RoleSalesManager, RoleAgent}

type UserStatus string

const (
	UserActive          UserStatus = "active"
	UserPendingApproval UserStatus = "pending_approval"
	UserInactive        UserStatus = "inactive"
)

// User is a member of the brokerage. ManagerID points to the direct manager;
// the manager edges form a forest rooted at users without a manager.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email         string     `gorm:"uniqueIndex;not null"`
	Name          string     `gorm:"not null"`
	Avatar        string
	Phone         string
	NationalID    string
	HomeAddress   string
	MaritalStatus string     `gorm:"type:varchar(16)"`
	Description   string
	PasswordHash  string     `gorm:"not null"`
	Role          Role       `gorm:"type:varchar(32);not null"`
	ManagerID     *uuid.UUID `gorm:"type:uuid;index"`
	Status        UserStatus `gorm:"type:varchar(32);not null;default:pending_approval"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the user may sign in and act.
func (u *User) IsActive() bool { return u.Status == UserActive }

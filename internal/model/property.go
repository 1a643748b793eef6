package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PropertyType string

const (
	PropertyApartment  PropertyType = "apartment"
	PropertyVilla      PropertyType = "villa"
	PropertyTownhouse  PropertyType = "townhouse"
	PropertyLand       PropertyType = "land"
	PropertyCommercial PropertyType = "commercial"
	PropertyOther      PropertyType = "other"
)

type PropertyStatus string

const (
	PropertyAvailable PropertyStatus = "available"
	PropertyPending   PropertyStatus = "pending"
	PropertySold      PropertyStatus = "sold"
	PropertyOffMarket PropertyStatus = "off_market"
)

// Property is a listing owned by a user. ContractID is set once it is sold.
type Property struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerName string    `gorm:"not null"`
	OwnerRole Role      `gorm:"type:varchar(32);not null"`

	Title        string         `gorm:"not null"`
	Description  string
	PropertyType PropertyType   `gorm:"type:varchar(16);not null;index"`
	Status       PropertyStatus `gorm:"type:varchar(16);not null;default:available;index"`

	Address    string `gorm:"not null"`
	City       string `gorm:"not null"`
	Province   string
	PostalCode string

	Price decimal.Decimal `gorm:"type:decimal(16,2);not null"`

	Bedrooms      *int
	Bathrooms     *int
	ParkingSpaces *int
	AreaSqm       *float64
	YearBuilt     *int

	Images         []string `gorm:"serializer:json"`
	VirtualTourURL string

	ContractID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *Property) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

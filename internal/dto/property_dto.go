package dto

import (
	"time"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ─── Filter / Query ─────────────────────────────────────────────────────────

// PropertyQuery is bound from the query string of GET /v1/properties.
type PropertyQuery struct {
	Status       string `form:"status"       validate:"omitempty,oneof=available pending sold off_market"`
	PropertyType string `form:"propertyType" validate:"omitempty,oneof=apartment villa townhouse land commercial other"`
	OwnerID      string `form:"ownerId"      validate:"omitempty,uuid"`
}

// PropertyFilter narrows repository listings. Zero values match everything.
type PropertyFilter struct {
	Status       model.PropertyStatus
	PropertyType model.PropertyType
	OwnerIDs     []uuid.UUID
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreatePropertyRequest struct {
	Title          string          `json:"title"          validate:"required,min=3,max=200"`
	Description    string          `json:"description"    validate:"max=5000"`
	PropertyType   string          `json:"propertyType"   validate:"required,oneof=apartment villa townhouse land commercial other"`
	Status         string          `json:"status"         validate:"omitempty,oneof=available pending sold off_market"`
	Address        string          `json:"address"        validate:"required,max=255"`
	City           string          `json:"city"           validate:"required,max=100"`
	Province       string          `json:"province"       validate:"max=100"`
	PostalCode     string          `json:"postalCode"     validate:"max=16"`
	Price          decimal.Decimal `json:"price"          validate:"required,gt=0"`
	Bedrooms       *int            `json:"bedrooms"       validate:"omitempty,min=0,max=100"`
	Bathrooms      *int            `json:"bathrooms"      validate:"omitempty,min=0,max=100"`
	ParkingSpaces  *int            `json:"parkingSpaces"  validate:"omitempty,min=0,max=100"`
	AreaSqm        *float64        `json:"areaSqm"        validate:"omitempty,gt=0"`
	YearBuilt      *int            `json:"yearBuilt"      validate:"omitempty,min=1800,max=2100"`
	Images         []string        `json:"images"         validate:"max=50,dive,url"`
	VirtualTourURL string          `json:"virtualTourUrl" validate:"omitempty,url"`
}

// UpdatePropertyRequest is a partial update. The owner cannot be changed.
type UpdatePropertyRequest struct {
	Title          *string          `json:"title"          validate:"omitempty,min=3,max=200"`
	Description    *string          `json:"description"    validate:"omitempty,max=5000"`
	PropertyType   *string          `json:"propertyType"   validate:"omitempty,oneof=apartment villa townhouse land commercial other"`
	Status         *string          `json:"status"         validate:"omitempty,oneof=available pending sold off_market"`
	Address        *string          `json:"address"        validate:"omitempty,max=255"`
	City           *string          `json:"city"           validate:"omitempty,max=100"`
	Province       *string          `json:"province"       validate:"omitempty,max=100"`
	PostalCode     *string          `json:"postalCode"     validate:"omitempty,max=16"`
	Price          *decimal.Decimal `json:"price"`
	Bedrooms       *int             `json:"bedrooms"       validate:"omitempty,min=0,max=100"`
	Bathrooms      *int             `json:"bathrooms"      validate:"omitempty,min=0,max=100"`
	ParkingSpaces  *int             `json:"parkingSpaces"  validate:"omitempty,min=0,max=100"`
	AreaSqm        *float64         `json:"areaSqm"        validate:"omitempty,gt=0"`
	YearBuilt      *int             `json:"yearBuilt"      validate:"omitempty,min=1800,max=2100"`
	Images         []string         `json:"images"         validate:"omitempty,max=50,dive,url"`
	VirtualTourURL *string          `json:"virtualTourUrl" validate:"omitempty,url"`
	ContractID     *string          `json:"contractId"     validate:"omitempty,uuid"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PropertyResponse struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"ownerId"`
	OwnerName      string          `json:"ownerName"`
	OwnerRole      string          `json:"ownerRole"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	PropertyType   string          `json:"propertyType"`
	Status         string          `json:"status"`
	Address        string          `json:"address"`
	City           string          `json:"city"`
	Province       string          `json:"province,omitempty"`
	PostalCode     string          `json:"postalCode,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Bedrooms       *int            `json:"bedrooms,omitempty"`
	Bathrooms      *int            `json:"bathrooms,omitempty"`
	ParkingSpaces  *int            `json:"parkingSpaces,omitempty"`
	AreaSqm        *float64        `json:"areaSqm,omitempty"`
	YearBuilt      *int            `json:"yearBuilt,omitempty"`
	Images         []string        `json:"images"`
	VirtualTourURL string          `json:"virtualTourUrl,omitempty"`
	ContractID     *string         `json:"contractId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

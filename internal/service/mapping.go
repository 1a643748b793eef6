package service

import (
	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"
	"brokerdesk/internal/permission"

	"github.com/google/uuid"
)

func idPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toUserResponse(u model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		Name:          u.Name,
		Avatar:        u.Avatar,
		Phone:         u.Phone,
		NationalID:    u.NationalID,
		HomeAddress:   u.HomeAddress,
		MaritalStatus: u.MaritalStatus,
		Description:   u.Description,
		Role:          string(u.Role),
		ManagerID:     idPtr(u.ManagerID),
		Status:        string(u.Status),
		CreatedBy:     idPtr(u.CreatedBy),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toUserResponses(users []model.User) []dto.UserResponse {
	out := make([]dto.UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	return out
}

func toApprovalResponse(a model.UserApprovalRequest) dto.ApprovalResponse {
	return dto.ApprovalResponse{
		ID:                     a.ID.String(),
		RequestedUserID:        a.RequestedUserID.String(),
		RequestedUserName:      a.RequestedUserName,
		RequestedUserEmail:     a.RequestedUserEmail,
		RequestedUserRole:      string(a.RequestedUserRole),
		RequestedByManagerID:   a.RequestedByManagerID.String(),
		RequestedByManagerName: a.RequestedByManagerName,
		RequestedByManagerRole: string(a.RequestedByManagerRole),
		Status:                 string(a.Status),
		RequestedAt:            a.RequestedAt,
		ReviewedBy:             idPtr(a.ReviewedBy),
		ReviewedByName:         a.ReviewedByName,
		ReviewedAt:             a.ReviewedAt,
		ReviewNotes:            a.ReviewNotes,
	}
}

// toContractResponse blanks customer contact data unless the actor is the
// owning agent.
func toContractResponse(c model.Contract, actor model.User) dto.ContractResponse {
	resp := dto.ContractResponse{
		ID:                      c.ID.String(),
		AgentID:                 c.AgentID.String(),
		AgentName:               c.AgentName,
		AgentRole:               string(c.AgentRole),
		PropertyID:              idPtr(c.PropertyID),
		PropertyTitle:           c.PropertyTitle,
		SellerName:              c.SellerName,
		SellerPhone:             c.SellerPhone,
		FinalPrice:              c.FinalPrice,
		CommissionAmount:        c.CommissionAmount,
		CommissionNotes:         c.CommissionNotes,
		CommissionEnteredBy:     idPtr(c.CommissionEnteredBy),
		CommissionEnteredByName: c.CommissionEnteredByName,
		CommissionEnteredAt:     c.CommissionEnteredAt,
		ContractDate:            c.ContractDate,
		SettlementDate:          c.SettlementDate,
		ContractDocument:        c.ContractDocument,
		UploadedAt:              c.UploadedAt,
		Status:                  string(c.Status),
		StatusHistory:           make([]dto.StatusChangeResponse, len(c.StatusHistory)),
		ReviewedBy:              idPtr(c.ReviewedBy),
		ReviewedByName:          c.ReviewedByName,
		ReviewedAt:              c.ReviewedAt,
		ReviewNotes:             c.ReviewNotes,
		PaidAt:                  c.PaidAt,
		PaymentReference:        c.PaymentReference,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
	}
	if permission.CanViewCustomerData(actor, c) {
		resp.CustomerName = c.CustomerName
		resp.CustomerPhone = c.CustomerPhone
		resp.CustomerEmail = c.CustomerEmail
		resp.CustomerNationalID = c.CustomerNationalID
	} else {
		resp.CustomerRedacted = true
	}
	for i, h := range c.StatusHistory {
		resp.StatusHistory[i] = dto.StatusChangeResponse{
			Status:        string(h.Status),
			ChangedBy:     h.ChangedBy.String(),
			ChangedByName: h.ChangedByName,
			ChangedAt:     h.ChangedAt,
			Notes:         h.Notes,
		}
	}
	return resp
}

func toPropertyResponse(p model.Property) dto.PropertyResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return dto.PropertyResponse{
		ID:             p.ID.String(),
		OwnerID:        p.OwnerID.String(),
		OwnerName:      p.OwnerName,
		OwnerRole:      string(p.OwnerRole),
		Title:          p.Title,
		Description:    p.Description,
		PropertyType:   string(p.PropertyType),
		Status:         string(p.Status),
		Address:        p.Address,
		City:           p.City,
		Province:       p.Province,
		PostalCode:     p.PostalCode,
		Price:          p.Price,
		Bedrooms:       p.Bedrooms,
		Bathrooms:      p.Bathrooms,
		ParkingSpaces:  p.ParkingSpaces,
		AreaSqm:        p.AreaSqm,
		YearBuilt:      p.YearBuilt,
		Images:         images,
		VirtualTourURL: p.VirtualTourURL,
		ContractID:     idPtr(p.ContractID),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toNotificationResponse(n model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:            n.ID.String(),
		Type:          string(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		RecipientID:   n.RecipientID.String(),
		RecipientName: n.RecipientName,
		SenderID:      idPtr(n.SenderID),
		SenderName:    n.SenderName,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt,
		ReadAt:        n.ReadAt,
		ActionURL:     n.ActionURL,
		Metadata:      n.Metadata,
	}
}

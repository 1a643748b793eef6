package workflow

import (
	"brokerdesk/internal/model"

	"github.com/shopspring/decimal"
)

type AgentTally struct {
	AgentName  string          `json:"agentName"`
	Count      int             `json:"count"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

type ContractStatistics struct {
	TotalContracts    int                   `json:"totalContracts"`
	PendingContracts  int                   `json:"pendingContracts"`
	ApprovedContracts int                   `json:"approvedContracts"`
	RejectedContracts int                   `json:"rejectedContracts"`
	PaidContracts     int                   `json:"paidContracts"`
	TotalValue        decimal.Decimal       `json:"totalValue"`
	TotalCommissions  decimal.Decimal       `json:"totalCommissions"`
	ByAgent           map[string]AgentTally `json:"byAgent"`
}

// ContractStats recomputes every figure from the given contracts.
// TotalCommissions only counts approved and paid contracts with a commission.
func ContractStats(contracts []model.Contract) ContractStatistics {
	st := ContractStatistics{ByAgent: map[string]AgentTally{}}
	for _, c := range contracts {
		st.TotalContracts++
		st.TotalValue = st.TotalValue.Add(c.FinalPrice)
		switch c.Status {
		case model.ContractPending:
			st.PendingContracts++
		case model.ContractApproved:
			st.ApprovedContracts++
		case model.ContractRejected:
			st.RejectedContracts++
		case model.ContractPaid:
			st.PaidContracts++
		}
		if (c.Status == model.ContractApproved || c.Status == model.ContractPaid) && c.CommissionAmount != nil {
			st.TotalCommissions = st.TotalCommissions.Add(*c.CommissionAmount)
		}

		key := c.AgentID.String()
		tally := st.ByAgent[key]
		tally.AgentName = c.AgentName
		tally.Count++
		tally.TotalValue = tally.TotalValue.Add(c.FinalPrice)
		st.ByAgent[key] = tally
	}
	return st
}

type OwnerTally struct {
	OwnerName  string          `json:"ownerName"`
	Count      int             `json:"count"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

type PropertyStatistics struct {
	TotalProperties     int                        `json:"totalProperties"`
	AvailableProperties int                        `json:"availableProperties"`
	PendingProperties   int                        `json:"pendingProperties"`
	SoldProperties      int                        `json:"soldProperties"`
	OffMarketProperties int                        `json:"offMarketProperties"`
	TotalValue          decimal.Decimal            `json:"totalValue"`
	AveragePrice        decimal.Decimal            `json:"averagePrice"`
	ByType              map[model.PropertyType]int `json:"byType"`
	ByOwner             map[string]OwnerTally      `json:"byOwner"`
}

var propertyTypes = []model.PropertyType{
	model.PropertyApartment, model.PropertyVilla, model.PropertyTownhouse,
	model.PropertyLand, model.PropertyCommercial, model.PropertyOther,
}

func PropertyStats(properties []model.Property) PropertyStatistics {
	st := PropertyStatistics{
		ByType:  make(map[model.PropertyType]int, len(propertyTypes)),
		ByOwner: map[string]OwnerTally{},
	}
	for _, t := range propertyTypes {
		st.ByType[t] = 0
	}
	for _, p := range properties {
		st.TotalProperties++
		st.TotalValue = st.TotalValue.Add(p.Price)
		switch p.Status {
		case model.PropertyAvailable:
			st.AvailableProperties++
		case model.PropertyPending:
			st.PendingProperties++
		case model.PropertySold:
			st.SoldProperties++
		case model.PropertyOffMarket:
			st.OffMarketProperties++
		}
		st.ByType[p.PropertyType]++

		key := p.OwnerID.String()
		tally := st.ByOwner[key]
		tally.OwnerName = p.OwnerName
		tally.Count++
		tally.TotalValue = tally.TotalValue.Add(p.Price)
		st.ByOwner[key] = tally
	}
	if st.TotalProperties > 0 {
		st.AveragePrice = st.TotalValue.Div(decimal.NewFromInt(int64(st.TotalProperties))).Round(2)
	}
	return st
}

type UserStatistics struct {
	TotalUsers      int                `json:"totalUsers"`
	ActiveUsers     int                `json:"activeUsers"`
	PendingApproval int                `json:"pendingApproval"`
	InactiveUsers   int                `json:"inactiveUsers"`
	ByRole          map[model.Role]int `json:"byRole"`
}

func UserStats(users []model.User) UserStatistics {
	st := UserStatistics{ByRole: make(map[model.Role]int, len(model.Roles))}
	for _, r := range model.Roles {
		st.ByRole[r] = 0
	}
	for _, u := range users {
		st.TotalUsers++
		switch u.Status {
		case model.UserActive:
			st.ActiveUsers++
		case model.UserPendingApproval:
			st.PendingApproval++
		case model.UserInactive:
			st.InactiveUsers++
		}
		st.ByRole[u.Role]++
	}
	return st
}

type NotificationStatistics struct {
	TotalNotifications  int                            `json:"totalNotifications"`
	UnreadNotifications int                            `json:"unreadNotifications"`
	ByType              map[model.NotificationType]int `json:"byType"`
}

func NotificationStats(notifications []model.Notification) NotificationStatistics {
	st := NotificationStatistics{ByType: map[model.NotificationType]int{}}
	for _, n := range notifications {
		st.TotalNotifications++
		if !n.IsRead {
			st.UnreadNotifications++
		}
		st.ByType[n.Type]++
	}
	return st
}

// SalesPerformance summarises one user's own contracts and listings.
type SalesPerformance struct {
	TotalSales         decimal.Decimal  `json:"totalSales"`
	TotalCommission    decimal.Decimal  `json:"totalCommission"`
	ActiveProperties   int              `json:"activeProperties"`
	CompletedContracts int              `json:"completedContracts"`
	PendingContracts   int              `json:"pendingContracts"`
	Contracts          []CommissionLine `json:"contracts,omitempty"`
}

// Performance computes a user's figures. Completed means approved or paid;
// only completed contracts count toward sales and commission.
func Performance(contracts []model.Contract, properties []model.Property, detailed bool) SalesPerformance {
	var p SalesPerformance
	for _, c := range contracts {
		switch c.Status {
		case model.ContractPending:
			p.PendingContracts++
		case model.ContractApproved, model.ContractPaid:
			p.CompletedContracts++
			p.TotalSales = p.TotalSales.Add(c.FinalPrice)
			if c.CommissionAmount != nil {
				p.TotalCommission = p.TotalCommission.Add(*c.CommissionAmount)
			}
			if detailed {
				p.Contracts = append(p.Contracts, lineFor(c))
			}
		}
	}
	for _, pr := range properties {
		if pr.Status == model.PropertyAvailable || pr.Status == model.PropertyPending {
			p.ActiveProperties++
		}
	}
	return p
}

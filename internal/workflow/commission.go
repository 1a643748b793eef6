package workflow

import (
	"sort"
	"time"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCommissionStatuses is the status filter used when the caller gives none.
var DefaultCommissionStatuses = []model.ContractStatus{model.ContractApproved, model.ContractPaid}

type AggregateOptions struct {
	Statuses []model.ContractStatus
	// IncludeUnset counts qualifying contracts without a commission as zero
	// commission instead of leaving them out.
	IncludeUnset bool
}

// CommissionLine is a single contract's contribution to an agent's total.
type CommissionLine struct {
	ContractID       uuid.UUID            `json:"contractId"`
	AgentID          uuid.UUID            `json:"agentId"`
	AgentName        string               `json:"agentName"`
	Status           model.ContractStatus `json:"status"`
	FinalPrice       decimal.Decimal      `json:"contractFinalPrice"`
	CommissionAmount decimal.Decimal      `json:"commissionAmount"`
	CommissionSet    bool                 `json:"commissionSet"`
	PaidAt           *time.Time           `json:"paidAt,omitempty"`
	EnteredAt        *time.Time           `json:"calculatedAt,omitempty"`
}

// AgentCommission is the per-agent commission summary.
type AgentCommission struct {
	AgentID           uuid.UUID        `json:"agentId"`
	AgentName         string           `json:"agentName"`
	ContractCount     int              `json:"contractCount"`
	TotalSales        decimal.Decimal  `json:"totalSales"`
	TotalCommission   decimal.Decimal  `json:"totalCommission"`
	PaidCommission    decimal.Decimal  `json:"paidCommission"`
	PendingCommission decimal.Decimal  `json:"pendingCommission"`
	Contracts         []CommissionLine `json:"contracts"`
}

// CommissionReport is the result of an aggregation. Excluded lists qualifying
// contracts that were left out because no commission was recorded on them.
type CommissionReport struct {
	Agents   []AgentCommission `json:"agents"`
	Excluded []uuid.UUID       `json:"excludedContractIds"`
}

func statusSet(statuses []model.ContractStatus) map[model.ContractStatus]bool {
	if len(statuses) == 0 {
		statuses = DefaultCommissionStatuses
	}
	set := make(map[model.ContractStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// AggregateCommissions groups contracts by agent over the chosen statuses.
// Agents are ordered by total commission, highest first.
func AggregateCommissions(contracts []model.Contract, opts AggregateOptions) CommissionReport {
	include := statusSet(opts.Statuses)
	byAgent := make(map[uuid.UUID]*AgentCommission)
	report := CommissionReport{Excluded: []uuid.UUID{}}

	for _, c := range contracts {
		if !include[c.Status] {
			continue
		}
		if !c.HasCommission() && !opts.IncludeUnset {
			report.Excluded = append(report.Excluded, c.ID)
			continue
		}

		agg, ok := byAgent[c.AgentID]
		if !ok {
			agg = &AgentCommission{AgentID: c.AgentID, AgentName: c.AgentName}
			byAgent[c.AgentID] = agg
		}

		line := lineFor(c)
		agg.ContractCount++
		agg.TotalSales = agg.TotalSales.Add(c.FinalPrice)
		agg.TotalCommission = agg.TotalCommission.Add(line.CommissionAmount)
		switch c.Status {
		case model.ContractPaid:
			agg.PaidCommission = agg.PaidCommission.Add(line.CommissionAmount)
		case model.ContractApproved:
			agg.PendingCommission = agg.PendingCommission.Add(line.CommissionAmount)
		}
		agg.Contracts = append(agg.Contracts, line)
	}

	report.Agents = make([]AgentCommission, 0, len(byAgent))
	for _, agg := range byAgent {
		report.Agents = append(report.Agents, *agg)
	}
	sort.Slice(report.Agents, func(i, j int) bool {
		a, b := report.Agents[i], report.Agents[j]
		if !a.TotalCommission.Equal(b.TotalCommission) {
			return a.TotalCommission.GreaterThan(b.TotalCommission)
		}
		return a.AgentID.String() < b.AgentID.String()
	})
	return report
}

// PaidCommissionLines lists the agent's paid contracts that carry a commission.
func PaidCommissionLines(contracts []model.Contract, agentID uuid.UUID) []CommissionLine {
	lines := []CommissionLine{}
	for _, c := range contracts {
		if c.AgentID == agentID && c.Status == model.ContractPaid && c.HasCommission() {
			lines = append(lines, lineFor(c))
		}
	}
	return lines
}

func lineFor(c model.Contract) CommissionLine {
	line := CommissionLine{
		ContractID: c.ID,
		AgentID:    c.AgentID,
		AgentName:  c.AgentName,
		Status:     c.Status,
		FinalPrice: c.FinalPrice,
		PaidAt:     c.PaidAt,
		EnteredAt:  c.CommissionEnteredAt,
	}
	if c.CommissionAmount != nil {
		line.CommissionAmount = *c.CommissionAmount
		line.CommissionSet = true
	}
	return line
}

package workflow

import (
	"testing"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contract(agent uuid.UUID, status model.ContractStatus, price int64, commission *int64) model.Contract {
	c := model.Contract{
		ID:         uuid.New(),
		AgentID:    agent,
		AgentName:  "agent-" + agent.String()[:4],
		Status:     status,
		FinalPrice: decimal.NewFromInt(price),
	}
	if commission != nil {
		amount := decimal.NewFromInt(*commission)
		c.CommissionAmount = &amount
	}
	return c
}

func i64(v int64) *int64 { return &v }

func TestAggregateCommissions_ExcludesUnsetCommission(t *testing.T) {
	a := uuid.New()
	unset := contract(a, model.ContractApproved, 500, nil)
	contracts := []model.Contract{
		contract(a, model.ContractPaid, 1000, i64(100)),
		unset,
	}

	report := AggregateCommissions(contracts, AggregateOptions{})
	require.Len(t, report.Agents, 1)
	agg := report.Agents[0]

	assert.Equal(t, a, agg.AgentID)
	assert.True(t, agg.TotalCommission.Equal(decimal.NewFromInt(100)))
	assert.True(t, agg.PaidCommission.Equal(decimal.NewFromInt(100)))
	assert.True(t, agg.PendingCommission.IsZero())
	assert.True(t, agg.TotalSales.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 1, agg.ContractCount)
	assert.Equal(t, []uuid.UUID{unset.ID}, report.Excluded)
}

func TestAggregateCommissions_IncludeUnset(t *testing.T) {
	a := uuid.New()
	contracts := []model.Contract{
		contract(a, model.ContractPaid, 1000, i64(100)),
		contract(a, model.ContractApproved, 500, nil),
	}

	report := AggregateCommissions(contracts, AggregateOptions{IncludeUnset: true})
	require.Len(t, report.Agents, 1)
	agg := report.Agents[0]
	assert.Equal(t, 2, agg.ContractCount)
	assert.True(t, agg.TotalSales.Equal(decimal.NewFromInt(1500)))
	assert.True(t, agg.TotalCommission.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, report.Excluded)
}

func TestAggregateCommissions_PaidVersusPending(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	contracts := []model.Contract{
		contract(a, model.ContractPaid, 1000, i64(100)),
		contract(a, model.ContractApproved, 2000, i64(150)),
		contract(a, model.ContractPending, 3000, nil),
		contract(a, model.ContractRejected, 3000, nil),
		contract(b, model.ContractApproved, 800, i64(40)),
	}

	report := AggregateCommissions(contracts, AggregateOptions{})
	require.Len(t, report.Agents, 2)
	assert.Empty(t, report.Excluded, "pending and rejected do not qualify")

	first := report.Agents[0]
	assert.Equal(t, a, first.AgentID, "ordered by total commission")
	assert.Equal(t, 2, first.ContractCount)
	assert.True(t, first.PaidCommission.Equal(decimal.NewFromInt(100)))
	assert.True(t, first.PendingCommission.Equal(decimal.NewFromInt(150)))
	assert.True(t, first.TotalCommission.Equal(decimal.NewFromInt(250)))
	assert.Len(t, first.Contracts, 2)

	second := report.Agents[1]
	assert.True(t, second.PendingCommission.Equal(decimal.NewFromInt(40)))
}

func TestAggregateCommissions_StatusFilter(t *testing.T) {
	a := uuid.New()
	contracts := []model.Contract{
		contract(a, model.ContractPaid, 1000, i64(100)),
		contract(a, model.ContractApproved, 2000, i64(150)),
	}

	report := AggregateCommissions(contracts, AggregateOptions{Statuses: []model.ContractStatus{model.ContractPaid}})
	require.Len(t, report.Agents, 1)
	assert.Equal(t, 1, report.Agents[0].ContractCount)
	assert.True(t, report.Agents[0].TotalCommission.Equal(decimal.NewFromInt(100)))
}

func TestAggregateCommissions_Empty(t *testing.T) {
	report := AggregateCommissions(nil, AggregateOptions{})
	assert.Empty(t, report.Agents)
	assert.NotNil(t, report.Agents)
	assert.Empty(t, report.Excluded)
}

func TestPaidCommissionLines(t *testing.T) {
	a := uuid.New()
	paid := contract(a, model.ContractPaid, 1000, i64(100))
	contracts := []model.Contract{
		paid,
		contract(a, model.ContractPaid, 1000, nil),
		contract(a, model.ContractApproved, 1000, i64(20)),
		contract(uuid.New(), model.ContractPaid, 1000, i64(10)),
	}

	lines := PaidCommissionLines(contracts, a)
	require.Len(t, lines, 1)
	assert.Equal(t, paid.ID, lines[0].ContractID)
	assert.True(t, lines[0].CommissionSet)
}

func TestContractStats(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	contracts := []model.Contract{
		contract(a, model.ContractPending, 100, nil),
		contract(a, model.ContractApproved, 200, i64(20)),
		contract(b, model.ContractPaid, 300, i64(30)),
		contract(b, model.ContractRejected, 400, nil),
		contract(b, model.ContractApproved, 500, nil),
	}

	st := ContractStats(contracts)
	assert.Equal(t, 5, st.TotalContracts)
	assert.Equal(t, 1, st.PendingContracts)
	assert.Equal(t, 2, st.ApprovedContracts)
	assert.Equal(t, 1, st.RejectedContracts)
	assert.Equal(t, 1, st.PaidContracts)
	assert.True(t, st.TotalValue.Equal(decimal.NewFromInt(1500)))
	assert.True(t, st.TotalCommissions.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2, st.ByAgent[a.String()].Count)
	assert.True(t, st.ByAgent[b.String()].TotalValue.Equal(decimal.NewFromInt(1200)))
}

func TestPropertyStats(t *testing.T) {
	owner := uuid.New()
	props := []model.Property{
		{OwnerID: owner, Status: model.PropertyAvailable, PropertyType: model.PropertyVilla, Price: decimal.NewFromInt(100)},
		{OwnerID: owner, Status: model.PropertySold, PropertyType: model.PropertyVilla, Price: decimal.NewFromInt(200)},
		{OwnerID: uuid.New(), Status: model.PropertyPending, PropertyType: model.PropertyLand, Price: decimal.NewFromInt(300)},
	}

	st := PropertyStats(props)
	assert.Equal(t, 3, st.TotalProperties)
	assert.Equal(t, 1, st.AvailableProperties)
	assert.Equal(t, 1, st.PendingProperties)
	assert.Equal(t, 1, st.SoldProperties)
	assert.True(t, st.TotalValue.Equal(decimal.NewFromInt(600)))
	assert.True(t, st.AveragePrice.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, st.ByType[model.PropertyVilla])
	assert.Equal(t, 0, st.ByType[model.PropertyCommercial])
	assert.Equal(t, 2, st.ByOwner[owner.String()].Count)

	empty := PropertyStats(nil)
	assert.True(t, empty.AveragePrice.IsZero())
}

func TestUserAndNotificationStats(t *testing.T) {
	users := []model.User{
		{Role: model.RoleAgent, Status: model.UserActive},
		{Role: model.RoleAgent, Status: model.UserPendingApproval},
		{Role: model.RoleSuperAdmin, Status: model.UserActive},
	}
	us := UserStats(users)
	assert.Equal(t, 3, us.TotalUsers)
	assert.Equal(t, 2, us.ActiveUsers)
	assert.Equal(t, 1, us.PendingApproval)
	assert.Equal(t, 2, us.ByRole[model.RoleAgent])
	assert.Equal(t, 0, us.ByRole[model.RoleSalesManager])

	ns := NotificationStats([]model.Notification{
		{Type: model.NotificationSystem},
		{Type: model.NotificationSystem, IsRead: true},
		{Type: model.NotificationCommissionPaid},
	})
	assert.Equal(t, 3, ns.TotalNotifications)
	assert.Equal(t, 2, ns.UnreadNotifications)
	assert.Equal(t, 2, ns.ByType[model.NotificationSystem])
}

func TestPerformance(t *testing.T) {
	a := uuid.New()
	contracts := []model.Contract{
		contract(a, model.ContractPending, 100, nil),
		contract(a, model.ContractApproved, 200, i64(20)),
		contract(a, model.ContractPaid, 300, i64(30)),
	}
	props := []model.Property{{Status: model.PropertyAvailable}, {Status: model.PropertySold}}

	p := Performance(contracts, props, false)
	assert.Equal(t, 1, p.PendingContracts)
	assert.Equal(t, 2, p.CompletedContracts)
	assert.True(t, p.TotalSales.Equal(decimal.NewFromInt(500)))
	assert.True(t, p.TotalCommission.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, p.ActiveProperties)
	assert.Empty(t, p.Contracts)

	detailed := Performance(contracts, props, true)
	assert.Len(t, detailed.Contracts, 2)
}

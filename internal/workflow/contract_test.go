package workflow

import (
	"testing"
	"time"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func agentUser() model.User {
	return model.User{ID: uuid.New(), Name: "Agent X", Role: model.RoleAgent, Status: model.UserActive}
}

func adminUser() model.User {
	return model.User{ID: uuid.New(), Name: "Root", Role: model.RoleSuperAdmin, Status: model.UserActive}
}

func draft(price int64) model.Contract {
	return model.Contract{
		CustomerName:     "Buyer",
		SellerName:       "Seller",
		FinalPrice:       decimal.NewFromInt(price),
		ContractDocument: "contracts/2026/03/deed.pdf",
	}
}

func pendingContract(t *testing.T, price int64) (*model.Contract, model.User) {
	t.Helper()
	agent := agentUser()
	c, err := NewContract(draft(price), agent, t0)
	require.NoError(t, err)
	return c, agent
}

func TestNewContract_StartsPending(t *testing.T) {
	agent := agentUser()
	d := draft(1000)
	amount := decimal.NewFromInt(50)
	d.CommissionAmount = &amount
	d.Status = model.ContractPaid

	c, err := NewContract(d, agent, t0)
	require.NoError(t, err)

	assert.Equal(t, model.ContractPending, c.Status)
	assert.Equal(t, agent.ID, c.AgentID)
	assert.Equal(t, t0, c.UploadedAt)
	assert.Nil(t, c.CommissionAmount)
	assert.Nil(t, c.CommissionEnteredBy)
	assert.Nil(t, c.CommissionEnteredAt)
	assert.Empty(t, c.CommissionNotes)
	require.Len(t, c.StatusHistory, 1)
	assert.Equal(t, model.ContractPending, c.StatusHistory[0].Status)
	assert.Equal(t, agent.ID, c.StatusHistory[0].ChangedBy)
	assert.Equal(t, UploadedNote, c.StatusHistory[0].Notes)
	assert.Equal(t, 1, c.StatusHistory[0].Seq)
}

func TestNewContract_Validation(t *testing.T) {
	agent := agentUser()

	d := draft(1000)
	d.ContractDocument = "  "
	_, err := NewContract(d, agent, t0)
	assert.ErrorIs(t, err, ErrDocumentRequired)

	_, err = NewContract(draft(0), agent, t0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	d = draft(10)
	d.CustomerName = ""
	_, err = NewContract(d, agent, t0)
	assert.ErrorIs(t, err, ErrCustomerRequired)
}

func TestApprove_RequiresPositiveCommission(t *testing.T) {
	c, _ := pendingContract(t, 1000)
	admin := adminUser()

	for _, amount := range []int64{0, -5} {
		_, err := Approve(c, ApproveRequest{CommissionAmount: decimal.NewFromInt(amount)}, admin, t0)
		assert.ErrorIs(t, err, ErrCommissionRequired)
	}
	_, err := Approve(c, ApproveRequest{}, admin, t0)
	assert.ErrorIs(t, err, ErrCommissionRequired)

	assert.Equal(t, model.ContractPending, c.Status)
	assert.Len(t, c.StatusHistory, 1)
	assert.Nil(t, c.CommissionAmount)
}

func TestApprove_CommissionCannotExceedPrice(t *testing.T) {
	c, _ := pendingContract(t, 1000)

	_, err := Approve(c, ApproveRequest{CommissionAmount: decimal.NewFromInt(1001)}, adminUser(), t0)
	assert.ErrorIs(t, err, ErrCommissionExceedsPrice)
	assert.Equal(t, model.ContractPending, c.Status)

	_, err = Approve(c, ApproveRequest{CommissionAmount: decimal.NewFromInt(1000)}, adminUser(), t0)
	assert.NoError(t, err, "commission equal to the price is allowed")
}

func TestApprove_SetsCommissionAndAppendsOneEntry(t *testing.T) {
	c, _ := pendingContract(t, 1000)
	first := c.StatusHistory[0]
	admin := adminUser()
	at := t0.Add(time.Hour)

	change, err := Approve(c, ApproveRequest{
		CommissionAmount: decimal.NewFromInt(30),
		CommissionNotes:  "3%",
		ReviewNotes:      "looks good",
	}, admin, at)
	require.NoError(t, err)

	assert.Equal(t, model.ContractApproved, c.Status)
	require.NotNil(t, c.CommissionAmount)
	assert.True(t, c.CommissionAmount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "3%", c.CommissionNotes)
	assert.Equal(t, admin.ID, *c.CommissionEnteredBy)
	assert.Equal(t, admin.Name, c.CommissionEnteredByName)
	assert.Equal(t, at, *c.CommissionEnteredAt)
	assert.Equal(t, admin.ID, *c.ReviewedBy)
	assert.Equal(t, "looks good", c.ReviewNotes)

	require.Len(t, c.StatusHistory, 2)
	assert.Equal(t, first, c.StatusHistory[0], "earlier entries are untouched")
	assert.Equal(t, change, c.StatusHistory[1])
	assert.Equal(t, 2, change.Seq)
	assert.Equal(t, model.ContractApproved, change.Status)
}

func TestReject_RequiresReason(t *testing.T) {
	c, _ := pendingContract(t, 1000)

	_, err := Reject(c, RejectRequest{Reason: "   "}, adminUser(), t0)
	assert.ErrorIs(t, err, ErrReasonRequired)
	assert.Equal(t, model.ContractPending, c.Status)

	_, err = Reject(c, RejectRequest{Reason: "missing signature"}, adminUser(), t0)
	require.NoError(t, err)
	assert.Equal(t, model.ContractRejected, c.Status)
	assert.Equal(t, "missing signature", c.ReviewNotes)
	assert.Nil(t, c.CommissionAmount)
	assert.Len(t, c.StatusHistory, 2)
}

func TestMarkPaid_OnlyFromApproved(t *testing.T) {
	c, _ := pendingContract(t, 1000)
	_, err := MarkPaid(c, MarkPaidRequest{PaymentReference: "REF"}, adminUser(), t0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, c.PaidAt)
}

func TestTerminalStatesNeverTransition(t *testing.T) {
	admin := adminUser()

	rejected, _ := pendingContract(t, 1000)
	_, err := Reject(rejected, RejectRequest{Reason: "no"}, admin, t0)
	require.NoError(t, err)

	paid, _ := pendingContract(t, 1000)
	_, err = Approve(paid, ApproveRequest{CommissionAmount: decimal.NewFromInt(10)}, admin, t0)
	require.NoError(t, err)
	_, err = MarkPaid(paid, MarkPaidRequest{}, admin, t0)
	require.NoError(t, err)

	for _, c := range []*model.Contract{rejected, paid} {
		before := len(c.StatusHistory)
		status := c.Status
		assert.True(t, IsTerminal(status))

		_, err = Approve(c, ApproveRequest{CommissionAmount: decimal.NewFromInt(10)}, admin, t0)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = Reject(c, RejectRequest{Reason: "again"}, admin, t0)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = MarkPaid(c, MarkPaidRequest{}, admin, t0)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		assert.Equal(t, status, c.Status)
		assert.Len(t, c.StatusHistory, before)
	}
}

func TestApprovedCannotBeRejected(t *testing.T) {
	c, _ := pendingContract(t, 1000)
	_, err := Approve(c, ApproveRequest{CommissionAmount: decimal.NewFromInt(10)}, adminUser(), t0)
	require.NoError(t, err)

	_, err = Reject(c, RejectRequest{Reason: "changed my mind"}, adminUser(), t0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, CanTransition(model.ContractApproved, model.ContractPending))
}

func TestLifecycle_UploadApprovePay(t *testing.T) {
	c, agent := pendingContract(t, 5_000_000)
	admin := adminUser()
	assert.Equal(t, model.ContractPending, c.Status)

	_, err := Approve(c, ApproveRequest{CommissionAmount: decimal.NewFromInt(200_000)}, admin, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.ContractApproved, c.Status)
	assert.True(t, c.CommissionAmount.Equal(decimal.NewFromInt(200_000)))
	assert.Len(t, c.StatusHistory, 2)

	amount := *c.CommissionAmount
	enteredBy := *c.CommissionEnteredBy
	enteredAt := *c.CommissionEnteredAt

	_, err = MarkPaid(c, MarkPaidRequest{PaymentReference: "REF1"}, admin, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.ContractPaid, c.Status)
	require.NotNil(t, c.PaidAt)
	assert.Equal(t, "REF1", c.PaymentReference)
	assert.Len(t, c.StatusHistory, 3)
	assert.True(t, amount.Equal(*c.CommissionAmount))
	assert.Equal(t, enteredBy, *c.CommissionEnteredBy)
	assert.Equal(t, enteredAt, *c.CommissionEnteredAt)
	assert.Equal(t, agent.ID, c.AgentID)
}

func TestApplyEdit(t *testing.T) {
	c, agent := pendingContract(t, 1000)
	price := decimal.NewFromInt(1200)
	name := "New Buyer"

	require.NoError(t, ApplyEdit(c, ContractEdit{FinalPrice: &price, CustomerName: &name}))
	assert.True(t, c.FinalPrice.Equal(price))
	assert.Equal(t, "New Buyer", c.CustomerName)
	assert.Equal(t, agent.ID, c.AgentID)
	assert.Equal(t, "Seller", c.SellerName)

	zero := decimal.Zero
	assert.ErrorIs(t, ApplyEdit(c, ContractEdit{FinalPrice: &zero}), ErrInvalidPrice)
	empty := ""
	assert.ErrorIs(t, ApplyEdit(c, ContractEdit{ContractDocument: &empty}), ErrDocumentRequired)

	_, err := Reject(c, RejectRequest{Reason: "no"}, adminUser(), t0)
	require.NoError(t, err)
	assert.ErrorIs(t, ApplyEdit(c, ContractEdit{CustomerName: &name}), ErrNotEditable)
}

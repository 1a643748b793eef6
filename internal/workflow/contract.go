// Package workflow holds the contract lifecycle: creation, the
// pending → approved → paid / pending → rejected transitions, commission
// aggregation and statistics. Functions here never touch storage; callers
// persist the mutated contract and the returned history entry together.
package workflow

import (
	"errors"
	"strings"
	"time"

	"brokerdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrDocumentRequired       = errors.New("contract document is required")
	ErrInvalidPrice           = errors.New("final price must be greater than zero")
	ErrCustomerRequired       = errors.New("customer name is required")
	ErrSellerRequired         = errors.New("seller name is required")
	ErrInvalidTransition      = errors.New("status transition not allowed")
	ErrCommissionRequired     = errors.New("commission amount must be greater than zero")
	ErrCommissionExceedsPrice = errors.New("commission amount cannot exceed the final price")
	ErrReasonRequired         = errors.New("a rejection reason is required")
	ErrNotEditable            = errors.New("contract can only be edited while pending")
)

// UploadedNote is recorded on the first history entry of every contract.
const UploadedNote = "uploaded"

var transitions = map[model.ContractStatus][]model.ContractStatus{
	model.ContractPending:  {model.ContractApproved, model.ContractRejected},
	model.ContractApproved: {model.ContractPaid},
}

// CanTransition reports whether from → to is an edge of the lifecycle.
func CanTransition(from, to model.ContractStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.ContractStatus) bool { return len(transitions[s]) == 0 }

// ApproveRequest carries everything pending → approved needs. The reviewer is
// the acting user, never a request field.
type ApproveRequest struct {
	CommissionAmount decimal.Decimal
	CommissionNotes  string
	ReviewNotes      string
}

type RejectRequest struct {
	Reason string
}

type MarkPaidRequest struct {
	PaymentReference string
	Notes            string
}

// NewContract turns an agent's draft into a pending contract with its first
// history entry. Any commission, review or payment data on the draft is dropped.
func NewContract(draft model.Contract, agent model.User, now time.Time) (*model.Contract, error) {
	if strings.TrimSpace(draft.ContractDocument) == "" {
		return nil, ErrDocumentRequired
	}
	if !draft.FinalPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if strings.TrimSpace(draft.CustomerName) == "" {
		return nil, ErrCustomerRequired
	}
	if strings.TrimSpace(draft.SellerName) == "" {
		return nil, ErrSellerRequired
	}

	c := model.Contract{
		ID:                 draft.ID,
		AgentID:            agent.ID,
		AgentName:          agent.Name,
		AgentRole:          agent.Role,
		PropertyID:         draft.PropertyID,
		PropertyTitle:      draft.PropertyTitle,
		CustomerName:       draft.CustomerName,
		CustomerPhone:      draft.CustomerPhone,
		CustomerEmail:      draft.CustomerEmail,
		CustomerNationalID: draft.CustomerNationalID,
		SellerName:         draft.SellerName,
		SellerPhone:        draft.SellerPhone,
		FinalPrice:         draft.FinalPrice,
		ContractDate:       draft.ContractDate,
		SettlementDate:     draft.SettlementDate,
		ContractDocument:   draft.ContractDocument,
		UploadedAt:         now,
		Status:             model.ContractPending,
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ContractDate.IsZero() {
		c.ContractDate = now
	}
	c.StatusHistory = []model.ContractStatusChange{
		newChange(&c, model.ContractPending, agent, now, UploadedNote),
	}
	return &c, nil
}

func newChange(c *model.Contract, status model.ContractStatus, by model.User, at time.Time, notes string) model.ContractStatusChange {
	return model.ContractStatusChange{
		ID:            uuid.New(),
		ContractID:    c.ID,
		Seq:           len(c.StatusHistory) + 1,
		Status:        status,
		ChangedBy:     by.ID,
		ChangedByName: by.Name,
		ChangedAt:     at,
		Notes:         notes,
	}
}

// record moves c to status and appends the matching history entry.
func record(c *model.Contract, status model.ContractStatus, by model.User, at time.Time, notes string) model.ContractStatusChange {
	change := newChange(c, status, by, at, notes)
	c.Status = status
	c.StatusHistory = append(c.StatusHistory, change)
	return change
}

// Approve moves a pending contract to approved and records the commission in
// the same step. Nothing is mutated when validation fails.
func Approve(c *model.Contract, req ApproveRequest, reviewer model.User, now time.Time) (model.ContractStatusChange, error) {
	if !CanTransition(c.Status, model.ContractApproved) {
		return model.ContractStatusChange{}, ErrInvalidTransition
	}
	if !req.CommissionAmount.IsPositive() {
		return model.ContractStatusChange{}, ErrCommissionRequired
	}
	if req.CommissionAmount.GreaterThan(c.FinalPrice) {
		return model.ContractStatusChange{}, ErrCommissionExceedsPrice
	}

	amount := req.CommissionAmount
	reviewedAt := now
	reviewerID := reviewer.ID
	c.ReviewedBy = &reviewerID
	c.ReviewedByName = reviewer.Name
	c.ReviewedAt = &reviewedAt
	c.ReviewNotes = req.ReviewNotes

	c.CommissionAmount = &amount
	c.CommissionNotes = req.CommissionNotes
	c.CommissionEnteredBy = &reviewerID
	c.CommissionEnteredByName = reviewer.Name
	c.CommissionEnteredAt = &reviewedAt

	return record(c, model.ContractApproved, reviewer, now, req.ReviewNotes), nil
}

// Reject closes a pending contract. Commission fields are left alone.
func Reject(c *model.Contract, req RejectRequest, reviewer model.User, now time.Time) (model.ContractStatusChange, error) {
	if !CanTransition(c.Status, model.ContractRejected) {
		return model.ContractStatusChange{}, ErrInvalidTransition
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return model.ContractStatusChange{}, ErrReasonRequired
	}

	reviewedAt := now
	reviewerID := reviewer.ID
	c.ReviewedBy = &reviewerID
	c.ReviewedByName = reviewer.Name
	c.ReviewedAt = &reviewedAt
	c.ReviewNotes = reason

	return record(c, model.ContractRejected, reviewer, now, reason), nil
}

// MarkPaid settles an approved contract. The commission recorded at approval
// is carried over untouched.
func MarkPaid(c *model.Contract, req MarkPaidRequest, payer model.User, now time.Time) (model.ContractStatusChange, error) {
	if !CanTransition(c.Status, model.ContractPaid) {
		return model.ContractStatusChange{}, ErrInvalidTransition
	}

	paidAt := now
	c.PaidAt = &paidAt
	c.PaymentReference = strings.TrimSpace(req.PaymentReference)

	notes := req.Notes
	if notes == "" && c.PaymentReference != "" {
		notes = "payment reference " + c.PaymentReference
	}
	return record(c, model.ContractPaid, payer, now, notes), nil
}

// ContractEdit is a partial update of the descriptive fields of a pending
// contract. Nil fields are left unchanged.
type ContractEdit struct {
	PropertyID         *uuid.UUID
	PropertyTitle      *string
	CustomerName       *string
	CustomerPhone      *string
	CustomerEmail      *string
	CustomerNationalID *string
	SellerName         *string
	SellerPhone        *string
	FinalPrice         *decimal.Decimal
	ContractDate       *time.Time
	SettlementDate     *time.Time
	ContractDocument   *string
}

// ApplyEdit validates and applies e. The agent, status, history, review and
// commission fields cannot be changed through an edit.
func ApplyEdit(c *model.Contract, e ContractEdit) error {
	if c.Status != model.ContractPending {
		return ErrNotEditable
	}
	if e.FinalPrice != nil && !e.FinalPrice.IsPositive() {
		return ErrInvalidPrice
	}
	if e.ContractDocument != nil && strings.TrimSpace(*e.ContractDocument) == "" {
		return ErrDocumentRequired
	}
	if e.CustomerName != nil && strings.TrimSpace(*e.CustomerName) == "" {
		return ErrCustomerRequired
	}
	if e.SellerName != nil && strings.TrimSpace(*e.SellerName) == "" {
		return ErrSellerRequired
	}

	if e.PropertyID != nil {
		c.PropertyID = e.PropertyID
	}
	setString(&c.PropertyTitle, e.PropertyTitle)
	setString(&c.CustomerName, e.CustomerName)
	setString(&c.CustomerPhone, e.CustomerPhone)
	setString(&c.CustomerEmail, e.CustomerEmail)
	setString(&c.CustomerNationalID, e.CustomerNationalID)
	setString(&c.SellerName, e.SellerName)
	setString(&c.SellerPhone, e.SellerPhone)
	setString(&c.ContractDocument, e.ContractDocument)
	if e.FinalPrice != nil {
		c.FinalPrice = *e.FinalPrice
	}
	if e.ContractDate != nil {
		c.ContractDate = *e.ContractDate
	}
	if e.SettlementDate != nil {
		c.SettlementDate = e.SettlementDate
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

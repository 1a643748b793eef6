package service

import (
	"context"
	"errors"
	"strings"

	"brokerdesk/internal/cache"
	"brokerdesk/internal/config"
	"brokerdesk/internal/dto"
	"brokerdesk/internal/infra"
	"brokerdesk/internal/model"
	"brokerdesk/internal/permission"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/workflow"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brokerdesk_contract_transitions_total",
	Help: "Contract status transitions committed, by target status.",
}, []string{"status"})

type ContractService interface {
	List(ctx context.Context, actor model.User) ([]dto.ContractResponse, error)
	Pending(ctx context.Context, actor model.User) ([]dto.ContractResponse, error)
	// Mine lists the contracts of userID (the actor when uuid.Nil).
	Mine(ctx context.Context, actor model.User, userID uuid.UUID) ([]dto.ContractResponse, error)
	Get(ctx context.Context, actor model.User, id uuid.UUID) (*dto.ContractResponse, error)
	Create(ctx context.Context, actor model.User, req dto.CreateContractRequest) (*dto.ContractResponse, error)
	Update(ctx context.Context, actor model.User, id uuid.UUID, req dto.UpdateContractRequest) (*dto.ContractResponse, error)
	Approve(ctx context.Context, actor model.User, id uuid.UUID, req dto.ApproveContractRequest) (*dto.ContractResponse, error)
	Reject(ctx context.Context, actor model.User, id uuid.UUID, req dto.RejectContractRequest) (*dto.ContractResponse, error)
	MarkPaid(ctx context.Context, actor model.User, id uuid.UUID, req dto.PayContractRequest) (*dto.ContractResponse, error)
	Commissions(ctx context.Context, actor model.User, q dto.CommissionQuery) (*workflow.CommissionReport, error)
	AgentCommissions(ctx context.Context, actor model.User, agentID uuid.UUID) ([]workflow.CommissionLine, error)
	Statistics(ctx context.Context, actor model.User) (*workflow.ContractStatistics, error)
	Performance(ctx context.Context, actor model.User, userID uuid.UUID) (*workflow.SalesPerformance, error)
	// Statement renders the commission statement of a paid contract and
	// returns the file path and download name.
	Statement(ctx context.Context, actor model.User, id uuid.UUID) (string, string, error)
}

type contractService struct {
	repo       repository.ContractRepository
	properties repository.PropertyRepository
	roster     *Roster
	cache      *cache.Collection[model.Contract]
	guard      infra.Guard
	notifier   Notifier
	cfg        *config.Config
}

func NewContractService(
	repo repository.ContractRepository,
	properties repository.PropertyRepository,
	roster *Roster,
	guard infra.Guard,
	notifier Notifier,
	cfg *config.Config,
) ContractService {
	return &contractService{
		repo:       repo,
		properties: properties,
		roster:     roster,
		cache:      cache.New[model.Contract]("contracts", cfg.CacheTTL, func(c model.Contract) uuid.UUID { return c.ID }),
		guard:      guard,
		notifier:   notifier,
		cfg:        cfg,
	}
}

func (s *contractService) all(ctx context.Context) ([]model.Contract, error) {
	return s.cache.Load(ctx, func(ctx context.Context) ([]model.Contract, error) {
		return s.repo.List(ctx, dto.ContractFilter{})
	})
}

// visible returns the cached contracts the actor may see, filtered by keep.
func (s *contractService) visible(ctx context.Context, actor model.User, keep func(model.Contract) bool) ([]model.Contract, []model.User, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, nil, err
	}
	contracts, err := s.all(ctx)
	if err != nil {
		return nil, nil, err
	}
	sc := scopeFor(actor, users)
	out := contracts[:0]
	for _, c := range contracts {
		if sc.has(c.AgentID) && (keep == nil || keep(c)) {
			out = append(out, c)
		}
	}
	return out, users, nil
}

func responses(contracts []model.Contract, actor model.User) []dto.ContractResponse {
	out := make([]dto.ContractResponse, len(contracts))
	for i, c := range contracts {
		out[i] = toContractResponse(c, actor)
	}
	return out
}

func (s *contractService) List(ctx context.Context, actor model.User) ([]dto.ContractResponse, error) {
	contracts, _, err := s.visible(ctx, actor, nil)
	if err != nil {
		return nil, err
	}
	return responses(contracts, actor), nil
}

func (s *contractService) Pending(ctx context.Context, actor model.User) ([]dto.ContractResponse, error) {
	if !permission.CanReviewContract(actor) {
		return nil, forbidden("cannot review contracts")
	}
	contracts, _, err := s.visible(ctx, actor, func(c model.Contract) bool {
		return c.Status == model.ContractPending
	})
	if err != nil {
		return nil, err
	}
	return responses(contracts, actor), nil
}

func (s *contractService) Mine(ctx context.Context, actor model.User, userID uuid.UUID) ([]dto.ContractResponse, error) {
	if userID == uuid.Nil {
		userID = actor.ID
	}
	contracts, users, err := s.visible(ctx, actor, func(c model.Contract) bool { return c.AgentID == userID })
	if err != nil {
		return nil, err
	}
	if userID != actor.ID && !scopeFor(actor, users).has(userID) {
		return nil, forbidden("cannot view this user's contracts")
	}
	return responses(contracts, actor), nil
}

func (s *contractService) load(ctx context.Context, actor model.User, id uuid.UUID) (*model.Contract, []model.User, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, lookupErr(err, "contract")
	}
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !permission.CanViewContract(actor, *c, users) {
		return nil, nil, forbidden("cannot view this contract")
	}
	return c, users, nil
}

func (s *contractService) Get(ctx context.Context, actor model.User, id uuid.UUID) (*dto.ContractResponse, error) {
	c, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toContractResponse(*c, actor)
	return &resp, nil
}

// ── Create & edit ────────────────────────────────────────────────────────────

func (s *contractService) Create(ctx context.Context, actor model.User, req dto.CreateContractRequest) (*dto.ContractResponse, error) {
	if !permission.CanUploadContract(actor) {
		return nil, forbidden("cannot upload contracts")
	}
	draft := model.Contract{
		PropertyTitle:      strings.TrimSpace(req.PropertyTitle),
		CustomerName:       strings.TrimSpace(req.CustomerName),
		CustomerPhone:      req.CustomerPhone,
		CustomerEmail:      req.CustomerEmail,
		CustomerNationalID: req.CustomerNationalID,
		SellerName:         strings.TrimSpace(req.SellerName),
		SellerPhone:        req.SellerPhone,
		FinalPrice:         req.FinalPrice,
		SettlementDate:     req.SettlementDate,
		ContractDocument:   strings.TrimSpace(req.ContractDocument),
	}
	if req.ContractDate != nil {
		draft.ContractDate = *req.ContractDate
	}
	if req.PropertyID != nil && *req.PropertyID != "" {
		propertyID, err := s.linkProperty(ctx, *req.PropertyID, &draft.PropertyTitle)
		if err != nil {
			return nil, err
		}
		draft.PropertyID = &propertyID
	}

	c, err := workflow.NewContract(draft, actor, now())
	if err != nil {
		return nil, workflowErr(err)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Upsert(*c)
	transitionsTotal.WithLabelValues(string(model.ContractPending)).Inc()

	if users, err := s.roster.Users(ctx); err == nil {
		notify(ctx, s.notifier, activeAdmins(users), actor, func(model.User) model.Notification {
			return model.Notification{
				Type:      model.NotificationContractReview,
				Title:     "Contract awaiting review",
				Message:   actor.Name + " uploaded a contract for " + describe(c),
				ActionURL: actionURL("contracts", c.ID),
				Metadata:  map[string]any{"contractId": c.ID.String()},
			}
		})
	}

	resp := toContractResponse(*c, actor)
	return &resp, nil
}

// linkProperty checks the referenced listing exists and fills an empty title
// from it.
func (s *contractService) linkProperty(ctx context.Context, raw string, title *string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("propertyId", "uuid", "propertyId is not a valid id")
	}
	p, err := s.properties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(lookupErr(err, "property"), ErrNotFound) {
			return uuid.Nil, invalid("propertyId", "exists", "property does not exist")
		}
		return uuid.Nil, err
	}
	if *title == "" {
		*title = p.Title
	}
	return id, nil
}

func describe(c *model.Contract) string {
	if c.PropertyTitle != "" {
		return c.PropertyTitle
	}
	return "contract " + c.ID.String()[:8]
}

// Update applies PUT /contracts/:id. A status field turns the request into
// the matching typed transition; anything else is a field edit.
func (s *contractService) Update(ctx context.Context, actor model.User, id uuid.UUID, req dto.UpdateContractRequest) (*dto.ContractResponse, error) {
	if req.Status != nil {
		switch model.ContractStatus(*req.Status) {
		case model.ContractApproved:
			approve := dto.ApproveContractRequest{CommissionNotes: req.CommissionNotes, ReviewNotes: req.StatusNotes}
			if req.CommissionAmount != nil {
				approve.CommissionAmount = *req.CommissionAmount
			}
			return s.Approve(ctx, actor, id, approve)
		case model.ContractRejected:
			return s.Reject(ctx, actor, id, dto.RejectContractRequest{Reason: req.StatusNotes})
		case model.ContractPaid:
			return s.MarkPaid(ctx, actor, id, dto.PayContractRequest{PaymentReference: req.PaymentReference, Notes: req.StatusNotes})
		default:
			return nil, invalid("status", "oneof", "status must be approved, rejected or paid")
		}
	}
	return s.edit(ctx, actor, id, req)
}

func (s *contractService) edit(ctx context.Context, actor model.User, id uuid.UUID, req dto.UpdateContractRequest) (*dto.ContractResponse, error) {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	c, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !permission.CanEditContract(actor, *c) {
		if c.Status != model.ContractPending && (permission.IsAdmin(actor) || c.AgentID == actor.ID) {
			return nil, workflowErr(workflow.ErrNotEditable)
		}
		return nil, forbidden("cannot edit this contract")
	}

	edit := workflow.ContractEdit{
		PropertyTitle:      req.PropertyTitle,
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		CustomerEmail:      req.CustomerEmail,
		CustomerNationalID: req.CustomerNationalID,
		SellerName:         req.SellerName,
		SellerPhone:        req.SellerPhone,
		FinalPrice:         req.FinalPrice,
		ContractDate:       req.ContractDate,
		SettlementDate:     req.SettlementDate,
		ContractDocument:   req.ContractDocument,
	}
	clearProperty := false
	if req.PropertyID != nil {
		if *req.PropertyID == "" {
			clearProperty = true
		} else {
			title := c.PropertyTitle
			if req.PropertyTitle != nil {
				title = *req.PropertyTitle
			}
			propertyID, err := s.linkProperty(ctx, *req.PropertyID, &title)
			if err != nil {
				return nil, err
			}
			edit.PropertyID = &propertyID
			edit.PropertyTitle = &title
		}
	}
	if err := workflow.ApplyEdit(c, edit); err != nil {
		return nil, workflowErr(err)
	}
	if clearProperty {
		c.PropertyID = nil
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, writeErr(err, "contract")
	}
	s.cache.Upsert(*c)

	resp := toContractResponse(*c, actor)
	return &resp, nil
}

// ── Transitions ──────────────────────────────────────────────────────────────

func (s *contractService) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	release, err := s.guard.Acquire(ctx, "contract:"+id.String())
	if errors.Is(err, infra.ErrInFlight) {
		return nil, conflict("another change to this contract is in progress")
	}
	return release, err
}

// transition runs one lifecycle step under the per-contract guard. The stored
// status must still match the one read, so a lost race never double-applies.
func (s *contractService) transition(
	ctx context.Context,
	actor model.User,
	id uuid.UUID,
	apply func(c *model.Contract) (model.ContractStatusChange, error),
) (*model.Contract, error) {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "contract")
	}
	from := c.Status
	change, err := apply(c)
	if err != nil {
		return nil, workflowErr(err)
	}
	if err := s.repo.AppendTransition(ctx, c, from, change); err != nil {
		return nil, writeErr(err, "contract")
	}
	s.cache.Upsert(*c)
	transitionsTotal.WithLabelValues(string(change.Status)).Inc()
	log.Info().
		Str("contract_id", c.ID.String()).
		Str("from", string(from)).
		Str("to", string(change.Status)).
		Str("actor_id", actor.ID.String()).
		Msg("contract transition")
	return c, nil
}

func (s *contractService) notifyAgent(ctx context.Context, actor model.User, c *model.Contract, typ model.NotificationType, title, message string) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return
	}
	agent, ok := findUser(users, c.AgentID)
	if !ok {
		return
	}
	notify(ctx, s.notifier, []model.User{agent}, actor, func(model.User) model.Notification {
		return model.Notification{
			Type:      typ,
			Title:     title,
			Message:   message,
			ActionURL: actionURL("contracts", c.ID),
			Metadata:  map[string]any{"contractId": c.ID.String(), "status": string(c.Status)},
		}
	})
}

func (s *contractService) Approve(ctx context.Context, actor model.User, id uuid.UUID, req dto.ApproveContractRequest) (*dto.ContractResponse, error) {
	if !permission.CanReviewContract(actor) {
		return nil, forbidden("only a super_admin can approve contracts")
	}
	c, err := s.transition(ctx, actor, id, func(c *model.Contract) (model.ContractStatusChange, error) {
		return workflow.Approve(c, workflow.ApproveRequest{
			CommissionAmount: req.CommissionAmount,
			CommissionNotes:  req.CommissionNotes,
			ReviewNotes:      req.ReviewNotes,
		}, actor, now())
	})
	if err != nil {
		return nil, err
	}
	s.notifyAgent(ctx, actor, c, model.NotificationContractReview, "Contract approved",
		"Your contract for "+describe(c)+" was approved with a commission of "+c.CommissionAmount.StringFixed(2))
	resp := toContractResponse(*c, actor)
	return &resp, nil
}

func (s *contractService) Reject(ctx context.Context, actor model.User, id uuid.UUID, req dto.RejectContractRequest) (*dto.ContractResponse, error) {
	if !permission.CanReviewContract(actor) {
		return nil, forbidden("only a super_admin can reject contracts")
	}
	c, err := s.transition(ctx, actor, id, func(c *model.Contract) (model.ContractStatusChange, error) {
		return workflow.Reject(c, workflow.RejectRequest{Reason: req.Reason}, actor, now())
	})
	if err != nil {
		return nil, err
	}
	s.notifyAgent(ctx, actor, c, model.NotificationContractReview, "Contract rejected",
		"Your contract for "+describe(c)+" was rejected: "+c.ReviewNotes)
	resp := toContractResponse(*c, actor)
	return &resp, nil
}

func (s *contractService) MarkPaid(ctx context.Context, actor model.User, id uuid.UUID, req dto.PayContractRequest) (*dto.ContractResponse, error) {
	if !permission.CanPayContract(actor) {
		return nil, forbidden("only a super_admin can mark contracts paid")
	}
	c, err := s.transition(ctx, actor, id, func(c *model.Contract) (model.ContractStatusChange, error) {
		return workflow.MarkPaid(c, workflow.MarkPaidRequest{PaymentReference: req.PaymentReference, Notes: req.Notes}, actor, now())
	})
	if err != nil {
		return nil, err
	}
	amount := "0.00"
	if c.CommissionAmount != nil {
		amount = c.CommissionAmount.StringFixed(2)
	}
	s.notifyAgent(ctx, actor, c, model.NotificationCommissionPaid, "Commission paid",
		"Commission of "+amount+" for "+describe(c)+" has been paid")
	resp := toContractResponse(*c, actor)
	return &resp, nil
}

// ── Reporting ────────────────────────────────────────────────────────────────

func parseStatuses(raw string) ([]model.ContractStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []model.ContractStatus
	for _, part := range strings.Split(raw, ",") {
		st := model.ContractStatus(strings.TrimSpace(part))
		switch st {
		case model.ContractPending, model.ContractApproved, model.ContractRejected, model.ContractPaid:
			out = append(out, st)
		default:
			return nil, invalid("status", "oneof", "unknown contract status "+string(st))
		}
	}
	return out, nil
}

func (s *contractService) Commissions(ctx context.Context, actor model.User, q dto.CommissionQuery) (*workflow.CommissionReport, error) {
	statuses, err := parseStatuses(q.Status)
	if err != nil {
		return nil, err
	}
	includeUnset := s.cfg.CommissionIncludeUnset
	if q.IncludeUnset != nil {
		includeUnset = *q.IncludeUnset
	}
	contracts, _, err := s.visible(ctx, actor, nil)
	if err != nil {
		return nil, err
	}
	report := workflow.AggregateCommissions(contracts, workflow.AggregateOptions{Statuses: statuses, IncludeUnset: includeUnset})
	if len(report.Excluded) > 0 {
		log.Warn().
			Int("excluded", len(report.Excluded)).
			Str("actor_id", actor.ID.String()).
			Msg("commission report left out contracts without a recorded commission")
	}
	return &report, nil
}

func (s *contractService) AgentCommissions(ctx context.Context, actor model.User, agentID uuid.UUID) ([]workflow.CommissionLine, error) {
	contracts, users, err := s.visible(ctx, actor, nil)
	if err != nil {
		return nil, err
	}
	if _, ok := findUser(users, agentID); !ok {
		return nil, notFound("user")
	}
	if !scopeFor(actor, users).has(agentID) {
		return nil, forbidden("cannot view this user's commissions")
	}
	lines := workflow.PaidCommissionLines(contracts, agentID)
	if lines == nil {
		lines = []workflow.CommissionLine{}
	}
	return lines, nil
}

// Statistics covers the whole company for super_admin and the visible set for
// everyone else.
func (s *contractService) Statistics(ctx context.Context, actor model.User) (*workflow.ContractStatistics, error) {
	contracts, _, err := s.visible(ctx, actor, nil)
	if err != nil {
		return nil, err
	}
	st := workflow.ContractStats(contracts)
	return &st, nil
}

func (s *contractService) Performance(ctx context.Context, actor model.User, userID uuid.UUID) (*workflow.SalesPerformance, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := findUser(users, userID); !ok {
		return nil, notFound("user")
	}
	if !permission.CanViewTeam(actor, userID, users) {
		return nil, forbidden("cannot view this user's performance")
	}
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	var own []model.Contract
	for _, c := range all {
		if c.AgentID == userID {
			own = append(own, c)
		}
	}
	props, err := s.properties.List(ctx, dto.PropertyFilter{OwnerIDs: []uuid.UUID{userID}})
	if err != nil {
		return nil, err
	}
	p := workflow.Performance(own, props, permission.CanViewDetailedSales(actor, userID, users))
	return &p, nil
}

func (s *contractService) Statement(ctx context.Context, actor model.User, id uuid.UUID) (string, string, error) {
	c, _, err := s.load(ctx, actor, id)
	if err != nil {
		return "", "", err
	}
	if c.Status != model.ContractPaid || !c.HasCommission() {
		return "", "", conflict("a statement is only available for paid contracts")
	}
	path, err := infra.GenerateCommissionStatement(c, s.cfg.CompanyName, s.cfg.StatementStoragePath)
	if err != nil {
		return "", "", err
	}
	return path, infra.StatementFileName(c), nil
}

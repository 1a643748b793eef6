package service

import (
	"context"
	"errors"
	"strings"

	"brokerdesk/internal/dto"
	"brokerdesk/internal/infra"
	"brokerdesk/internal/model"
	"brokerdesk/internal/permission"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type UserService interface {
	// Actor loads the authenticated user for a request. Only active users act.
	Actor(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context, actor model.User) ([]dto.UserResponse, error)
	Get(ctx context.Context, actor model.User, id uuid.UUID) (*dto.UserResponse, error)
	Create(ctx context.Context, actor model.User, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, actor model.User, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor model.User, id uuid.UUID) error
	Team(ctx context.Context, actor model.User, id uuid.UUID) (*dto.TeamResponse, error)
	Hierarchy(ctx context.Context, actor model.User, id uuid.UUID) (*dto.HierarchyNode, error)
	Statistics(ctx context.Context, actor model.User) (*workflow.UserStatistics, error)
	PendingApprovals(ctx context.Context, actor model.User) ([]dto.ApprovalResponse, error)
	DecideApproval(ctx context.Context, actor model.User, id uuid.UUID, req dto.ApprovalDecisionRequest) (*dto.ApprovalResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	approvals repository.ApprovalRepository
	roster    *Roster
	guard     infra.Guard
	notifier  Notifier
}

func NewUserService(
	repo repository.UserRepository,
	approvals repository.ApprovalRepository,
	roster *Roster,
	guard infra.Guard,
	notifier Notifier,
) UserService {
	return &userService{repo: repo, approvals: approvals, roster: roster, guard: guard, notifier: notifier}
}

func (s *userService) Actor(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if !u.IsActive() {
		return nil, forbidden("account is " + string(u.Status))
	}
	return u, nil
}

// canSee widens the direct-only CanViewUser with the actor's full subtree, so
// managers can reach everyone whose contracts they already see.
func canSee(actor, target model.User, users []model.User) bool {
	return permission.CanViewUser(actor, target) || permission.CanViewTeam(actor, target.ID, users)
}

func (s *userService) List(ctx context.Context, actor model.User) ([]dto.UserResponse, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		if canSee(actor, u, users) {
			out = append(out, toUserResponse(u))
		}
	}
	return out, nil
}

func (s *userService) Get(ctx context.Context, actor model.User, id uuid.UUID) (*dto.UserResponse, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	target, ok := findUser(users, id)
	if !ok {
		return nil, notFound("user")
	}
	if !canSee(actor, target, users) {
		return nil, forbidden("cannot view this user")
	}
	resp := toUserResponse(target)
	return &resp, nil
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *userService) Create(ctx context.Context, actor model.User, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	role := model.Role(req.Role)
	if !permission.CanCreateUserWithRole(actor, role) {
		return nil, forbidden("cannot create a user with role " + req.Role)
	}

	exists, err := s.repo.ExistsEmail(ctx, req.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, invalid("email", "unique", "email is already registered")
	}

	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	managerID, err := s.resolveNewManager(actor, role, req.ManagerID, users)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	createdBy := actor.ID
	user := &model.User{
		Email:         req.Email,
		Name:          strings.TrimSpace(req.Name),
		Avatar:        req.Avatar,
		Phone:         req.Phone,
		NationalID:    req.NationalID,
		HomeAddress:   req.HomeAddress,
		MaritalStatus: req.MaritalStatus,
		Description:   req.Description,
		PasswordHash:  hash,
		Role:          role,
		ManagerID:     managerID,
		Status:        model.UserPendingApproval,
		CreatedBy:     &createdBy,
	}
	approval := &model.UserApprovalRequest{
		RequestedUserName:      user.Name,
		RequestedUserRole:      role,
		RequestedByManagerID:   actor.ID,
		RequestedByManagerName: actor.Name,
		RequestedByManagerRole: actor.Role,
		Status:                 model.ApprovalPending,
		RequestedAt:            now(),
	}
	if err := s.repo.CreateWithApproval(ctx, user, approval); err != nil {
		return nil, err
	}
	s.roster.Put(*user)

	notify(ctx, s.notifier, activeAdmins(users), actor, func(model.User) model.Notification {
		return model.Notification{
			Type:      model.NotificationUserApproval,
			Title:     "New user awaiting approval",
			Message:   actor.Name + " created " + user.Name + " (" + string(role) + ")",
			ActionURL: actionURL("approvals", approval.ID),
			Metadata:  map[string]any{"approvalId": approval.ID.String(), "userId": user.ID.String()},
		}
	})

	resp := toUserResponse(*user)
	return &resp, nil
}

// resolveNewManager picks the manager edge of a new user. Managers default to
// themselves and may only attach new users inside their own subtree.
func (s *userService) resolveNewManager(actor model.User, role model.Role, raw *string, users []model.User) (*uuid.UUID, error) {
	var managerID uuid.UUID
	switch {
	case raw != nil && *raw != "":
		id, err := uuid.Parse(*raw)
		if err != nil {
			return nil, invalid("managerId", "uuid", "managerId is not a valid id")
		}
		managerID = id
	case permission.IsAdmin(actor):
		return nil, nil
	default:
		managerID = actor.ID
	}

	manager, ok := findUser(users, managerID)
	if !ok {
		return nil, invalid("managerId", "exists", "manager does not exist")
	}
	if !permission.ValidManagerRole(manager.Role, role) {
		return nil, invalid("managerId", "role", "a "+string(manager.Role)+" cannot manage a "+string(role))
	}
	if !permission.IsAdmin(actor) && manager.ID != actor.ID && !permission.IsSubordinate(actor.ID, manager.ID, users) {
		return nil, forbidden("manager is outside your team")
	}
	return &managerID, nil
}

// ── Update ───────────────────────────────────────────────────────────────────

func (s *userService) Update(ctx context.Context, actor model.User, id uuid.UUID, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	if !permission.CanEditUser(actor, *target) {
		return nil, forbidden("cannot edit this user")
	}
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}

	role := target.Role
	if req.Role != nil && model.Role(*req.Role) != target.Role {
		role = model.Role(*req.Role)
		if actor.ID == target.ID {
			return nil, forbidden("cannot change your own role")
		}
		if !permission.IsAdmin(actor) && !permission.CanManage(actor.Role, role) {
			return nil, forbidden("cannot assign role " + *req.Role)
		}
	}

	managerID := target.ManagerID
	if req.ManagerID != nil {
		if !permission.IsAdmin(actor) {
			return nil, forbidden("only a super_admin can change a manager")
		}
		managerID, err = s.resolveManagerChange(target.ID, *req.ManagerID, users)
		if err != nil {
			return nil, err
		}
	}
	if managerID != nil && (req.ManagerID != nil || role != target.Role) {
		manager, ok := findUser(users, *managerID)
		if !ok {
			return nil, invalid("managerId", "exists", "manager does not exist")
		}
		if !permission.ValidManagerRole(manager.Role, role) {
			return nil, invalid("managerId", "role", "a "+string(manager.Role)+" cannot manage a "+string(role))
		}
	}
	if role != target.Role {
		for _, report := range permission.DirectSubordinates(target.ID, users) {
			if !permission.ValidManagerRole(role, report.Role) {
				return nil, invalid("role", "reports", "user still manages "+report.Name)
			}
		}
	}

	if req.Status != nil && model.UserStatus(*req.Status) != target.Status {
		if !permission.IsAdmin(actor) || actor.ID == target.ID {
			return nil, forbidden("cannot change account status")
		}
		target.Status = model.UserStatus(*req.Status)
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, target.Email) {
		exists, err := s.repo.ExistsEmail(ctx, *req.Email, target.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, invalid("email", "unique", "email is already registered")
		}
		target.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = hash
	}

	target.Role = role
	target.ManagerID = managerID
	if req.Name != nil {
		target.Name = strings.TrimSpace(*req.Name)
	}
	setIfPresent(&target.Phone, req.Phone)
	setIfPresent(&target.NationalID, req.NationalID)
	setIfPresent(&target.HomeAddress, req.HomeAddress)
	setIfPresent(&target.MaritalStatus, req.MaritalStatus)
	setIfPresent(&target.Description, req.Description)
	setIfPresent(&target.Avatar, req.Avatar)

	if err := s.repo.Update(ctx, target); err != nil {
		return nil, writeErr(err, "user")
	}
	s.roster.Put(*target)

	resp := toUserResponse(*target)
	return &resp, nil
}

// resolveManagerChange parses a new manager edge; empty removes it. The new
// manager may not sit below the user, which would close a cycle.
func (s *userService) resolveManagerChange(userID uuid.UUID, raw string, users []model.User) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid("managerId", "uuid", "managerId is not a valid id")
	}
	if id == userID || permission.IsSubordinate(userID, id, users) {
		return nil, invalid("managerId", "cycle", "a user cannot report to themselves or to their own subordinate")
	}
	return &id, nil
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ── Delete ───────────────────────────────────────────────────────────────────

func (s *userService) Delete(ctx context.Context, actor model.User, id uuid.UUID) error {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "user")
	}
	if !permission.CanDeleteUser(actor, *target) {
		return forbidden("cannot delete users")
	}
	if target.ID == actor.ID {
		return conflict("cannot delete your own account")
	}
	reports, err := s.repo.ListByManager(ctx, id)
	if err != nil {
		return err
	}
	if len(reports) > 0 {
		return conflict("user still has direct reports, reassign them first")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeErr(err, "user")
	}
	s.roster.Drop(id)
	return nil
}

// ── Team & hierarchy ─────────────────────────────────────────────────────────

func (s *userService) Team(ctx context.Context, actor model.User, id uuid.UUID) (*dto.TeamResponse, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	manager, ok := findUser(users, id)
	if !ok {
		return nil, notFound("user")
	}
	if !permission.CanViewTeam(actor, id, users) {
		return nil, forbidden("cannot view this team")
	}
	members := toUserResponses(permission.DirectSubordinates(id, users))
	return &dto.TeamResponse{Manager: toUserResponse(manager), Members: members, Count: len(members)}, nil
}

func (s *userService) Hierarchy(ctx context.Context, actor model.User, id uuid.UUID) (*dto.HierarchyNode, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	root, ok := findUser(users, id)
	if !ok {
		return nil, notFound("user")
	}
	if !permission.CanViewTeam(actor, id, users) {
		return nil, forbidden("cannot view this hierarchy")
	}
	children := make(map[uuid.UUID][]model.User)
	for _, u := range users {
		if u.ManagerID != nil {
			children[*u.ManagerID] = append(children[*u.ManagerID], u)
		}
	}
	visited := map[uuid.UUID]bool{}
	node := buildNode(root, 0, children, visited)
	return &node, nil
}

func buildNode(u model.User, level int, children map[uuid.UUID][]model.User, visited map[uuid.UUID]bool) dto.HierarchyNode {
	visited[u.ID] = true
	node := dto.HierarchyNode{User: toUserResponse(u), Level: level, Children: []dto.HierarchyNode{}}
	if level >= permission.MaxDepth {
		return node
	}
	for _, child := range children[u.ID] {
		if visited[child.ID] {
			continue
		}
		node.Children = append(node.Children, buildNode(child, level+1, children, visited))
	}
	return node
}

func (s *userService) Statistics(ctx context.Context, actor model.User) (*workflow.UserStatistics, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewCompanyStats(actor) {
		if !permission.IsManager(actor) {
			return nil, forbidden("cannot view user statistics")
		}
		visible := users[:0:0]
		for _, u := range users {
			if canSee(actor, u, users) {
				visible = append(visible, u)
			}
		}
		users = visible
	}
	st := workflow.UserStats(users)
	return &st, nil
}

// ── Approvals ────────────────────────────────────────────────────────────────

func (s *userService) PendingApprovals(ctx context.Context, actor model.User) ([]dto.ApprovalResponse, error) {
	if !permission.CanApproveUser(actor) {
		return nil, forbidden("cannot review user approvals")
	}
	pending, err := s.approvals.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ApprovalResponse, len(pending))
	for i, a := range pending {
		out[i] = toApprovalResponse(a)
	}
	return out, nil
}

// DecideApproval resolves a pending request once. The reviewer is always the
// actor; approved activates the user, rejected deactivates it.
func (s *userService) DecideApproval(ctx context.Context, actor model.User, id uuid.UUID, req dto.ApprovalDecisionRequest) (*dto.ApprovalResponse, error) {
	if !permission.CanApproveUser(actor) {
		return nil, forbidden("cannot review user approvals")
	}
	release, err := s.guard.Acquire(ctx, "approval:"+id.String())
	if err != nil {
		if errors.Is(err, infra.ErrInFlight) {
			return nil, conflict("a decision on this request is already in progress")
		}
		return nil, err
	}
	defer release()

	a, err := s.approvals.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "approval request")
	}
	if a.Resolved() {
		return nil, conflict("approval request was already " + string(a.Status))
	}

	decidedAt := now()
	reviewer := actor.ID
	a.Status = model.ApprovalStatus(req.Status)
	a.ReviewedBy = &reviewer
	a.ReviewedByName = actor.Name
	a.ReviewedAt = &decidedAt
	a.ReviewNotes = req.ReviewNotes

	userStatus := model.UserInactive
	if a.Status == model.ApprovalApproved {
		userStatus = model.UserActive
	}
	if err := s.approvals.Resolve(ctx, a, userStatus); err != nil {
		return nil, writeErr(err, "approval request")
	}

	if u, err := s.repo.FindByID(ctx, a.RequestedUserID); err == nil {
		s.roster.Put(*u)
		recipients := []model.User{*u}
		if a.RequestedByManagerID != u.ID {
			mgr, err := s.repo.FindByID(ctx, a.RequestedByManagerID)
			switch {
			case err == nil:
				recipients = append(recipients, *mgr)
			case !errors.Is(err, gorm.ErrRecordNotFound):
				log.Error().Err(err).
					Str("approval_id", a.ID.String()).
					Str("manager_id", a.RequestedByManagerID.String()).
					Msg("requesting manager lookup failed, notifying the user only")
			}
		}
		notify(ctx, s.notifier, recipients, actor, func(model.User) model.Notification {
			return model.Notification{
				Type:      model.NotificationUserApproval,
				Title:     "Account " + string(a.Status),
				Message:   u.Name + "'s account was " + string(a.Status) + " by " + actor.Name,
				ActionURL: actionURL("users", u.ID),
				Metadata:  map[string]any{"approvalId": a.ID.String(), "status": string(a.Status)},
			}
		})
	}

	resp := toApprovalResponse(*a)
	return &resp, nil
}

// Package permission answers who may see and change users, contracts and
// properties. Every function is a pure function of its arguments: the user
// roster is a read-only snapshot and is never mutated.
package permission

import (
	"brokerdesk/internal/model"

	"github.com/google/uuid"
)

// MaxDepth bounds every walk along manager edges. Real hierarchies are at most
// four levels deep; anything longer is treated as malformed data.
const MaxDepth = 32

// RoleLevel ranks roles: super_admin=4 > education_manager=3 > sales_manager=2 > agent=1.
// Unknown roles rank 0.
func RoleLevel(r model.Role) int {
	switch r {
	case model.RoleSuperAdmin:
		return 4
	case model.RoleEducationManager:
		return 3
	case model.RoleSalesManager:
		return 2
	case model.RoleAgent:
		return 1
	default:
		return 0
	}
}

// CanManage is strict: equal ranks never manage each other.
func CanManage(acting, target model.Role) bool {
	return RoleLevel(acting) > RoleLevel(target)
}

// ValidManagerRole reports whether a user with managerRole may be the direct
// manager of a user with subordinateRole.
func ValidManagerRole(managerRole, subordinateRole model.Role) bool {
	return CanManage(managerRole, subordinateRole)
}

func IsAdmin(u model.User) bool { return u.Role == model.RoleSuperAdmin }

func IsManager(u model.User) bool {
	return u.Role == model.RoleEducationManager || u.Role == model.RoleSalesManager
}

// index builds an id lookup over the roster.
func index(users []model.User) map[uuid.UUID]*model.User {
	byID := make(map[uuid.UUID]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID
}

// IsSubordinate reports whether managerID appears among userID's ancestors.
// Returns false when userID is not in the roster. A user is never its own
// subordinate.
func IsSubordinate(managerID, userID uuid.UUID, users []model.User) bool {
	byID := index(users)
	u, ok := byID[userID]
	if !ok {
		return false
	}
	visited := map[uuid.UUID]bool{userID: true}
	for depth := 0; depth < MaxDepth && u.ManagerID != nil; depth++ {
		parent := *u.ManagerID
		if parent == managerID {
			return true
		}
		if visited[parent] {
			return false
		}
		visited[parent] = true
		if u, ok = byID[parent]; !ok {
			return false
		}
	}
	return false
}

// SubordinateIDs returns every descendant of managerID (direct and indirect).
// managerID itself is never included, even on a malformed cycle.
func SubordinateIDs(managerID uuid.UUID, users []model.User) map[uuid.UUID]struct{} {
	children := make(map[uuid.UUID][]uuid.UUID)
	for _, u := range users {
		if u.ManagerID != nil {
			children[*u.ManagerID] = append(children[*u.ManagerID], u.ID)
		}
	}

	out := make(map[uuid.UUID]struct{})
	seen := map[uuid.UUID]bool{managerID: true}
	frontier := []uuid.UUID{managerID}
	for depth := 0; depth < MaxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, id := range frontier {
			for _, child := range children[id] {
				if seen[child] {
					continue
				}
				seen[child] = true
				out[child] = struct{}{}
				next = append(next, child)
			}
		}
		frontier = next
	}
	return out
}

// DirectSubordinates returns the users whose manager is managerID.
func DirectSubordinates(managerID uuid.UUID, users []model.User) []model.User {
	var out []model.User
	for _, u := range users {
		if u.ManagerID != nil && *u.ManagerID == managerID && u.ID != managerID {
			out = append(out, u)
		}
	}
	return out
}

func isDirectReport(manager, target model.User) bool {
	return target.ManagerID != nil && *target.ManagerID == manager.ID
}

func inSubtree(acting model.User, ownerID uuid.UUID, users []model.User) bool {
	_, ok := SubordinateIDs(acting.ID, users)[ownerID]
	return ok
}

// ── Users ────────────────────────────────────────────────────────────────────

// CanViewUser only looks one edge up or down the hierarchy.
func CanViewUser(acting, target model.User) bool {
	if IsAdmin(acting) || acting.ID == target.ID {
		return true
	}
	if acting.ManagerID != nil && *acting.ManagerID == target.ID {
		return true
	}
	return isDirectReport(acting, target)
}

func CanEditUser(acting, target model.User) bool {
	if IsAdmin(acting) || acting.ID == target.ID {
		return true
	}
	return isDirectReport(acting, target) && CanManage(acting.Role, target.Role)
}

func CanDeleteUser(acting, _ model.User) bool { return IsAdmin(acting) }

func CanApproveUser(acting model.User) bool { return IsAdmin(acting) }

func CanCreateUserWithRole(acting model.User, newRole model.Role) bool {
	switch acting.Role {
	case model.RoleSuperAdmin:
		return RoleLevel(newRole) > 0
	case model.RoleEducationManager:
		return newRole == model.RoleSalesManager || newRole == model.RoleAgent
	case model.RoleSalesManager:
		return newRole == model.RoleAgent
	default:
		return false
	}
}

// CanViewTeam gates the team and hierarchy views of a user.
func CanViewTeam(acting model.User, targetID uuid.UUID, users []model.User) bool {
	return IsAdmin(acting) || acting.ID == targetID || IsSubordinate(acting.ID, targetID, users)
}

// CanViewDetailedSales allows a sales_manager to see per-contract figures of
// direct reports only.
func CanViewDetailedSales(acting model.User, targetUserID uuid.UUID, users []model.User) bool {
	if IsAdmin(acting) || acting.ID == targetUserID {
		return true
	}
	if acting.Role != model.RoleSalesManager {
		return false
	}
	for _, u := range users {
		if u.ID == targetUserID {
			return isDirectReport(acting, u)
		}
	}
	return false
}

func CanViewCompanyStats(acting model.User) bool { return IsAdmin(acting) }

// ── Contracts ────────────────────────────────────────────────────────────────

func CanViewContract(acting model.User, c model.Contract, users []model.User) bool {
	if IsAdmin(acting) || c.AgentID == acting.ID {
		return true
	}
	return inSubtree(acting, c.AgentID, users)
}

// CanEditContract closes for everyone once the contract leaves pending.
func CanEditContract(acting model.User, c model.Contract) bool {
	if c.Status != model.ContractPending {
		return false
	}
	return IsAdmin(acting) || c.AgentID == acting.ID
}

func CanReviewContract(acting model.User) bool { return IsAdmin(acting) }

func CanPayContract(acting model.User) bool { return IsAdmin(acting) }

func CanUploadContract(model.User) bool { return true }

// CanViewCustomerData is true for the owning agent only. Super admins never
// see customer contact data, not even on contracts they uploaded.
func CanViewCustomerData(acting model.User, c model.Contract) bool {
	if IsAdmin(acting) {
		return false
	}
	return c.AgentID == acting.ID
}

// ── Properties ───────────────────────────────────────────────────────────────

func CanViewProperty(acting model.User, p model.Property, users []model.User) bool {
	if IsAdmin(acting) || p.OwnerID == acting.ID {
		return true
	}
	return inSubtree(acting, p.OwnerID, users)
}

func CanCreateProperty(model.User) bool { return true }

func CanEditProperty(acting model.User, p model.Property) bool {
	return IsAdmin(acting) || p.OwnerID == acting.ID
}

func CanDeleteProperty(acting model.User, p model.Property) bool {
	return IsAdmin(acting) || p.OwnerID == acting.ID
}

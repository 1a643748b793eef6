package service

import (
	"context"
	"time"

	"brokerdesk/internal/cache"
	"brokerdesk/internal/model"
	"brokerdesk/internal/permission"
	"brokerdesk/internal/repository"

	"github.com/google/uuid"
)

// Roster is the cached user snapshot every permission check runs against.
// Services share one Roster so a user write is visible to all of them.
type Roster struct {
	repo  repository.UserRepository
	cache *cache.Collection[model.User]
}

func NewRoster(repo repository.UserRepository, ttl time.Duration) *Roster {
	return &Roster{
		repo:  repo,
		cache: cache.New[model.User]("users", ttl, func(u model.User) uuid.UUID { return u.ID }),
	}
}

func (r *Roster) Users(ctx context.Context) ([]model.User, error) {
	return r.cache.Load(ctx, r.repo.List)
}

func (r *Roster) Put(u model.User) { r.cache.Upsert(u) }

func (r *Roster) Drop(id uuid.UUID) { r.cache.Remove(id) }

func findUser(users []model.User, id uuid.UUID) (model.User, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return model.User{}, false
}

func activeAdmins(users []model.User) []model.User {
	var out []model.User
	for _, u := range users {
		if permission.IsAdmin(u) && u.IsActive() {
			out = append(out, u)
		}
	}
	return out
}

// scope is the set of owners whose contracts and properties the actor sees:
// everyone for super_admin, otherwise self plus the transitive subordinates.
type scope struct {
	all bool
	ids map[uuid.UUID]struct{}
}

func scopeFor(actor model.User, users []model.User) scope {
	if permission.IsAdmin(actor) {
		return scope{all: true}
	}
	ids := permission.SubordinateIDs(actor.ID, users)
	ids[actor.ID] = struct{}{}
	return scope{ids: ids}
}

func (s scope) has(id uuid.UUID) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

package service

import (
	"context"
	"strings"
	"time"

	"brokerdesk/internal/cache"
	"brokerdesk/internal/dto"
	"brokerdesk/internal/model"
	"brokerdesk/internal/permission"
	"brokerdesk/internal/repository"
	"brokerdesk/internal/workflow"

	"github.com/google/uuid"
)

type PropertyService interface {
	List(ctx context.Context, actor model.User, q dto.PropertyQuery) ([]dto.PropertyResponse, error)
	Mine(ctx context.Context, actor model.User) ([]dto.PropertyResponse, error)
	// Team lists the listings of the actor's transitive subordinates.
	Team(ctx context.Context, actor model.User) ([]dto.PropertyResponse, error)
	Get(ctx context.Context, actor model.User, id uuid.UUID) (*dto.PropertyResponse, error)
	Create(ctx context.Context, actor model.User, req dto.CreatePropertyRequest) (*dto.PropertyResponse, error)
	Update(ctx context.Context, actor model.User, id uuid.UUID, req dto.UpdatePropertyRequest) (*dto.PropertyResponse, error)
	Delete(ctx context.Context, actor model.User, id uuid.UUID) error
	Statistics(ctx context.Context, actor model.User, ownerID uuid.UUID) (*workflow.PropertyStatistics, error)
}

type propertyService struct {
	repo     repository.PropertyRepository
	roster   *Roster
	cache    *cache.Collection[model.Property]
	notifier Notifier
}

func NewPropertyService(repo repository.PropertyRepository, roster *Roster, notifier Notifier, ttl time.Duration) PropertyService {
	return &propertyService{
		repo:     repo,
		roster:   roster,
		cache:    cache.New[model.Property]("properties", ttl, func(p model.Property) uuid.UUID { return p.ID }),
		notifier: notifier,
	}
}

func (s *propertyService) all(ctx context.Context) ([]model.Property, error) {
	return s.cache.Load(ctx, func(ctx context.Context) ([]model.Property, error) {
		return s.repo.List(ctx, dto.PropertyFilter{})
	})
}

func (s *propertyService) filter(ctx context.Context, actor model.User, keep func(model.Property, scope) bool) ([]dto.PropertyResponse, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	props, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	sc := scopeFor(actor, users)
	out := make([]dto.PropertyResponse, 0, len(props))
	for _, p := range props {
		if keep(p, sc) {
			out = append(out, toPropertyResponse(p))
		}
	}
	return out, nil
}

func (s *propertyService) List(ctx context.Context, actor model.User, q dto.PropertyQuery) ([]dto.PropertyResponse, error) {
	var owner uuid.UUID
	if q.OwnerID != "" {
		id, err := uuid.Parse(q.OwnerID)
		if err != nil {
			return nil, invalid("ownerId", "uuid", "ownerId is not a valid id")
		}
		owner = id
	}
	return s.filter(ctx, actor, func(p model.Property, sc scope) bool {
		if !sc.has(p.OwnerID) {
			return false
		}
		if q.Status != "" && string(p.Status) != q.Status {
			return false
		}
		if q.PropertyType != "" && string(p.PropertyType) != q.PropertyType {
			return false
		}
		return owner == uuid.Nil || p.OwnerID == owner
	})
}

func (s *propertyService) Mine(ctx context.Context, actor model.User) ([]dto.PropertyResponse, error) {
	return s.filter(ctx, actor, func(p model.Property, _ scope) bool { return p.OwnerID == actor.ID })
}

func (s *propertyService) Team(ctx context.Context, actor model.User) ([]dto.PropertyResponse, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	subs := permission.SubordinateIDs(actor.ID, users)
	return s.filter(ctx, actor, func(p model.Property, _ scope) bool {
		_, ok := subs[p.OwnerID]
		return ok
	})
}

func (s *propertyService) load(ctx context.Context, actor model.User, id uuid.UUID) (*model.Property, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "property")
	}
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewProperty(actor, *p, users) {
		return nil, forbidden("cannot view this property")
	}
	return p, nil
}

func (s *propertyService) Get(ctx context.Context, actor model.User, id uuid.UUID) (*dto.PropertyResponse, error) {
	p, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toPropertyResponse(*p)
	return &resp, nil
}

func (s *propertyService) Create(ctx context.Context, actor model.User, req dto.CreatePropertyRequest) (*dto.PropertyResponse, error) {
	if !permission.CanCreateProperty(actor) {
		return nil, forbidden("cannot create properties")
	}
	status := model.PropertyAvailable
	if req.Status != "" {
		status = model.PropertyStatus(req.Status)
	}
	p := &model.Property{
		OwnerID:        actor.ID,
		OwnerName:      actor.Name,
		OwnerRole:      actor.Role,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		PropertyType:   model.PropertyType(req.PropertyType),
		Status:         status,
		Address:        req.Address,
		City:           req.City,
		Province:       req.Province,
		PostalCode:     req.PostalCode,
		Price:          req.Price,
		Bedrooms:       req.Bedrooms,
		Bathrooms:      req.Bathrooms,
		ParkingSpaces:  req.ParkingSpaces,
		AreaSqm:        req.AreaSqm,
		YearBuilt:      req.YearBuilt,
		Images:         req.Images,
		VirtualTourURL: req.VirtualTourURL,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Upsert(*p)
	resp := toPropertyResponse(*p)
	return &resp, nil
}

func (s *propertyService) Update(ctx context.Context, actor model.User, id uuid.UUID, req dto.UpdatePropertyRequest) (*dto.PropertyResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "property")
	}
	if !permission.CanEditProperty(actor, *p) {
		return nil, forbidden("cannot edit this property")
	}
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, invalid("price", "gt", "price must be greater than zero")
	}

	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
	}
	setIfPresent(&p.Description, req.Description)
	setIfPresent(&p.Address, req.Address)
	setIfPresent(&p.City, req.City)
	setIfPresent(&p.Province, req.Province)
	setIfPresent(&p.PostalCode, req.PostalCode)
	setIfPresent(&p.VirtualTourURL, req.VirtualTourURL)
	if req.PropertyType != nil {
		p.PropertyType = model.PropertyType(*req.PropertyType)
	}
	if req.Status != nil {
		p.Status = model.PropertyStatus(*req.Status)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Bedrooms != nil {
		p.Bedrooms = req.Bedrooms
	}
	if req.Bathrooms != nil {
		p.Bathrooms = req.Bathrooms
	}
	if req.ParkingSpaces != nil {
		p.ParkingSpaces = req.ParkingSpaces
	}
	if req.AreaSqm != nil {
		p.AreaSqm = req.AreaSqm
	}
	if req.YearBuilt != nil {
		p.YearBuilt = req.YearBuilt
	}
	if req.Images != nil {
		p.Images = req.Images
	}
	if req.ContractID != nil {
		if *req.ContractID == "" {
			p.ContractID = nil
		} else {
			cid, err := uuid.Parse(*req.ContractID)
			if err != nil {
				return nil, invalid("contractId", "uuid", "contractId is not a valid id")
			}
			p.ContractID = &cid
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, writeErr(err, "property")
	}
	s.cache.Upsert(*p)

	if p.OwnerID != actor.ID {
		if users, err := s.roster.Users(ctx); err == nil {
			if owner, ok := findUser(users, p.OwnerID); ok {
				notify(ctx, s.notifier, []model.User{owner}, actor, func(model.User) model.Notification {
					return model.Notification{
						Type:      model.NotificationPropertyUpdate,
						Title:     "Listing updated",
						Message:   actor.Name + " updated your listing " + p.Title,
						ActionURL: actionURL("properties", p.ID),
						Metadata:  map[string]any{"propertyId": p.ID.String()},
					}
				})
			}
		}
	}

	resp := toPropertyResponse(*p)
	return &resp, nil
}

func (s *propertyService) Delete(ctx context.Context, actor model.User, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "property")
	}
	if !permission.CanDeleteProperty(actor, *p) {
		return forbidden("cannot delete this property")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeErr(err, "property")
	}
	s.cache.Remove(id)
	return nil
}

// Statistics covers one owner when ownerID is set, otherwise every listing
// the actor can see.
func (s *propertyService) Statistics(ctx context.Context, actor model.User, ownerID uuid.UUID) (*workflow.PropertyStatistics, error) {
	users, err := s.roster.Users(ctx)
	if err != nil {
		return nil, err
	}
	sc := scopeFor(actor, users)
	if ownerID != uuid.Nil && !sc.has(ownerID) {
		return nil, forbidden("cannot view this user's listings")
	}
	props, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	selected := props[:0]
	for _, p := range props {
		if sc.has(p.OwnerID) && (ownerID == uuid.Nil || p.OwnerID == ownerID) {
			selected = append(selected, p)
		}
	}
	st := workflow.PropertyStats(selected)
	return &st, nil
}

package catalog

import (
	"context"
	"errors"

	appordering "github.com/foodontracks/backend/internal/application/ordering"
	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrOwnerAlreadyLinked is returned when an owner already manages a restaurant
var ErrOwnerAlreadyLinked = shared.NewConflictError("Owner already manages a restaurant")

// Cache is the read-through cache for restaurants and menus.
// *cache.CatalogCache satisfies it.
type Cache interface {
	GetMenu(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.MenuItem, bool)
	SetMenu(ctx context.Context, restaurantID uuid.UUID, items []*catalog.MenuItem)
	GetRestaurant(ctx context.Context, restaurantID uuid.UUID) (*catalog.Restaurant, bool)
	SetRestaurant(ctx context.Context, r *catalog.Restaurant)
	Invalidate(ctx context.Context, restaurantID uuid.UUID)
}

// RestaurantService manages restaurants
type RestaurantService struct {
	restaurants catalog.RestaurantRepository
	scope       appordering.TransactionScope
	cache       Cache
	logger      *zap.Logger
}

// NewRestaurantService creates a new RestaurantService
func NewRestaurantService(restaurants catalog.RestaurantRepository, scope appordering.TransactionScope, logger *zap.Logger) *RestaurantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestaurantService{
		restaurants: restaurants,
		scope:       scope,
		logger:      logger,
	}
}

// SetCache enables read-through caching
func (s *RestaurantService) SetCache(c Cache) {
	s.cache = c
}

// CreateRestaurant creates a restaurant and links it to its owner.
// Owners create their own restaurant; admins must name an existing owner.
func (s *RestaurantService) CreateRestaurant(ctx context.Context, actor identity.Actor, req CreateRestaurantRequest) (*RestaurantResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "CreateRestaurant")
	defer span.End()

	var ownerID uuid.UUID
	switch actor.Role {
	case identity.RoleRestaurantOwner:
		if actor.RestaurantID != nil {
			return nil, ErrOwnerAlreadyLinked
		}
		ownerID = actor.UserID
	case identity.RoleAdmin:
		if req.OwnerID == nil || *req.OwnerID == uuid.Nil {
			return nil, shared.NewValidationError("ownerId is required when an admin creates a restaurant")
		}
		ownerID = *req.OwnerID
	default:
		return nil, shared.ErrForbidden
	}

	var restaurant *catalog.Restaurant
	err := s.scope.Execute(ctx, func(repos appordering.TransactionalRepositories) error {
		owner, err := repos.Users().FindByID(ctx, ownerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewNotFoundError("Owner")
			}
			return err
		}
		if owner.RestaurantID != nil {
			return ErrOwnerAlreadyLinked
		}

		restaurant, err = catalog.NewRestaurant(owner.ID, req.Name, req.Address, req.Cuisine)
		if err != nil {
			return err
		}
		if req.Phone != "" {
			if err := restaurant.UpdateDetails(req.Name, req.Address, req.Cuisine, req.Phone); err != nil {
				return err
			}
		}
		if err := owner.LinkRestaurant(restaurant.ID); err != nil {
			return err
		}
		if err := repos.Restaurants().Create(ctx, restaurant); err != nil {
			return err
		}
		return repos.Users().Update(ctx, owner)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Restaurant created",
		zap.String("restaurant_id", restaurant.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.String("created_by", actor.UserID.String()),
	)
	resp := ToRestaurantResponse(restaurant)
	return &resp, nil
}

// GetRestaurant returns one restaurant, served from cache when possible
func (s *RestaurantService) GetRestaurant(ctx context.Context, id uuid.UUID) (*RestaurantResponse, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRestaurantResponse(r)
	return &resp, nil
}

// ListRestaurants lists restaurants with search and paging
func (s *RestaurantService) ListRestaurants(ctx context.Context, q ListRestaurantsQuery) (*shared.Paginated[RestaurantResponse], error) {
	filter := catalog.RestaurantFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  q.OrderBy,
			OrderDir: q.OrderDir,
			Search:   q.Search,
		},
		Cuisine:  q.Cuisine,
		OpenOnly: q.OpenOnly,
	}
	f := filter.Normalize()

	restaurants, total, err := s.restaurants.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]RestaurantResponse, len(restaurants))
	for i, r := range restaurants {
		items[i] = ToRestaurantResponse(r)
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// UpdateRestaurant applies a partial update. Only the owner or an admin may
// change a restaurant.
func (s *RestaurantService) UpdateRestaurant(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateRestaurantRequest) (*RestaurantResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "UpdateRestaurant",
		attribute.String("restaurant.id", id.String()))
	defer span.End()

	if err := authorizeManage(actor, id); err != nil {
		return nil, err
	}

	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Restaurant")
	}

	name, address, cuisine, phone := r.Name, r.Address, r.Cuisine, r.Phone
	if req.Name != nil {
		name = *req.Name
	}
	if req.Address != nil {
		address = *req.Address
	}
	if req.Cuisine != nil {
		cuisine = *req.Cuisine
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if err := r.UpdateDetails(name, address, cuisine, phone); err != nil {
		return nil, err
	}
	if req.IsOpen != nil {
		r.SetOpen(*req.IsOpen)
	}

	if err := s.restaurants.Update(ctx, r); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, id)

	s.logger.Info("Restaurant updated",
		zap.String("restaurant_id", id.String()),
		zap.String("updated_by", actor.UserID.String()),
		zap.Bool("is_open", r.IsOpen),
	)
	resp := ToRestaurantResponse(r)
	return &resp, nil
}

// DeleteRestaurant removes a restaurant and unlinks its owner. Admin only.
func (s *RestaurantService) DeleteRestaurant(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "DeleteRestaurant",
		attribute.String("restaurant.id", id.String()))
	defer span.End()

	if !actor.IsAdmin() {
		return shared.ErrForbidden
	}

	err := s.scope.Execute(ctx, func(repos appordering.TransactionalRepositories) error {
		r, err := repos.Restaurants().FindByID(ctx, id)
		if err != nil {
			return notFound(err, "Restaurant")
		}
		if err := repos.Restaurants().Delete(ctx, id); err != nil {
			return err
		}
		owner, err := repos.Users().FindByID(ctx, r.OwnerID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if owner.RestaurantID == nil || *owner.RestaurantID != id {
			return nil
		}
		owner.UnlinkRestaurant()
		return repos.Users().Update(ctx, owner)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.invalidate(ctx, id)

	s.logger.Info("Restaurant deleted",
		zap.String("restaurant_id", id.String()),
		zap.String("deleted_by", actor.UserID.String()),
	)
	return nil
}

func (s *RestaurantService) load(ctx context.Context, id uuid.UUID) (*catalog.Restaurant, error) {
	if s.cache != nil {
		if r, ok := s.cache.GetRestaurant(ctx, id); ok {
			return r, nil
		}
	}
	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Restaurant")
	}
	if s.cache != nil {
		s.cache.SetRestaurant(ctx, r)
	}
	return r, nil
}

func (s *RestaurantService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

// authorizeManage allows admins and the restaurant's own owner
func authorizeManage(actor identity.Actor, restaurantID uuid.UUID) error {
	if actor.IsAdmin() || actor.OwnsRestaurant(restaurantID) {
		return nil
	}
	return shared.ErrForbidden
}

func notFound(err error, entity string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(entity)
	}
	return err
}

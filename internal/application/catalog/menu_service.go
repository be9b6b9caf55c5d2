package catalog

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MenuService manages menu items and their images
type MenuService struct {
	restaurants catalog.RestaurantRepository
	items       catalog.MenuItemRepository
	cache       Cache
	images      ImageStorage
	imageConfig ImageConfig
	logger      *zap.Logger
}

// NewMenuService creates a new MenuService
func NewMenuService(restaurants catalog.RestaurantRepository, items catalog.MenuItemRepository, logger *zap.Logger) *MenuService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MenuService{
		restaurants: restaurants,
		items:       items,
		imageConfig: DefaultImageConfig(),
		logger:      logger,
	}
}

// SetCache enables read-through menu caching
func (s *MenuService) SetCache(c Cache) {
	s.cache = c
}

// SetImageStorage enables menu item photos
func (s *MenuService) SetImageStorage(storage ImageStorage, cfg ImageConfig) {
	s.images = storage
	s.imageConfig = cfg.withDefaults()
}

// ListMenu returns every item of a restaurant, including unavailable ones
func (s *MenuService) ListMenu(ctx context.Context, restaurantID uuid.UUID) ([]MenuItemResponse, error) {
	items, err := s.loadMenu(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	out := make([]MenuItemResponse, len(items))
	for i, item := range items {
		out[i] = s.toResponse(ctx, item)
	}
	return out, nil
}

// GetMenuItem returns one menu item
func (s *MenuService) GetMenuItem(ctx context.Context, id uuid.UUID) (*MenuItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Menu item")
	}
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// CreateMenuItem adds an item to a restaurant's menu
func (s *MenuService) CreateMenuItem(ctx context.Context, actor identity.Actor, restaurantID uuid.UUID, req CreateMenuItemRequest) (*MenuItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "CreateMenuItem",
		attribute.String("restaurant.id", restaurantID.String()))
	defer span.End()

	if err := authorizeManage(actor, restaurantID); err != nil {
		return nil, err
	}
	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		return nil, notFound(err, "Restaurant")
	}

	item, err := catalog.NewMenuItem(restaurantID, req.Name, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if err := item.Update(req.Name, req.Description, req.Category, req.Price); err != nil {
		return nil, err
	}
	if req.IsAvailable != nil {
		item.SetAvailable(*req.IsAvailable)
	}

	if err := s.items.Create(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, restaurantID)

	s.logger.Info("Menu item created",
		zap.String("menu_item_id", item.ID.String()),
		zap.String("restaurant_id", restaurantID.String()),
	)
	resp := ToMenuItemResponse(item)
	return &resp, nil
}

// UpdateMenuItem applies a partial update
func (s *MenuService) UpdateMenuItem(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateMenuItemRequest) (*MenuItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "UpdateMenuItem",
		attribute.String("menu_item.id", id.String()))
	defer span.End()

	item, err := s.findManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	name, description, category, price := item.Name, item.Description, item.Category, item.Price
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Category != nil {
		category = *req.Category
	}
	if req.Price != nil {
		price = *req.Price
	}
	if err := item.Update(name, description, category, price); err != nil {
		return nil, err
	}
	if req.IsAvailable != nil {
		item.SetAvailable(*req.IsAvailable)
	}

	if err := s.items.Update(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, item.RestaurantID)

	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// Restock sets the absolute stock count of an item
func (s *MenuService) Restock(ctx context.Context, actor identity.Actor, id uuid.UUID, stock int) (*MenuItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "Restock",
		attribute.String("menu_item.id", id.String()),
		attribute.Int("menu_item.stock", stock),
	)
	defer span.End()

	item, err := s.findManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	previous := item.Stock
	if err := item.SetStock(stock); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, item); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.invalidate(ctx, item.RestaurantID)

	s.logger.Info("Menu item restocked",
		zap.String("menu_item_id", id.String()),
		zap.Int("previous_stock", previous),
		zap.Int("stock", stock),
	)
	resp := s.toResponse(ctx, item)
	return &resp, nil
}

// DeleteMenuItem removes an item and, best effort, its photo
func (s *MenuService) DeleteMenuItem(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "DeleteMenuItem",
		attribute.String("menu_item.id", id.String()))
	defer span.End()

	item, err := s.findManaged(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return notFound(err, "Menu item")
	}
	s.invalidate(ctx, item.RestaurantID)
	s.deleteImage(ctx, item.ImageKey)

	s.logger.Info("Menu item deleted",
		zap.String("menu_item_id", id.String()),
		zap.String("deleted_by", actor.UserID.String()),
	)
	return nil
}

func (s *MenuService) findManaged(ctx context.Context, actor identity.Actor, id uuid.UUID) (*catalog.MenuItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Menu item")
	}
	if err := authorizeManage(actor, item.RestaurantID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MenuService) loadMenu(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.MenuItem, error) {
	if s.cache != nil {
		if items, ok := s.cache.GetMenu(ctx, restaurantID); ok {
			return items, nil
		}
	}
	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		return nil, notFound(err, "Restaurant")
	}
	items, err := s.items.FindByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetMenu(ctx, restaurantID, items)
	}
	return items, nil
}

func (s *MenuService) invalidate(ctx context.Context, restaurantID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, restaurantID)
	}
}

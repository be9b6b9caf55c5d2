package persistence

import (
	"context"
	"time"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMenuItemRepository implements catalog.MenuItemRepository using GORM
type GormMenuItemRepository struct {
	db *gorm.DB
}

// NewGormMenuItemRepository creates a new GormMenuItemRepository
func NewGormMenuItemRepository(db *gorm.DB) *GormMenuItemRepository {
	return &GormMenuItemRepository{db: db}
}

// Create inserts a menu item
func (r *GormMenuItemRepository) Create(ctx context.Context, item *catalog.MenuItem) error {
	model := models.MenuItemModelFromDomain(item)
	return translateError("menu_item.create", r.db.WithContext(ctx).Create(model).Error)
}

// Update saves a menu item
func (r *GormMenuItemRepository) Update(ctx context.Context, item *catalog.MenuItem) error {
	model := models.MenuItemModelFromDomain(item)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return translateError("menu_item.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a menu item
func (r *GormMenuItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MenuItemModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError("menu_item.delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a menu item by ID
func (r *GormMenuItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	var model models.MenuItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("menu_item.find", err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given menu items; missing ids are simply absent
func (r *GormMenuItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.MenuItem, error) {
	if len(ids) == 0 {
		return []*catalog.MenuItem{}, nil
	}
	var rows []*models.MenuItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError("menu_item.find_many", err)
	}
	items := make([]*catalog.MenuItem, len(rows))
	for i, m := range rows {
		items[i] = m.ToDomain()
	}
	return items, nil
}

// FindByRestaurant lists a restaurant's menu ordered by category then name
func (r *GormMenuItemRepository) FindByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.MenuItem, error) {
	var rows []*models.MenuItemModel
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("category ASC").Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("menu_item.list", err)
	}
	items := make([]*catalog.MenuItem, len(rows))
	for i, m := range rows {
		items[i] = m.ToDomain()
	}
	return items, nil
}

// DecrementStock runs the guarded conditional update
// stock = stock - q WHERE id = ? AND stock >= q
func (r *GormMenuItemRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, shared.NewValidationError("Quantity must be positive")
	}
	result := r.db.WithContext(ctx).Model(&models.MenuItemModel{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, translateError("menu_item.decrement_stock", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IncrementStock returns units to stock
func (r *GormMenuItemRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return shared.NewValidationError("Quantity must be positive")
	}
	result := r.db.WithContext(ctx).Model(&models.MenuItemModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", quantity),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError("menu_item.increment_stock", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.MenuItemRepository = (*GormMenuItemRepository)(nil)

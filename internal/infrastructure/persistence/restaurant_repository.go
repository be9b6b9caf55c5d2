package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormRestaurantRepository implements catalog.RestaurantRepository using GORM
type GormRestaurantRepository struct {
	db *gorm.DB
}

// NewGormRestaurantRepository creates a new GormRestaurantRepository
func NewGormRestaurantRepository(db *gorm.DB) *GormRestaurantRepository {
	return &GormRestaurantRepository{db: db}
}

// Create inserts a restaurant
func (r *GormRestaurantRepository) Create(ctx context.Context, restaurant *catalog.Restaurant) error {
	model := models.RestaurantModelFromDomain(restaurant)
	return translateError("restaurant.create", r.db.WithContext(ctx).Create(model).Error)
}

// Update saves a restaurant
func (r *GormRestaurantRepository) Update(ctx context.Context, restaurant *catalog.Restaurant) error {
	model := models.RestaurantModelFromDomain(restaurant)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return translateError("restaurant.update", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a restaurant by ID
func (r *GormRestaurantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RestaurantModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError("restaurant.delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a restaurant by ID
func (r *GormRestaurantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Restaurant, error) {
	var model models.RestaurantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("restaurant.find", err)
	}
	return model.ToDomain(), nil
}

// FindAll lists restaurants with search, cuisine and paging
func (r *GormRestaurantRepository) FindAll(ctx context.Context, filter catalog.RestaurantFilter) ([]*catalog.Restaurant, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.RestaurantModel{})

	if key := catalog.SearchKey(f.Search); key != "" {
		query = query.Where(`search_key LIKE ? ESCAPE '\'`, containsPattern(key))
	}
	if c := strings.TrimSpace(filter.Cuisine); c != "" {
		query = query.Where("LOWER(cuisine) = ?", strings.ToLower(c))
	}
	if filter.OpenOnly {
		query = query.Where("is_open = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("restaurant.count", err)
	}

	var rows []*models.RestaurantModel
	if err := query.
		Order(restaurantSort.clause(f.OrderBy, f.OrderDir)).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError("restaurant.list", err)
	}

	restaurants := make([]*catalog.Restaurant, len(rows))
	for i, m := range rows {
		restaurants[i] = m.ToDomain()
	}
	return restaurants, total, nil
}

// UpdateRating writes the rating aggregate
func (r *GormRestaurantRepository) UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int) error {
	result := r.db.WithContext(ctx).Model(&models.RestaurantModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"average_rating": average.Round(2),
			"review_count":   count,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError("restaurant.update_rating", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.RestaurantRepository = (*GormRestaurantRepository)(nil)

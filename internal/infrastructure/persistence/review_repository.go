package persistence

import (
	"context"
	"database/sql"

	"github.com/foodontracks/backend/internal/domain/review"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReviewRepository implements review.ReviewRepository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Create inserts a review; the unique index on order_id yields ErrAlreadyExists
func (r *GormReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	model := models.ReviewModelFromDomain(rv)
	return translateError("review.create", r.db.WithContext(ctx).Create(model).Error)
}

// Delete removes a review
func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ReviewModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError("review.delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a review by ID
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	var model models.ReviewModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("review.find", err)
	}
	return model.ToDomain(), nil
}

// ExistsForOrder reports whether the order already has a review
func (r *GormReviewRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ReviewModel{}).
		Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, translateError("review.exists", err)
	}
	return count > 0, nil
}

// FindByRestaurant lists a restaurant's reviews
func (r *GormReviewRepository) FindByRestaurant(ctx context.Context, restaurantID uuid.UUID, filter shared.Filter) ([]*review.Review, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ReviewModel{}).Where("restaurant_id = ?", restaurantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("review.count", err)
	}
	var rows []*models.ReviewModel
	if err := query.
		Order(reviewSort.clause(f.OrderBy, f.OrderDir)).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError("review.list", err)
	}
	reviews := make([]*review.Review, len(rows))
	for i, m := range rows {
		reviews[i] = m.ToDomain()
	}
	return reviews, total, nil
}

// SummarizeRestaurant computes AVG(restaurant_rating) and COUNT(*)
func (r *GormReviewRepository) SummarizeRestaurant(ctx context.Context, restaurantID uuid.UUID) (review.RatingSummary, error) {
	var row struct {
		Average sql.NullFloat64
		Count   int64
	}
	if err := r.db.WithContext(ctx).Model(&models.ReviewModel{}).
		Select("AVG(restaurant_rating) AS average, COUNT(*) AS count").
		Where("restaurant_id = ?", restaurantID).
		Scan(&row).Error; err != nil {
		return review.RatingSummary{}, translateError("review.summarize", err)
	}
	summary := review.RatingSummary{Average: decimal.Zero, Count: int(row.Count)}
	if row.Average.Valid {
		summary.Average = decimal.NewFromFloat(row.Average.Float64).Round(2)
	}
	return summary, nil
}

var _ review.ReviewRepository = (*GormReviewRepository)(nil)

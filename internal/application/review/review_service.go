package review

import (
	"context"
	"errors"

	appordering "github.com/foodontracks/backend/internal/application/ordering"
	"github.com/foodontracks/backend/internal/domain/catalog"
	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/ordering"
	"github.com/foodontracks/backend/internal/domain/review"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ErrReviewExists is returned for a second review of the same order
var ErrReviewExists = shared.NewConflictError("A review already exists for this order")

// ReviewService creates, lists and moderates reviews
type ReviewService struct {
	scope       appordering.TransactionScope
	reviews     review.ReviewRepository
	restaurants catalog.RestaurantRepository
	cache       appordering.MenuInvalidator
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(scope appordering.TransactionScope, reviews review.ReviewRepository, restaurants catalog.RestaurantRepository, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		scope:       scope,
		reviews:     reviews,
		restaurants: restaurants,
		logger:      logger,
	}
}

// SetCacheInvalidator sets the restaurant cache dropped after rating changes
func (s *ReviewService) SetCacheInvalidator(c appordering.MenuInvalidator) {
	s.cache = c
}

// CreateReview stores a review for a delivered order and recomputes the
// restaurant's rating in the same transaction.
func (s *ReviewService) CreateReview(ctx context.Context, actor identity.Actor, req CreateReviewRequest) (*CreateReviewResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "review", "CreateReview",
		attribute.String("order.id", req.OrderID.String()))
	defer span.End()

	var (
		created *review.Review
		summary review.RatingSummary
	)
	err := s.scope.Execute(ctx, func(repos appordering.TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, req.OrderID)
		if err != nil {
			return notFound(err, "Order")
		}
		if !ordering.CanAccess(actor, order) {
			return shared.NewNotFoundError("Order")
		}

		exists, err := repos.Reviews().ExistsForOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrReviewExists
		}

		created, err = review.NewReview(order, actor.UserID, review.Input{
			RestaurantRating:  req.RestaurantRating,
			RestaurantComment: req.RestaurantComment,
			DeliveryRating:    req.DeliveryRating,
			DeliveryComment:   req.DeliveryComment,
		})
		if err != nil {
			return err
		}
		if err := repos.Reviews().Create(ctx, created); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return ErrReviewExists
			}
			return err
		}

		summary, err = refreshRating(ctx, repos, order.RestaurantID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if !isClientError(err) {
			s.logger.Error("Failed to create review",
				zap.String("order_id", req.OrderID.String()),
				zap.String("user_id", actor.UserID.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	s.invalidate(ctx, created.RestaurantID)

	s.logger.Info("Review created",
		zap.String("review_id", created.ID.String()),
		zap.String("order_id", created.OrderID.String()),
		zap.String("restaurant_id", created.RestaurantID.String()),
		zap.Int("restaurant_rating", created.RestaurantReview.Rating),
		zap.String("average_rating", summary.Average.StringFixed(2)),
	)
	return &CreateReviewResult{
		Review: ToReviewResponse(created),
		Restaurant: RestaurantRating{
			RestaurantID:  created.RestaurantID,
			AverageRating: summary.Average.Round(2),
			ReviewCount:   summary.Count,
		},
	}, nil
}

// ListRestaurantReviews pages through a restaurant's reviews, newest first
func (s *ReviewService) ListRestaurantReviews(ctx context.Context, restaurantID uuid.UUID, q ListReviewsQuery) (*shared.Paginated[ReviewResponse], error) {
	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		return nil, notFound(err, "Restaurant")
	}
	filter := shared.Filter{
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  "created_at",
		OrderDir: q.OrderDir,
	}.Normalize()

	reviews, total, err := s.reviews.FindByRestaurant(ctx, restaurantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		items[i] = ToReviewResponse(r)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// DeleteReview removes a review and recomputes the rating. Admin only.
func (s *ReviewService) DeleteReview(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "review", "DeleteReview",
		attribute.String("review.id", id.String()))
	defer span.End()

	if !actor.IsAdmin() {
		return shared.ErrForbidden
	}

	var restaurantID uuid.UUID
	err := s.scope.Execute(ctx, func(repos appordering.TransactionalRepositories) error {
		r, err := repos.Reviews().FindByID(ctx, id)
		if err != nil {
			return notFound(err, "Review")
		}
		restaurantID = r.RestaurantID
		if err := repos.Reviews().Delete(ctx, id); err != nil {
			return notFound(err, "Review")
		}
		_, err = refreshRating(ctx, repos, restaurantID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.invalidate(ctx, restaurantID)

	s.logger.Info("Review deleted",
		zap.String("review_id", id.String()),
		zap.String("restaurant_id", restaurantID.String()),
		zap.String("deleted_by", actor.UserID.String()),
	)
	return nil
}

// refreshRating recomputes AVG and COUNT over the restaurant's reviews
func refreshRating(ctx context.Context, repos appordering.TransactionalRepositories, restaurantID uuid.UUID) (review.RatingSummary, error) {
	summary, err := repos.Reviews().SummarizeRestaurant(ctx, restaurantID)
	if err != nil {
		return review.RatingSummary{}, err
	}
	if err := repos.Restaurants().UpdateRating(ctx, restaurantID, summary.Average, summary.Count); err != nil {
		return review.RatingSummary{}, notFound(err, "Restaurant")
	}
	return summary, nil
}

func (s *ReviewService) invalidate(ctx context.Context, restaurantID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, restaurantID)
	}
}

func notFound(err error, entity string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(entity)
	}
	return err
}

func isClientError(err error) bool {
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr)
}

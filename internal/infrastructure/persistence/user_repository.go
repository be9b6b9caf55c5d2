package persistence

import (
	"context"

	"github.com/foodontracks/backend/internal/domain/identity"
	"github.com/foodontracks/backend/internal/domain/shared"
	"github.com/foodontracks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserRepository stores accounts in the users table. Emails are stored
// normalized, so lookups compare with plain equality on the unique index.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return translateError("user.create", r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error)
}

// Update writes the mutable account fields guarded by the version column
func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	err := updateVersioned(ctx, r.db, &models.UserModel{}, "user.update", user.ID, user.Version, map[string]any{
		"name":          user.Name,
		"phone":         user.Phone,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"restaurant_id": user.RestaurantID,
		"active":        user.Active,
		"last_login_at": user.LastLoginAt,
	})
	if err != nil {
		return err
	}
	user.IncrementVersion()
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.findOne(ctx, "user.find", "id = ?", id)
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "user.find_by_email", "email = ?", email)
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("email = ?", identity.NormalizeEmail(email)).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, translateError("user.exists", err)
	}
	return count > 0, nil
}

// FindAll backs the admin user listing
func (r *GormUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	f := filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	if f.Search != "" {
		like := containsPattern(identity.NormalizeEmail(f.Search))
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`, like, like)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", string(*filter.Role))
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("user.count", err)
	}
	if total == 0 {
		return []*identity.User{}, 0, nil
	}

	var rows []models.UserModel
	err := query.
		Order(userSort.clause(f.OrderBy, f.OrderDir)).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError("user.list", err)
	}

	users := make([]*identity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].ToDomain()
	}
	return users, total, nil
}

func (r *GormUserRepository) findOne(ctx context.Context, op, where string, arg any) (*identity.User, error) {
	var model models.UserModel
	if err := r.db.WithContext(ctx).Where(where, arg).First(&model).Error; err != nil {
		return nil, translateError(op, err)
	}
	return model.ToDomain(), nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)

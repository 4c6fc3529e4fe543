package repository

import (
	"context"
	"slices"
	"strings"

	"foros/internal/cache"
	"foros/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, bio string) error
	UpdateAvatar(ctx context.Context, id uint, avatarURL string) error
	UpdateRole(ctx context.Context, id uint, role string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) update(ctx context.Context, id uint, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, bio string) error {
	return r.update(ctx, id, "bio", bio)
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uint, avatarURL string) error {
	return r.update(ctx, id, "avatar", avatarURL)
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role string) error {
	return r.update(ctx, id, "role", role)
}

// Delete removes the user with everything they own. Votes they cast are
// removed and the affected counters rebuilt so hilo totals stay equal to the
// ledger. Every touched hilo leaves the cache after commit.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	var touched []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var votedHilos, ownHilos, commentedHilos, ownComentarios, ownForos []uint
		if err := tx.Model(&models.Vote{}).Where("user_id = ?", id).Pluck("hilo_id", &votedHilos).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Hilo{}).Where("user_id = ?", id).Pluck("id", &ownHilos).Error; err != nil {
			return err
		}
		if err := deleteHilos(tx, ownHilos); err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := recountHilos(tx, votedHilos); err != nil {
			return err
		}

		if err := tx.Model(&models.Comentario{}).Where("user_id = ?", id).Distinct().Pluck("hilo_id", &commentedHilos).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comentario{}).Where("user_id = ?", id).Pluck("id", &ownComentarios).Error; err != nil {
			return err
		}
		if err := deleteComentarioTrees(tx, ownComentarios); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR actor_id = ?", id, id).Delete(&models.Notificacion{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Foro{}).Where("created_by_id = ?", id).Pluck("id", &ownForos).Error; err != nil {
			return err
		}
		foroHilos, err := deleteForos(tx, ownForos)
		if err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("User", id)
		}
		touched = slices.Concat(votedHilos, ownHilos, commentedHilos, foroHilos)
		return nil
	})
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	cache.InvalidateHilos(ctx, touched...)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

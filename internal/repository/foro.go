package repository

import (
	"context"

	"foros/internal/cache"
	"foros/internal/models"

	"gorm.io/gorm"
)

// ForoRepository defines persistence operations for foros.
type ForoRepository interface {
	Create(ctx context.Context, foro *models.Foro) error
	GetByID(ctx context.Context, id uint) (*models.Foro, error)
	GetBySlug(ctx context.Context, slug string) (*models.Foro, error)
	List(ctx context.Context, limit, offset int) ([]*models.Foro, error)
	Update(ctx context.Context, foro *models.Foro) error
	Delete(ctx context.Context, id uint) error
}

type foroRepository struct {
	db *gorm.DB
}

func NewForoRepository(db *gorm.DB) ForoRepository {
	return &foroRepository{db: db}
}

func withHilosCount(db *gorm.DB) *gorm.DB {
	return db.Select("foros.*, (SELECT COUNT(*) FROM hilos WHERE hilos.foro_id = foros.id) AS hilos_count")
}

func (r *foroRepository) Create(ctx context.Context, foro *models.Foro) error {
	if err := r.db.WithContext(ctx).Omit("CreatedBy").Create(foro).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("A foro with that name already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *foroRepository) GetByID(ctx context.Context, id uint) (*models.Foro, error) {
	var foro models.Foro
	if err := withHilosCount(r.db.WithContext(ctx)).Preload("CreatedBy").First(&foro, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Foro", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &foro, nil
}

func (r *foroRepository) GetBySlug(ctx context.Context, slug string) (*models.Foro, error) {
	var foro models.Foro
	if err := withHilosCount(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&foro).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Foro", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &foro, nil
}

func (r *foroRepository) List(ctx context.Context, limit, offset int) ([]*models.Foro, error) {
	var foros []*models.Foro
	if err := withHilosCount(r.db.WithContext(ctx)).
		Order("name ASC").
		Limit(limit).
		Offset(offset).
		Find(&foros).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return foros, nil
}

// Update writes name, slug and description only.
func (r *foroRepository) Update(ctx context.Context, foro *models.Foro) error {
	res := r.db.WithContext(ctx).Model(foro).
		Select("name", "slug", "description", "updated_at").
		Updates(foro)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return models.NewValidationError("A foro with that name already exists")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Foro", foro.ID)
	}
	return nil
}

// Delete removes the foro with its hilos, their votes and comentarios.
func (r *foroRepository) Delete(ctx context.Context, id uint) error {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&models.Foro{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return models.NewInternalError(err)
	}
	if exists == 0 {
		return models.NewNotFoundError("Foro", id)
	}
	var hiloIDs []uint
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		hiloIDs, err = deleteForos(tx, []uint{id})
		return err
	}); err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateHilos(ctx, hiloIDs...)
	return nil
}

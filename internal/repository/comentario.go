package repository

import (
	"context"

	"foros/internal/cache"
	"foros/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ComentarioRepository defines persistence operations for comentarios.
type ComentarioRepository interface {
	Create(ctx context.Context, comentario *models.Comentario) error
	GetByID(ctx context.Context, id uint) (*models.Comentario, error)
	ListByHilo(ctx context.Context, hiloID uint, limit, offset int) ([]*models.Comentario, error)
	Delete(ctx context.Context, id uint) error
}

type comentarioRepository struct {
	db *gorm.DB
}

func NewComentarioRepository(db *gorm.DB) ComentarioRepository {
	return &comentarioRepository{db: db}
}

func (r *comentarioRepository) Create(ctx context.Context, comentario *models.Comentario) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comentario).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateHilo(ctx, comentario.HiloID)
	if err := r.db.WithContext(ctx).First(&comentario.User, comentario.UserID).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *comentarioRepository) GetByID(ctx context.Context, id uint) (*models.Comentario, error) {
	var comentario models.Comentario
	if err := r.db.WithContext(ctx).Preload("User").First(&comentario, id).Error; err != nil {
		if isNotFound(err) {
			return nil, models.NewNotFoundError("Comentario", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comentario, nil
}

// ListByHilo returns comentarios oldest first so replies follow their parents.
func (r *comentarioRepository) ListByHilo(ctx context.Context, hiloID uint, limit, offset int) ([]*models.Comentario, error) {
	var comentarios []*models.Comentario
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("hilo_id = ?", hiloID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&comentarios).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comentarios, nil
}

// Delete removes the comentario and its replies.
func (r *comentarioRepository) Delete(ctx context.Context, id uint) error {
	var hiloIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Comentario{}).Where("id = ?", id).Pluck("hilo_id", &hiloIDs).Error; err != nil {
			return err
		}
		if len(hiloIDs) == 0 {
			return models.NewNotFoundError("Comentario", id)
		}
		return deleteComentarioTrees(tx, []uint{id})
	})
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateHilos(ctx, hiloIDs...)
	return nil
}

package repository

import (
	"context"

	"foros/internal/cache"
	"foros/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Hilo listing orders.
const (
	SortNew = "new"
	SortTop = "top"
)

// HiloRepository defines persistence operations for hilos other than voting.
type HiloRepository interface {
	Create(ctx context.Context, hilo *models.Hilo) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Hilo, error)
	ListByForo(ctx context.Context, foroID uint, limit, offset int, sort string, viewerID uint) ([]*models.Hilo, error)
	UpdateContent(ctx context.Context, hilo *models.Hilo) error
	Delete(ctx context.Context, id uint) error
}

type hiloRepository struct {
	db *gorm.DB
}

func NewHiloRepository(db *gorm.DB) HiloRepository {
	return &hiloRepository{db: db}
}

// applyHiloDetails selects the comment count and, for a signed-in viewer,
// their vote in the same query.
func applyHiloDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "hilos.*, " +
		"(SELECT COUNT(*) FROM comentarios WHERE comentarios.hilo_id = hilos.id) AS comments_count"
	if viewerID != 0 {
		return db.Select(selectQuery+", COALESCE((SELECT votes.value FROM votes WHERE votes.hilo_id = hilos.id AND votes.user_id = ?), 0) AS my_vote", viewerID)
	}
	return db.Select(selectQuery + ", 0 AS my_vote")
}

func applyHiloSort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortTop:
		return db.Order("hilos.vote_count DESC").Order("hilos.created_at DESC").Order("hilos.id DESC")
	default:
		return db.Order("hilos.created_at DESC").Order("hilos.id DESC")
	}
}

// Create stores a new hilo with a zero counter and version.
func (r *hiloRepository) Create(ctx context.Context, hilo *models.Hilo) error {
	hilo.VoteCount = 0
	hilo.Version = 0
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(hilo).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID serves anonymous reads from the cache; viewer-specific reads go to
// the database so MyVote is fresh.
func (r *hiloRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Hilo, error) {
	var hilo models.Hilo
	fetch := func() error {
		err := applyHiloDetails(r.db.WithContext(ctx), viewerID).
			Preload("User").
			Where("hilos.id = ?", id).
			Take(&hilo).Error
		if err != nil {
			if isNotFound(err) {
				return models.NewNotFoundError("Hilo", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	var err error
	if viewerID == 0 {
		err = cache.Aside(ctx, cache.HiloKey(id), &hilo, cache.HiloTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return &hilo, nil
}

func (r *hiloRepository) ListByForo(ctx context.Context, foroID uint, limit, offset int, sort string, viewerID uint) ([]*models.Hilo, error) {
	var hilos []*models.Hilo
	base := applyHiloDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		Where("hilos.foro_id = ?", foroID)
	if err := applyHiloSort(base, sort).
		Limit(limit).
		Offset(offset).
		Find(&hilos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return hilos, nil
}

// UpdateContent writes title and content only; the counter columns belong to
// the vote path.
func (r *hiloRepository) UpdateContent(ctx context.Context, hilo *models.Hilo) error {
	res := r.db.WithContext(ctx).Model(&models.Hilo{}).
		Where("id = ?", hilo.ID).
		Select("title", "content", "updated_at").
		Updates(map[string]interface{}{
			"title":      hilo.Title,
			"content":    hilo.Content,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Hilo", hilo.ID)
	}
	cache.InvalidateHilo(ctx, hilo.ID)
	return nil
}

func (r *hiloRepository) Delete(ctx context.Context, id uint) error {
	var exists int64
	if err := r.db.WithContext(ctx).Model(&models.Hilo{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return models.NewInternalError(err)
	}
	if exists == 0 {
		return models.NewNotFoundError("Hilo", id)
	}
	if err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteHilos(tx, []uint{id})
	}); err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateHilo(ctx, id)
	return nil
}

package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"foros/internal/models"
	"foros/internal/repository"
)

const (
	maxHiloTitleLen   = 300
	maxHiloContentLen = 50000
)

type HiloService struct {
	hiloRepo repository.HiloRepository
	foroRepo repository.ForoRepository
	isAdmin  IsAdminFunc
}

type CreateHiloInput struct {
	UserID  uint
	ForoID  uint
	Title   string
	Content string
}

type UpdateHiloInput struct {
	UserID  uint
	HiloID  uint
	Title   string
	Content string
}

type ListHilosInput struct {
	ForoID   uint
	Limit    int
	Offset   int
	Sort     string
	ViewerID uint
}

func NewHiloService(hiloRepo repository.HiloRepository, foroRepo repository.ForoRepository, isAdmin IsAdminFunc) *HiloService {
	return &HiloService{hiloRepo: hiloRepo, foroRepo: foroRepo, isAdmin: isAdmin}
}

func validateHiloFields(title, content string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxHiloTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxHiloContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return nil
}

// CreateHilo opens a hilo in an existing foro with a zero vote count.
func (s *HiloService) CreateHilo(ctx context.Context, in CreateHiloInput) (*models.Hilo, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validateHiloFields(title, content); err != nil {
		return nil, err
	}
	if in.ForoID == 0 {
		return nil, models.NewValidationError("foroId is required")
	}
	if _, err := s.foroRepo.GetByID(ctx, in.ForoID); err != nil {
		return nil, err
	}

	hilo := &models.Hilo{
		ForoID:  in.ForoID,
		UserID:  in.UserID,
		Title:   title,
		Content: content,
	}
	if err := s.hiloRepo.Create(ctx, hilo); err != nil {
		return nil, err
	}
	return s.hiloRepo.GetByID(ctx, hilo.ID, in.UserID)
}

func (s *HiloService) GetHilo(ctx context.Context, id, viewerID uint) (*models.Hilo, error) {
	return s.hiloRepo.GetByID(ctx, id, viewerID)
}

func (s *HiloService) ListHilos(ctx context.Context, in ListHilosInput) ([]*models.Hilo, error) {
	sort := strings.ToLower(strings.TrimSpace(in.Sort))
	switch sort {
	case "":
		sort = repository.SortNew
	case repository.SortNew, repository.SortTop:
	default:
		return nil, models.NewValidationError("sort must be 'new' or 'top'")
	}
	if _, err := s.foroRepo.GetByID(ctx, in.ForoID); err != nil {
		return nil, err
	}
	limit, offset := normalizeLimit(in.Limit, in.Offset)
	return s.hiloRepo.ListByForo(ctx, in.ForoID, limit, offset, sort, in.ViewerID)
}

// UpdateHilo edits title and content. The vote counter is never written here.
func (s *HiloService) UpdateHilo(ctx context.Context, in UpdateHiloInput) (*models.Hilo, error) {
	hilo, err := s.hiloRepo.GetByID(ctx, in.HiloID, in.UserID)
	if err != nil {
		return nil, err
	}
	allowed, err := canModify(ctx, s.isAdmin, hilo.UserID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Only the author or an admin can edit this hilo")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = hilo.Title
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		content = hilo.Content
	}
	if err := validateHiloFields(title, content); err != nil {
		return nil, err
	}

	hilo.Title = title
	hilo.Content = content
	if err := s.hiloRepo.UpdateContent(ctx, hilo); err != nil {
		return nil, err
	}
	return hilo, nil
}

func (s *HiloService) DeleteHilo(ctx context.Context, hiloID, userID uint) error {
	hilo, err := s.hiloRepo.GetByID(ctx, hiloID, 0)
	if err != nil {
		return err
	}
	allowed, err := canModify(ctx, s.isAdmin, hilo.UserID, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return models.NewForbiddenError("Only the author or an admin can delete this hilo")
	}
	return s.hiloRepo.Delete(ctx, hiloID)
}

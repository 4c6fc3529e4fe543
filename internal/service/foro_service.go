package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"foros/internal/models"
	"foros/internal/repository"
	"foros/internal/validation"
)

const (
	maxForoNameLen        = 100
	maxForoDescriptionLen = 2000
)

type ForoService struct {
	foroRepo repository.ForoRepository
	isAdmin  IsAdminFunc
}

type CreateForoInput struct {
	UserID      uint
	Name        string
	Description string
}

type UpdateForoInput struct {
	UserID      uint
	ForoID      uint
	Name        string
	Description *string
}

func NewForoService(foroRepo repository.ForoRepository, isAdmin IsAdminFunc) *ForoService {
	return &ForoService{foroRepo: foroRepo, isAdmin: isAdmin}
}

func validateForoFields(name, description string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("Name is required")
	}
	if utf8.RuneCountInString(name) > maxForoNameLen {
		return "", models.NewValidationError("Name too long (max 100 characters)")
	}
	if utf8.RuneCountInString(description) > maxForoDescriptionLen {
		return "", models.NewValidationError("Description too long (max 2000 characters)")
	}
	slug := validation.Slugify(name)
	if err := validation.ValidateForoSlug(slug); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return slug, nil
}

func (s *ForoService) CreateForo(ctx context.Context, in CreateForoInput) (*models.Foro, error) {
	slug, err := validateForoFields(in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	foro := &models.Foro{
		Name:        strings.TrimSpace(in.Name),
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
		CreatedByID: in.UserID,
	}
	if err := s.foroRepo.Create(ctx, foro); err != nil {
		return nil, err
	}
	return foro, nil
}

func (s *ForoService) GetForo(ctx context.Context, id uint) (*models.Foro, error) {
	return s.foroRepo.GetByID(ctx, id)
}

func (s *ForoService) GetForoBySlug(ctx context.Context, slug string) (*models.Foro, error) {
	return s.foroRepo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

func (s *ForoService) ListForos(ctx context.Context, limit, offset int) ([]*models.Foro, error) {
	limit, offset = normalizeLimit(limit, offset)
	return s.foroRepo.List(ctx, limit, offset)
}

// UpdateForo renames the foro (regenerating its slug) and optionally replaces
// the description. Only the creator or an admin may update.
func (s *ForoService) UpdateForo(ctx context.Context, in UpdateForoInput) (*models.Foro, error) {
	foro, err := s.foroRepo.GetByID(ctx, in.ForoID)
	if err != nil {
		return nil, err
	}
	allowed, err := canModify(ctx, s.isAdmin, foro.CreatedByID, in.UserID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Only the creator or an admin can edit this foro")
	}

	name := in.Name
	if strings.TrimSpace(name) == "" {
		name = foro.Name
	}
	description := foro.Description
	if in.Description != nil {
		description = strings.TrimSpace(*in.Description)
	}
	slug, err := validateForoFields(name, description)
	if err != nil {
		return nil, err
	}

	foro.Name = strings.TrimSpace(name)
	foro.Slug = slug
	foro.Description = description
	if err := s.foroRepo.Update(ctx, foro); err != nil {
		return nil, err
	}
	return foro, nil
}

func (s *ForoService) DeleteForo(ctx context.Context, foroID, userID uint) error {
	foro, err := s.foroRepo.GetByID(ctx, foroID)
	if err != nil {
		return err
	}
	allowed, err := canModify(ctx, s.isAdmin, foro.CreatedByID, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return models.NewForbiddenError("Only the creator or an admin can delete this foro")
	}
	return s.foroRepo.Delete(ctx, foroID)
}

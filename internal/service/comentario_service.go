package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"foros/internal/featureflags"
	"foros/internal/middleware"
	"foros/internal/models"
	"foros/internal/repository"
)

const maxComentarioLen = 10000

type ComentarioService struct {
	comentarioRepo repository.ComentarioRepository
	hiloRepo       repository.HiloRepository
	notificaciones *NotificacionService
	flags          FlagChecker
	isAdmin        IsAdminFunc
}

type CreateComentarioInput struct {
	UserID   uint
	HiloID   uint
	ParentID *uint
	Content  string
}

func NewComentarioService(
	comentarioRepo repository.ComentarioRepository,
	hiloRepo repository.HiloRepository,
	notificaciones *NotificacionService,
	flags FlagChecker,
	isAdmin IsAdminFunc,
) *ComentarioService {
	return &ComentarioService{
		comentarioRepo: comentarioRepo,
		hiloRepo:       hiloRepo,
		notificaciones: notificaciones,
		flags:          flags,
		isAdmin:        isAdmin,
	}
}

func (s *ComentarioService) ListComentarios(ctx context.Context, hiloID uint, limit, offset int) ([]*models.Comentario, error) {
	if _, err := s.hiloRepo.GetByID(ctx, hiloID, 0); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	limit, offset = normalizeLimit(limit, offset)
	return s.comentarioRepo.ListByHilo(ctx, hiloID, limit, offset)
}

// CreateComentario adds a comment, optionally as a reply to another comment on
// the same hilo, and notifies the hilo author and the parent comment author.
func (s *ComentarioService) CreateComentario(ctx context.Context, in CreateComentarioInput) (*models.Comentario, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxComentarioLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	hilo, err := s.hiloRepo.GetByID(ctx, in.HiloID, 0)
	if err != nil {
		return nil, err
	}

	var parent *models.Comentario
	if in.ParentID != nil {
		parent, err = s.comentarioRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError("Parent comment not found")
			}
			return nil, err
		}
		if parent.HiloID != hilo.ID {
			return nil, models.NewValidationError("Parent comment belongs to another hilo")
		}
	}

	comentario := &models.Comentario{
		HiloID:   hilo.ID,
		UserID:   in.UserID,
		ParentID: in.ParentID,
		Content:  content,
	}
	if err := s.comentarioRepo.Create(ctx, comentario); err != nil {
		return nil, err
	}

	s.notifyParticipants(ctx, hilo, parent, comentario)
	return comentario, nil
}

func (s *ComentarioService) notifyParticipants(ctx context.Context, hilo *models.Hilo, parent *models.Comentario, c *models.Comentario) {
	if s.notificaciones == nil {
		return
	}
	actorID, hiloID, comentarioID := c.UserID, hilo.ID, c.ID
	notify := func(recipient uint, kind, message string) {
		err := s.notificaciones.Notify(ctx, &models.Notificacion{
			UserID:       recipient,
			ActorID:      &actorID,
			Type:         kind,
			HiloID:       &hiloID,
			ComentarioID: &comentarioID,
			Message:      message,
		})
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to create comment notification",
				"recipient_id", recipient, "comentario_id", comentarioID, "error", err)
		}
	}

	if hilo.UserID != c.UserID {
		notify(hilo.UserID, models.NotificacionComment, "New comment on \""+truncate(hilo.Title, 80)+"\"")
	}
	if parent != nil && parent.UserID != c.UserID && parent.UserID != hilo.UserID &&
		s.flags != nil && s.flags.Enabled(featureflags.ReplyNotifications, parent.UserID) {
		notify(parent.UserID, models.NotificacionReply, "New reply to your comment")
	}
}

func (s *ComentarioService) DeleteComentario(ctx context.Context, comentarioID, userID uint) error {
	comentario, err := s.comentarioRepo.GetByID(ctx, comentarioID)
	if err != nil {
		return err
	}
	allowed, err := canModify(ctx, s.isAdmin, comentario.UserID, userID)
	if err != nil {
		return err
	}
	if !allowed {
		return models.NewForbiddenError("Only the author or an admin can delete this comment")
	}
	return s.comentarioRepo.Delete(ctx, comentarioID)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

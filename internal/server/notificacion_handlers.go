package server

import (
	"foros/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetNotificaciones handles GET /api/Notificaciones
// @Summary List the caller's notifications
// @Tags notificaciones
// @Produce json
// @Param unread query bool false "Only unread"
// @Success 200 {object} object{items=[]models.Notificacion,unread=int}
// @Router /Notificaciones [get]
// @Security BearerAuth
func (s *Server) GetNotificaciones(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := middleware.CurrentUserID(c)

	items, err := s.notificacionService.List(ctx, userID, c.QueryBool("unread", false))
	if err != nil {
		return s.respondError(c, err)
	}
	unread, err := s.notificacionService.CountUnread(ctx, userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": items, "unread": unread})
}

// MarkNotificacionRead handles POST /api/Notificaciones/:id/read
// @Summary Mark one notification read
// @Tags notificaciones
// @Param id path int true "Notificacion ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /Notificaciones/{id}/read [post]
// @Security BearerAuth
func (s *Server) MarkNotificacionRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.notificacionService.MarkRead(c.UserContext(), id, middleware.CurrentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificacionesRead handles POST /api/Notificaciones/read-all
func (s *Server) MarkAllNotificacionesRead(c *fiber.Ctx) error {
	n, err := s.notificacionService.MarkAllRead(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

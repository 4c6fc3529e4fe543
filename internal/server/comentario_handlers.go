package server

import (
	"foros/internal/middleware"
	"foros/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComentarios handles GET /api/Hilos/:id/comentarios
// @Summary List comments on a hilo
// @Tags comentarios
// @Produce json
// @Param id path int true "Hilo ID"
// @Success 200 {array} models.Comentario
// @Router /Hilos/{id}/comentarios [get]
func (s *Server) GetComentarios(c *fiber.Ctx) error {
	hiloID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 100)

	comentarios, err := s.comentarioService.ListComentarios(c.UserContext(), hiloID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comentarios)
}

// CreateComentario handles POST /api/Hilos/:id/comentarios
// @Summary Comment on a hilo
// @Tags comentarios
// @Accept json
// @Produce json
// @Param id path int true "Hilo ID"
// @Param request body object{content=string,parentId=int} true "Comment"
// @Success 201 {object} models.Comentario
// @Failure 400 {object} models.ErrorResponse
// @Router /Hilos/{id}/comentarios [post]
// @Security BearerAuth
func (s *Server) CreateComentario(c *fiber.Ctx) error {
	hiloID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parentId"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comentario, err := s.comentarioService.CreateComentario(c.UserContext(), service.CreateComentarioInput{
		UserID:   middleware.CurrentUserID(c),
		HiloID:   hiloID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comentario)
}

// DeleteComentario handles DELETE /api/Comentarios/:id
// @Summary Delete a comment and its replies
// @Tags comentarios
// @Param id path int true "Comentario ID"
// @Success 204
// @Router /Comentarios/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteComentario(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.comentarioService.DeleteComentario(c.UserContext(), id, middleware.CurrentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

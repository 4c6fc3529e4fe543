package server

import (
	"foros/internal/middleware"
	"foros/internal/service"

	"github.com/gofiber/fiber/v2"
)

type foroRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// GetForos handles GET /api/Foros
// @Summary List foros
// @Tags foros
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Foro
// @Router /Foros [get]
func (s *Server) GetForos(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	foros, err := s.foroService.ListForos(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(foros)
}

// GetForo handles GET /api/Foros/:id
// @Summary Get a foro
// @Tags foros
// @Produce json
// @Param id path int true "Foro ID"
// @Success 200 {object} models.Foro
// @Failure 404 {object} models.ErrorResponse
// @Router /Foros/{id} [get]
func (s *Server) GetForo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	foro, err := s.foroService.GetForo(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(foro)
}

// GetForoBySlug handles GET /api/Foros/slug/:slug
func (s *Server) GetForoBySlug(c *fiber.Ctx) error {
	foro, err := s.foroService.GetForoBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(foro)
}

// CreateForo handles POST /api/Foros
// @Summary Create a foro
// @Tags foros
// @Accept json
// @Produce json
// @Param request body object{name=string,description=string} true "Foro"
// @Success 201 {object} models.Foro
// @Failure 400 {object} models.ErrorResponse
// @Router /Foros [post]
// @Security BearerAuth
func (s *Server) CreateForo(c *fiber.Ctx) error {
	var req foroRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in := service.CreateForoInput{
		UserID: middleware.CurrentUserID(c),
		Name:   req.Name,
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	foro, err := s.foroService.CreateForo(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(foro)
}

// UpdateForo handles PUT /api/Foros/:id
// @Summary Update a foro
// @Tags foros
// @Accept json
// @Produce json
// @Param id path int true "Foro ID"
// @Success 200 {object} models.Foro
// @Failure 403 {object} models.ErrorResponse
// @Router /Foros/{id} [put]
// @Security BearerAuth
func (s *Server) UpdateForo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req foroRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	foro, err := s.foroService.UpdateForo(c.UserContext(), service.UpdateForoInput{
		UserID:      middleware.CurrentUserID(c),
		ForoID:      id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(foro)
}

// DeleteForo handles DELETE /api/Foros/:id
// @Summary Delete a foro and its hilos
// @Tags foros
// @Param id path int true "Foro ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /Foros/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteForo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.foroService.DeleteForo(c.UserContext(), id, middleware.CurrentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

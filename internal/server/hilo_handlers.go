package server

import (
	"foros/internal/middleware"
	"foros/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetHilosByForo handles GET /api/Foros/:id/hilos
// @Summary List hilos in a foro
// @Tags hilos
// @Produce json
// @Param id path int true "Foro ID"
// @Param sort query string false "new or top"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Hilo
// @Failure 404 {object} models.ErrorResponse
// @Router /Foros/{id}/hilos [get]
func (s *Server) GetHilosByForo(c *fiber.Ctx) error {
	foroID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)

	hilos, err := s.hiloService.ListHilos(c.UserContext(), service.ListHilosInput{
		ForoID:   foroID,
		Limit:    page.Limit,
		Offset:   page.Offset,
		Sort:     c.Query("sort"),
		ViewerID: middleware.CurrentUserID(c),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(hilos)
}

// GetHilo handles GET /api/Hilos/:id
// @Summary Get a hilo
// @Tags hilos
// @Produce json
// @Param id path int true "Hilo ID"
// @Success 200 {object} models.Hilo
// @Failure 404 {object} models.ErrorResponse
// @Router /Hilos/{id} [get]
func (s *Server) GetHilo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	hilo, err := s.hiloService.GetHilo(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(hilo)
}

// CreateHilo handles POST /api/Hilos
// @Summary Create a hilo
// @Tags hilos
// @Accept json
// @Produce json
// @Param request body object{foroId=int,title=string,content=string} true "Hilo"
// @Success 201 {object} models.Hilo
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /Hilos [post]
// @Security BearerAuth
func (s *Server) CreateHilo(c *fiber.Ctx) error {
	var req struct {
		ForoID  uint   `json:"foroId"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	hilo, err := s.hiloService.CreateHilo(c.UserContext(), service.CreateHiloInput{
		UserID:  middleware.CurrentUserID(c),
		ForoID:  req.ForoID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(hilo)
}

// UpdateHilo handles PUT /api/Hilos/:id
// @Summary Edit a hilo
// @Tags hilos
// @Accept json
// @Produce json
// @Param id path int true "Hilo ID"
// @Success 200 {object} models.Hilo
// @Failure 403 {object} models.ErrorResponse
// @Router /Hilos/{id} [put]
// @Security BearerAuth
func (s *Server) UpdateHilo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	hilo, err := s.hiloService.UpdateHilo(c.UserContext(), service.UpdateHiloInput{
		UserID:  middleware.CurrentUserID(c),
		HiloID:  id,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(hilo)
}

// DeleteHilo handles DELETE /api/Hilos/:id
// @Summary Delete a hilo
// @Tags hilos
// @Param id path int true "Hilo ID"
// @Success 204
// @Router /Hilos/{id} [delete]
// @Security BearerAuth
func (s *Server) DeleteHilo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.hiloService.DeleteHilo(c.UserContext(), id, middleware.CurrentUserID(c)); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

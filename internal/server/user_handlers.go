package server

import (
	"io"

	"foros/internal/middleware"
	"foros/internal/models"
	"foros/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/Usuarios/me
// @Summary Current user's profile
// @Tags usuarios
// @Produce json
// @Success 200 {object} models.User
// @Router /Usuarios/me [get]
// @Security BearerAuth
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/Usuarios/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Bio string `json:"bio"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateBio(c.UserContext(), middleware.CurrentUserID(c), req.Bio)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UploadMyAvatar handles POST /api/Usuarios/me/avatar
// @Summary Upload a profile picture
// @Tags usuarios
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image (jpeg, png, gif or webp)"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /Usuarios/me/avatar [post]
// @Security BearerAuth
func (s *Server) UploadMyAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	user, err := s.avatarService.Upload(c.UserContext(), service.UploadAvatarInput{
		UserID:  middleware.CurrentUserID(c),
		Content: content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// GetUsuarios handles GET /api/Usuarios (admin)
func (s *Server) GetUsuarios(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(users)
}

// UpdateUsuarioRole handles PUT /api/Usuarios/:id/role (admin)
// @Summary Change a user's role
// @Tags usuarios
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body object{role=string} true "user or admin"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /Usuarios/{id}/role [put]
// @Security BearerAuth
func (s *Server) UpdateUsuarioRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.SetRole(c.UserContext(), middleware.CurrentUserID(c), id, req.Role)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUsuario handles DELETE /api/Usuarios/:id (admin)
func (s *Server) DeleteUsuario(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteUser(c.UserContext(), middleware.CurrentUserID(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFeatureFlags returns configured flag names and their state for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"names":     s.featureFlags.Names(),
		"evaluated": s.featureFlags.Snapshot(middleware.CurrentUserID(c)),
	})
}

package server

import (
	"strconv"
	"strings"

	"foros/internal/middleware"
	"foros/internal/models"

	"github.com/gofiber/fiber/v2"
)

// VoteRequest is the body of a vote submission.
type VoteRequest struct {
	Direction string `json:"direction"`
}

// VoteHilo godoc
// @Summary Vote on a hilo
// @Description Submitting the current direction again removes the vote; the opposite direction flips it.
// @Tags hilos
// @Accept json
// @Produce json
// @Param id path int true "Hilo ID"
// @Param request body VoteRequest true "Vote direction"
// @Success 200 {object} models.VoteResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /Hilos/{id}/vote [post]
// @Security BearerAuth
func (s *Server) VoteHilo(c *fiber.Ctx) error {
	hiloID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req VoteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	count, err := s.voteService.VoteOnHilo(c.UserContext(), hiloID, middleware.CurrentUserID(c), req.Direction)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.VoteResult{NewVoteCount: count})
}

// GetMyVotes handles GET /api/Usuarios/me/votes?hilos=1,2,3 and returns a
// map of hilo ID to the caller's vote. Hilos without a vote are omitted.
func (s *Server) GetMyVotes(c *fiber.Ctx) error {
	var ids []uint
	for _, raw := range strings.Split(c.Query("hilos"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid hilo ID list"))
		}
		ids = append(ids, uint(id))
	}

	votes, err := s.voteService.MyVotes(c.UserContext(), middleware.CurrentUserID(c), ids)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(votes)
}

package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/fitplan/internal/mapping"
	"github.com/illegalcall/fitplan/internal/models"
)

// handleCreateUser registers a profile without credentials.
func (s *Server) handleCreateUser(c *fiber.Ctx) error {
	var req mapping.ExternalProfile
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	userID, err := s.users.createAccount("", "", req)
	if err != nil {
		s.logger.Error("Failed to create user", "error", err)
		return detail(c, fiber.StatusInternalServerError, err.Error())
	}

	s.logger.Info("Profile created", "userID", userID)
	return c.JSON(models.CreatedResponse{ID: userID, Message: "User created successfully"})
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if !s.owns(c, userID) {
		return detail(c, fiber.StatusForbidden, "Not allowed to read this user")
	}

	profile, err := s.users.profile(userID)
	if errors.Is(err, errUserNotFound) {
		return detail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		return detail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(profile)
}

func (s *Server) handleUpdateUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if !s.owns(c, userID) {
		return detail(c, fiber.StatusForbidden, "Not allowed to update this user")
	}

	var patch mapping.ExternalProfile
	if err := c.BodyParser(&patch); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	err := s.users.update(userID, patch)
	if errors.Is(err, errUserNotFound) {
		return detail(c, fiber.StatusNotFound, "User not found")
	}
	if err != nil {
		s.logger.Error("Failed to update user", "error", err, "userID", userID)
		return detail(c, fiber.StatusInternalServerError, err.Error())
	}

	s.logger.Info("Profile updated", "userID", userID)
	return c.JSON(models.CreatedResponse{ID: userID, Message: "User updated successfully"})
}

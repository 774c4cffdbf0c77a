package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/illegalcall/fitplan/internal/mapping"
	"github.com/illegalcall/fitplan/internal/models"
)

func (s *Server) handleLogin(c *fiber.Ctx) error {
	email := c.FormValue("username")
	password := c.FormValue("password")

	// Validate required fields
	if email == "" || password == "" {
		return detail(c, fiber.StatusBadRequest, "Username and password are required")
	}

	s.logger.Info("Authentication attempt", "email", email)

	userID, ok := s.users.authenticate(email, password)
	if !ok {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return detail(c, fiber.StatusUnauthorized, "Incorrect username (email) or password")
	}

	tokenString, err := s.signToken(userID)
	if err != nil {
		s.logger.Error("Failed to sign token", "error", err)
		return detail(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	s.logger.Info("User successfully authenticated", "userID", userID)

	return c.JSON(models.LoginResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
	})
}

func (s *Server) signToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": now.Add(s.cfg.JWT.Expiration).Unix(),
		"iat": now.Unix(),
	})
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req models.RegisterAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return detail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	profile := mapping.ExternalProfile{
		Age:           &req.Age,
		Weight:        &req.Weight,
		Height:        &req.Height,
		Gender:        &req.Gender,
		Goal:          &req.Goal,
		ActivityLevel: &req.ActivityLevel,
		Country:       &req.Country,
		Region:        &req.Region,
	}

	userID, err := s.users.createAccount(req.Email, req.Password, profile)
	if errors.Is(err, errEmailTaken) {
		return detail(c, fiber.StatusBadRequest, "Email already registered")
	}
	if err != nil {
		s.logger.Error("Failed to register account", "error", err)
		return detail(c, fiber.StatusInternalServerError, "Failed to register account")
	}

	s.logger.Info("Account registered", "userID", userID)
	return c.JSON(models.CreatedResponse{ID: userID, Message: "User created successfully"})
}

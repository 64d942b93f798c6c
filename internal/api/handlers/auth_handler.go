package handlers

import (
	"fmt"
	"log/slog"
	"time"

	config "github.com/arjunmk/postpilot/configs"
	"github.com/arjunmk/postpilot/internal/service"
	"github.com/arjunmk/postpilot/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	s   service.FacebookService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, s service.FacebookService) *AuthHandler {
	return &AuthHandler{s: s, cfg: cfg}
}

// FacebookLogin hands the dashboard popup its OAuth dialog URL. The state
// parameter is a short-lived signed token carrying the user identity so the
// callback can attribute the connected accounts.
func (h *AuthHandler) FacebookLogin(c *fiber.Ctx) error {
	userID := GetUserID(c)

	state, err := utils.GenerateToken(h.cfg.SecretKey, userID, 15*time.Minute)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to start authentication",
		})
	}

	authURL := h.s.GetAuthURL(c.Context(), state)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"auth_url":     authURL,
		"redirect_uri": h.cfg.FacebookRedirectURI,
	})
}

func (h *AuthHandler) FacebookCallback(c *fiber.Ctx) error {
	if fbError := c.Query("error"); fbError != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Facebook authentication failed: %s", fbError),
		})
	}

	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No authorization code received",
		})
	}

	claims, err := utils.ValidateToken(h.cfg.SecretKey, c.Query("state"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	_, err = h.s.Callback(c.Context(), code, claims.UserID)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Authentication failed",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

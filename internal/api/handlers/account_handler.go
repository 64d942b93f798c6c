package handlers

import (
	"log"
	"log/slog"

	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/service"
	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	s service.FacebookService
}

func NewAccountHandler(s service.FacebookService) *AccountHandler {
	return &AccountHandler{s: s}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"accounts": accounts,
	})
}

func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	var ac transfer.AccountConnection
	if err := c.BodyParser(&ac); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}
	if ac.UserID == "" {
		ac.UserID = GetUserID(c)
	}

	account, err := h.s.ConnectAccount(c.Context(), &ac)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to connect account",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"account": account,
	})
}

func (h *AccountHandler) DisconnectAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := c.ParamsInt("id", 0)
	if err != nil || accountID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	err = h.s.Disconnect(c.Context(), userID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to disconnect account",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Account disconnected",
	})
}

package handlers

import (
	"errors"
	"log/slog"

	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/queue"
	"github.com/arjunmk/postpilot/internal/service"
	"github.com/arjunmk/postpilot/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type PostHandler struct {
	s           service.PostService
	pb          service.PublisherService
	AsynqClient *asynq.Client
}

func NewPostHandler(s service.PostService, pb service.PublisherService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: s, pb: pb, AsynqClient: asynqClient}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.s.Create(c.Context(), &pc)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing required fields",
			})
		case errors.Is(err, service.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Account not found or inactive",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create post",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"post":    post,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	status := c.Query("status")

	posts, err := h.s.List(c.Context(), userID, status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts": posts,
	})
}

func (h *PostHandler) ApprovePost(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id", 0)
	if err != nil || postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, delay, err := h.s.Approve(c.Context(), int64(postID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post not found",
			})
		case errors.Is(err, service.ErrNotDraft):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Post is not in draft status",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to approve post",
			})
		}
	}

	if post.Status == models.PostStatusApproved && post.ScheduledAt != nil {
		err = queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{PostID: post.ID}, delay)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error scheduling post",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"post":    post,
	})
}

func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	postID, err := c.ParamsInt("id", 0)
	if err != nil || postID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, err := h.pb.PublishNow(c.Context(), int64(postID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to publish post",
		})
	}

	response := fiber.Map{
		"success": post.Status == models.PostStatusPosted,
		"post":    post,
	}
	if post.ErrorMessage != "" {
		response["error"] = post.ErrorMessage
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

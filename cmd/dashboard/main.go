package main

import (
	"log"
	"strconv"

	config "github.com/arjunmk/postpilot/configs"
	"github.com/arjunmk/postpilot/internal/dashboard"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	client := dashboard.NewClient(cfg.BaseURL, "default_user")
	notifier := dashboard.NewFlashNotifier()
	ctrl := dashboard.NewController(client, notifier)

	engine := html.New("./cmd/dashboard/views", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
	})
	app.Use(logger.New())

	app.Get("/", func(c *fiber.Ctx) error {
		ctrl.RefreshAccounts(c.Context())
		ctrl.RefreshPosts(c.Context())

		return c.Render("dashboard", fiber.Map{
			"Accounts":   dashboard.AccountViews(ctrl.Accounts()),
			"Posts":      dashboard.PostViews(ctrl.Posts()),
			"Form":       ctrl.Form(),
			"Flashes":    notifier.Drain(),
			"Generating": ctrl.IsGenerating(),
		})
	})

	app.Get("/connect/facebook", func(c *fiber.Ctx) error {
		authURL, err := ctrl.ConnectFacebook(c.Context())
		if err != nil {
			return c.Redirect("/")
		}
		return c.Redirect(authURL)
	})

	app.Post("/accounts/:id/disconnect", func(c *fiber.Ctx) error {
		accountID, _ := c.ParamsInt("id", 0)
		confirmed := c.FormValue("confirm") == "yes"
		ctrl.DisconnectAccount(c.Context(), int64(accountID), confirmed)
		return c.Redirect("/")
	})

	app.Post("/posts", func(c *fiber.Ctx) error {
		accountID, _ := strconv.ParseInt(c.FormValue("account_id"), 10, 64)
		ctrl.CreatePost(c.Context(), dashboard.PostForm{
			AccountID:   accountID,
			Content:     c.FormValue("content"),
			ImageURL:    c.FormValue("image_url"),
			ImagePrompt: c.FormValue("image_prompt"),
			ScheduledAt: c.FormValue("scheduled_at"),
		})
		return c.Redirect("/")
	})

	app.Post("/posts/:id/approve", func(c *fiber.Ctx) error {
		postID, _ := c.ParamsInt("id", 0)
		ctrl.Approve(c.Context(), int64(postID))
		return c.Redirect("/")
	})

	app.Post("/posts/:id/publish", func(c *fiber.Ctx) error {
		postID, _ := c.ParamsInt("id", 0)
		confirmed := c.FormValue("confirm") == "yes"
		ctrl.Publish(c.Context(), int64(postID), confirmed)
		return c.Redirect("/")
	})

	app.Post("/images/generate", func(c *fiber.Ctx) error {
		ctrl.GenerateImage(c.Context(), c.FormValue("image_prompt"), c.FormValue("platform"))
		return c.Redirect("/")
	})

	log.Println("Dashboard is running on http://localhost:4000")
	if err := app.Listen(":4000"); err != nil {
		log.Fatalf("Failed to start dashboard: %v", err)
	}
}

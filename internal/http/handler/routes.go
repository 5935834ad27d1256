package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"moments/internal/http/middleware"
	"moments/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, authSvc service.AuthService, postSvc service.PostService, storySvc service.StoryService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Readiness: checks DB connectivity only
	app.Get("/health", HealthCheck(db))

	// Simple liveness probe
	app.Get("/healthz", LivenessProbe())

	requireAuth := middleware.RequireAuth(authSvc.VerifyToken)

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/signup", SignUp(authSvc))
	auth.Post("/signin", SignIn(authSvc))
	auth.Post("/signout", requireAuth, SignOut(authSvc))
	auth.Post("/reset-password", ResetPassword(authSvc))

	users := api.Group("/users")
	users.Patch("/me", requireAuth, UpdateUserProfile(authSvc))
	users.Get("/:id", GetUserProfile(authSvc))
	users.Get("/:id/posts", GetUserPosts(postSvc))

	posts := api.Group("/posts")
	posts.Get("/stream", FeedStream(postSvc))
	posts.Get("/", GetFeed(postSvc))
	posts.Post("/", requireAuth, CreatePost(postSvc))
	posts.Post("/:id/like", requireAuth, LikePost(postSvc))
	posts.Delete("/:id/like", requireAuth, UnlikePost(postSvc))
	posts.Post("/:id/comments", requireAuth, AddComment(postSvc))
	posts.Delete("/:id", requireAuth, DeletePost(postSvc))

	stories := api.Group("/stories")
	stories.Get("/stream", StoriesStream(storySvc))
	stories.Get("/", GetStories(storySvc))
	stories.Post("/", requireAuth, CreateStory(storySvc))
	stories.Post("/:id/view", requireAuth, ViewStory(storySvc))
	stories.Delete("/:id", requireAuth, DeleteStory(storySvc))
}

package handler

import (
	"github.com/gofiber/fiber/v2"

	"moments/internal/http/middleware"
	"moments/internal/service"
)

type addCommentRequest struct {
	Text string `json:"text"`
}

// CreatePost accepts a multipart form with an "image" file and an
// optional "caption" field.
func CreatePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)

		fh, err := c.FormFile("image")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_REQUIRED", "an image file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "IMAGE_OPEN_ERROR", "cannot open uploaded image")
		}
		defer f.Close()

		post, err := svc.CreatePost(c.UserContext(), acct.UID, f, service.ImageUpload{
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		}, c.FormValue("caption"))
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusCreated, post)
	}
}

// GetFeed returns the active posts, newest first.
func GetFeed(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		posts, err := svc.GetFeed(c.UserContext())
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, posts)
	}
}

// GetUserPosts returns an author's active posts, newest first.
func GetUserPosts(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		posts, err := svc.GetPostsByUser(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, posts)
	}
}

// LikePost records a like by the authenticated user.
func LikePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)
		if err := svc.LikePost(c.UserContext(), c.Params("id"), acct.UID); err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, nil)
	}
}

// UnlikePost removes the authenticated user's like.
func UnlikePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)
		if err := svc.UnlikePost(c.UserContext(), c.Params("id"), acct.UID); err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, nil)
	}
}

// AddComment appends a comment by the authenticated user.
func AddComment(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)

		var req addCommentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		}

		comment, err := svc.AddComment(c.UserContext(), c.Params("id"),
			service.Author{UID: acct.UID, Name: acct.DisplayName}, req.Text)
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusCreated, comment)
	}
}

// DeletePost removes the authenticated user's own post.
func DeletePost(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)
		if err := svc.DeletePost(c.UserContext(), c.Params("id"), acct.UID); err != nil {
			return writeClassified(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

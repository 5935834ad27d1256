package handler

import (
	"github.com/gofiber/fiber/v2"

	"moments/internal/http/middleware"
	"moments/internal/service"
)

// CreateStory accepts a multipart form with an "image" file. The
// author's display fields come from the authenticated account.
func CreateStory(svc service.StoryService) fiber.Handler {
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

		story, err := svc.CreateStory(c.UserContext(), service.Author{
			UID:    acct.UID,
			Name:   acct.DisplayName,
			Avatar: acct.PhotoURL,
		}, f, service.ImageUpload{
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusCreated, story)
	}
}

// GetStories returns the active stories grouped by author.
func GetStories(svc service.StoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groups, err := svc.GetActiveStories(c.UserContext())
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, groups)
	}
}

// ViewStory records the authenticated user as a viewer.
func ViewStory(svc service.StoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)
		if err := svc.ViewStory(c.UserContext(), c.Params("id"), acct.UID); err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, nil)
	}
}

// DeleteStory removes the authenticated user's own story.
func DeleteStory(svc service.StoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)
		if err := svc.DeleteStory(c.UserContext(), c.Params("id"), acct.UID); err != nil {
			return writeClassified(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

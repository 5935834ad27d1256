package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"moments/internal/docstore"
	"moments/internal/model"
	"moments/internal/service"
)

const streamHeartbeat = 15 * time.Second

// FeedStream pushes the derived feed to the client as server-sent
// events: one event per change, the first immediately after connect.
func FeedStream(svc service.PostService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return streamEvents(c, func(push func(any)) (docstore.Subscription, error) {
			return svc.SubscribeToFeed(context.Background(), func(posts []model.Post) {
				push(posts)
			})
		})
	}
}

// StoriesStream pushes the grouped story tray as server-sent events.
func StoriesStream(svc service.StoryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return streamEvents(c, func(push func(any)) (docstore.Subscription, error) {
			return svc.SubscribeToStories(context.Background(), func(groups []model.StoryGroup) {
				push(groups)
			})
		})
	}
}

// streamEvents bridges a live subscription onto an SSE response. Each
// pushed value is a complete view, so a slow client is served the
// freshest one instead of a backlog.
func streamEvents(c *fiber.Ctx, subscribe func(push func(any)) (docstore.Subscription, error)) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	updates := make(chan []byte, 1)
	push := func(v any) {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		for {
			select {
			case updates <- b:
				return
			default:
				// Latest wins.
				select {
				case <-updates:
				default:
				}
			}
		}
	}

	sub, err := subscribe(push)
	if err != nil {
		return writeClassified(c, err)
	}

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Unsubscribe()
		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case b := <-updates:
				if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			}
			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

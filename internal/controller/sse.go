package controller

import (
	"encoding/json"

	"code-research-be/pkg/research"

	"github.com/gofiber/fiber/v2"
)

// sseFrame renders one progress event in the wire format the UI
// consumes: a JSON object followed by a blank line.
func sseFrame(kind research.EventKind, data research.EventData) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"event": kind,
		"data":  data,
	})
	return append(payload, '\n', '\n')
}

// setStreamHeaders prepares a response for server-sent events.
func setStreamHeaders(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
}

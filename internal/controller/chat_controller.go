package controller

import (
	"bufio"
	"strconv"
	"strings"

	"code-research-be/internal/dto"
	"code-research-be/internal/pkg/serverutils"
	"code-research-be/internal/service"
	"code-research-be/pkg/llm"
	"code-research-be/pkg/research"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	CancelSession(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("", c.Chat)
	h.Delete("session/:id", c.CancelSession)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	applyChatQueryParams(ctx, &req)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if req.DeepResearch {
		if req.Streaming() {
			return c.deepResearchStream(ctx, &req)
		}
		res, err := c.chatService.DeepResearchSync(ctx.Context(), &req)
		if err != nil {
			return err
		}
		return ctx.JSON(serverutils.SuccessResponse("Success deep research", res))
	}

	chunks, err := c.chatService.Chat(ctx.Context(), &req)
	if err != nil {
		return err
	}
	if req.Streaming() {
		return streamChunks(ctx, chunks)
	}

	var answer strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return &research.CompletionError{Op: "chat", Err: chunk.Err}
		}
		answer.WriteString(chunk.Content)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success chat", &dto.ChatSyncResponse{
		Answer: answer.String(),
	}))
}

func (c *chatController) CancelSession(ctx *fiber.Ctx) error {
	sessionID := ctx.Params("id")
	if !c.chatService.Cancel(sessionID) {
		return fiber.NewError(fiber.StatusNotFound, "session not found or already finished")
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session cancelled", nil))
}

// deepResearchStream relays the session's progress events as SSE. When
// the client goes away the session is cancelled, but the event channel
// is still drained so the driver can deliver its terminal event.
func (c *chatController) deepResearchStream(ctx *fiber.Ctx, req *dto.ChatRequest) error {
	sessionID, events, err := c.chatService.DeepResearch(ctx.Context(), req)
	if err != nil {
		return err
	}

	setStreamHeaders(ctx)
	ctx.Set("X-Session-Id", sessionID)
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		clientGone := false
		for ev := range events {
			if clientGone {
				continue
			}
			if _, err := w.Write(sseFrame(ev.Kind, ev.Data)); err != nil {
				c.chatService.Cancel(sessionID)
				clientGone = true
				continue
			}
			if err := w.Flush(); err != nil {
				c.chatService.Cancel(sessionID)
				clientGone = true
			}
		}
	}))
	return nil
}

// streamChunks relays a plain chat completion as SSE message events.
func streamChunks(ctx *fiber.Ctx, chunks <-chan llm.StreamChunk) error {
	setStreamHeaders(ctx)
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		clientGone := false
		write := func(kind research.EventKind, data research.EventData) {
			if clientGone {
				return
			}
			w.Write(sseFrame(kind, data))
			if err := w.Flush(); err != nil {
				clientGone = true
			}
		}

		for chunk := range chunks {
			if chunk.Err != nil {
				write(research.EventDone, research.EventData{Error: chunk.Err.Error(), Done: true})
				return
			}
			if chunk.Content != "" {
				write(research.EventMessage, research.EventData{Content: chunk.Content})
			}
			if chunk.Done {
				break
			}
		}
		write(research.EventDone, research.EventData{Message: "Chat complete", Done: true})
	}))
	return nil
}

// applyChatQueryParams lets callers override body fields through query
// parameters, which the UI uses for quick toggles.
func applyChatQueryParams(ctx *fiber.Ctx, req *dto.ChatRequest) {
	if repos := ctx.Query("repositories"); repos != "" {
		req.Repositories = nil
		for _, r := range strings.Split(repos, ",") {
			if r = strings.TrimSpace(r); r != "" {
				req.Repositories = append(req.Repositories, r)
			}
		}
	}
	if v := ctx.Query("is_deep_research"); v != "" {
		req.DeepResearch = v == "true" || v == "1"
	}
	if v := ctx.Query("temperature"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			req.Temperature = t
		}
	}
}

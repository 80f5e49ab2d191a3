package controller

import (
	"bufio"
	"encoding/json"

	"code-research-be/internal/dto"
	"code-research-be/internal/pkg/serverutils"
	"code-research-be/internal/service"
	"code-research-be/pkg/llm"
	"code-research-be/pkg/research"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	DocumentSearch(ctx *fiber.Ctx) error
	ScopeSearch(ctx *fiber.Ctx) error
}

type searchController struct {
	searchService service.ISearchService
}

func NewSearchController(searchService service.ISearchService) ISearchController {
	return &searchController{
		searchService: searchService,
	}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search")
	h.Post("", c.DocumentSearch)
	h.Post("scope", c.ScopeSearch)
}

func (c *searchController) DocumentSearch(ctx *fiber.Ctx) error {
	var req dto.DocumentSearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if !req.Streaming() {
		res, err := c.searchService.DocumentSearch(ctx.Context(), &req)
		if err != nil {
			return err
		}
		return ctx.JSON(res)
	}

	codes, chunks, err := c.searchService.DocumentSearchStream(ctx.Context(), &req)
	if err != nil {
		return err
	}

	// The retrieved files go out first so the UI can show what the
	// analysis is based on.
	codesJSON, _ := json.Marshal(codes)
	streamAnalysis(ctx, research.EventPrompt, string(codesJSON), chunks)
	return nil
}

func (c *searchController) ScopeSearch(ctx *fiber.Ctx) error {
	var req dto.ScopeSearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if !req.Streaming() {
		res, err := c.searchService.ScopeSearch(ctx.Context(), &req)
		if err != nil {
			return err
		}
		return ctx.JSON(res)
	}

	knowledge, chunks, err := c.searchService.ScopeSearchStream(ctx.Context(), &req)
	if err != nil {
		return err
	}

	streamAnalysis(ctx, research.EventSystemPrompt, knowledge, chunks)
	return nil
}

// streamAnalysis writes one leading context event followed by the
// analysis chunks and a terminal done event.
func streamAnalysis(ctx *fiber.Ctx, leadKind research.EventKind, leadContent string, chunks <-chan llm.StreamChunk) {
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

		write(leadKind, research.EventData{Content: leadContent})

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
		write(research.EventDone, research.EventData{Message: "Analysis complete", Done: true})
	}))
}

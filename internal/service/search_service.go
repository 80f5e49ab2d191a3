package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"code-research-be/internal/dto"
	"code-research-be/pkg/llm"
	"code-research-be/pkg/research"
	pkgSearch "code-research-be/pkg/search"
)

// maxFileChars is the per-file content ceiling for document search.
// Larger files (generated code, bundles) are listed but not inlined.
const maxFileChars = 200_000

// defaultScopeMaxResults matches the search API's result cap.
const defaultScopeMaxResults = 1000

const searchAnalysisSystemPrompt = `You are a senior engineer analyzing code retrieved from internal repositories.
Explain what the retrieved code does and how it answers the queries.
Cite file paths. Use only the provided code context.`

const scopeAnalysisSystemPrompt = `You are a senior engineer analyzing scope scripts retrieved from internal repositories.
Summarize what each script does and how the scripts relate to each other.
Cite file paths. Use only the provided scripts.`

// ISearchService backs the single-shot search endpoints: one retrieval
// pass followed by one model analysis, no research loop.
type ISearchService interface {
	DocumentSearch(ctx context.Context, req *dto.DocumentSearchRequest) (*dto.DocumentSearchResponse, error)

	// DocumentSearchStream returns the retrieved files up front and the
	// analysis as a chunk stream.
	DocumentSearchStream(ctx context.Context, req *dto.DocumentSearchRequest) ([]dto.FileContentDTO, <-chan llm.StreamChunk, error)

	ScopeSearch(ctx context.Context, req *dto.ScopeSearchRequest) (*dto.ScopeSearchResponse, error)

	// ScopeSearchStream returns the assembled scope knowledge up front
	// and the analysis as a chunk stream.
	ScopeSearchStream(ctx context.Context, req *dto.ScopeSearchRequest) (string, <-chan llm.StreamChunk, error)
}

type searchService struct {
	client      pkgSearch.ISearchClient
	registry    *pkgSearch.Registry
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewSearchService(client pkgSearch.ISearchClient, registry *pkgSearch.Registry, llmProvider llm.LLMProvider) ISearchService {
	return &searchService{
		client:      client,
		registry:    registry,
		llmProvider: llmProvider,
		logger:      log.Default(),
	}
}

func (s *searchService) DocumentSearch(ctx context.Context, req *dto.DocumentSearchRequest) (*dto.DocumentSearchResponse, error) {
	codes, err := s.collect(ctx, req.Sources, req.MaxLength)
	if err != nil {
		return nil, err
	}

	content, err := s.llmProvider.Chat(ctx, s.analysisMessages(req, codes), s.analysisOptions(req.Temperature)...)
	if err != nil {
		return nil, &research.CompletionError{Op: "analyze", Err: err}
	}

	return &dto.DocumentSearchResponse{
		Status:  "success",
		Codes:   codes,
		Content: content,
	}, nil
}

func (s *searchService) DocumentSearchStream(ctx context.Context, req *dto.DocumentSearchRequest) ([]dto.FileContentDTO, <-chan llm.StreamChunk, error) {
	codes, err := s.collect(ctx, req.Sources, req.MaxLength)
	if err != nil {
		return nil, nil, err
	}

	chunks, err := s.llmProvider.ChatStream(ctx, s.analysisMessages(req, codes), s.analysisOptions(req.Temperature)...)
	if err != nil {
		return nil, nil, &research.CompletionError{Op: "analyze", Err: err}
	}
	return codes, chunks, nil
}

func (s *searchService) ScopeSearch(ctx context.Context, req *dto.ScopeSearchRequest) (*dto.ScopeSearchResponse, error) {
	knowledge, err := s.collectScope(ctx, req)
	if err != nil {
		return nil, err
	}

	content, err := s.llmProvider.Chat(ctx, s.scopeMessages(req, knowledge))
	if err != nil {
		return nil, &research.CompletionError{Op: "analyze", Err: err}
	}

	return &dto.ScopeSearchResponse{
		Status:         "success",
		ScopeKnowledge: knowledge,
		Content:        content,
	}, nil
}

func (s *searchService) ScopeSearchStream(ctx context.Context, req *dto.ScopeSearchRequest) (string, <-chan llm.StreamChunk, error) {
	knowledge, err := s.collectScope(ctx, req)
	if err != nil {
		return "", nil, err
	}

	chunks, err := s.llmProvider.ChatStream(ctx, s.scopeMessages(req, knowledge))
	if err != nil {
		return "", nil, &research.CompletionError{Op: "analyze", Err: err}
	}
	return knowledge, chunks, nil
}

// collect runs every source search and assembles the retrieved file
// contents. It fails with ErrNoContent when nothing usable came back.
func (s *searchService) collect(ctx context.Context, sources []dto.SearchSource, maxLength int) ([]dto.FileContentDTO, error) {
	var results []pkgSearch.CodeResult
	for _, src := range sources {
		repositories := src.Repositories
		if len(repositories) == 0 {
			repositories = s.registry.Names()
		}
		for _, repo := range repositories {
			found, err := s.client.SearchCode(ctx, src.Query, repo, pkgSearch.SearchParams{})
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Printf("[SEARCH] Search failed for %q in %s: %v", src.Query, repo, err)
				continue
			}
			results = append(results, found...)
		}
	}

	codes, err := s.assemble(ctx, results, maxLength)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, research.ErrNoContent
	}
	return codes, nil
}

// collectScope searches scope scripts without the repository prefix
// (the query supplies its own ext: filter) and renders them into one
// knowledge block.
func (s *searchService) collectScope(ctx context.Context, req *dto.ScopeSearchRequest) (string, error) {
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultScopeMaxResults
	}

	results, err := s.client.SearchCode(ctx, req.Query, req.Repository, pkgSearch.SearchParams{
		Branch:        req.Branch,
		MaxResults:    maxResults,
		WithoutPrefix: true,
	})
	if err != nil {
		return "", &research.SearchError{Repository: req.Repository, Query: req.Query, Err: err}
	}

	codes, err := s.assemble(ctx, results, 0)
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", research.ErrNoContent
	}
	return formatCodes(codes), nil
}

// assemble fetches file contents for search results. Files above the
// per-file ceiling are skipped; a positive maxLength caps the combined
// content size across files.
func (s *searchService) assemble(ctx context.Context, results []pkgSearch.CodeResult, maxLength int) ([]dto.FileContentDTO, error) {
	codes := make([]dto.FileContentDTO, 0, len(results))
	totalLength := 0

	for _, r := range results {
		if maxLength > 0 && totalLength >= maxLength {
			break
		}

		content, err := s.client.FetchContent(ctx, r.Repository, r.Path, r.Branch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Printf("[SEARCH] Content fetch failed for %s/%s: %v", r.Repository, r.Path, err)
			continue
		}
		if len(content) > maxFileChars {
			s.logger.Printf("[SEARCH] Skipping oversized file %s/%s (%d chars)", r.Repository, r.Path, len(content))
			continue
		}
		if maxLength > 0 && totalLength+len(content) > maxLength {
			continue
		}

		codes = append(codes, dto.FileContentDTO{
			Repository: r.Repository,
			Path:       r.Path,
			Branch:     r.Branch,
			Content:    content,
		})
		totalLength += len(content)
	}

	return codes, nil
}

func (s *searchService) analysisMessages(req *dto.DocumentSearchRequest, codes []dto.FileContentDTO) []llm.Message {
	systemPrompt := searchAnalysisSystemPrompt
	if req.CustomPrompt != "" {
		systemPrompt = req.CustomPrompt
	}

	queries := make([]string, 0, len(req.Sources))
	for _, src := range req.Sources {
		queries = append(queries, src.Query)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Queries: %s\n\n", strings.Join(queries, ", "))
	user.WriteString("Code context:\n")
	user.WriteString(formatCodes(codes))

	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user.String()},
	}
}

func (s *searchService) scopeMessages(req *dto.ScopeSearchRequest, knowledge string) []llm.Message {
	systemPrompt := scopeAnalysisSystemPrompt
	if req.CustomPrompt != "" {
		systemPrompt = req.CustomPrompt
	}
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: knowledge},
	}
}

func (s *searchService) analysisOptions(temperature float64) []llm.Option {
	opts := []llm.Option{}
	if temperature > 0 {
		opts = append(opts, llm.WithTemperature(temperature))
	}
	return opts
}

func formatCodes(codes []dto.FileContentDTO) string {
	hits := make([]research.SearchHit, 0, len(codes))
	for _, c := range codes {
		hits = append(hits, research.SearchHit{
			Repository: c.Repository,
			Path:       c.Path,
			Content:    c.Content,
		})
	}
	return research.FormatContext(hits)
}

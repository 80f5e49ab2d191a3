package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code-research-be/internal/dto"
	"code-research-be/internal/model"
	"code-research-be/internal/repository/memory"
	"code-research-be/pkg/events"
	"code-research-be/pkg/llm"
	pktNats "code-research-be/pkg/nats"
	"code-research-be/pkg/research"
	pkgSearch "code-research-be/pkg/search"

	"github.com/google/uuid"
)

// IChatService is the chat entry point. Deep research sessions run the
// multi-round loop; plain chat does a single retrieval pass.
type IChatService interface {
	// DeepResearch starts a research session and returns its progress
	// stream. The caller MUST drain the channel until it closes.
	DeepResearch(ctx context.Context, req *dto.ChatRequest) (string, <-chan research.ProgressEvent, error)

	// DeepResearchSync runs a session to completion and returns the
	// consolidated answer.
	DeepResearchSync(ctx context.Context, req *dto.ChatRequest) (*dto.ChatSyncResponse, error)

	// Chat answers the newest user message with one retrieval pass over
	// the requested repositories, streaming the model output.
	Chat(ctx context.Context, req *dto.ChatRequest) (<-chan llm.StreamChunk, error)

	// Cancel aborts a running session.
	Cancel(sessionID string) bool
}

type chatService struct {
	driver         *research.Driver
	searchClient   pkgSearch.ISearchClient
	llmProvider    llm.LLMProvider
	sessionRepo    *memory.SessionRepository
	eventPublisher *pktNats.Publisher
	cfg            research.Config
	logger         *log.Logger

	cancels *cancelRegistry
}

func NewChatService(
	searchClient pkgSearch.ISearchClient,
	registry *pkgSearch.Registry,
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	eventPublisher *pktNats.Publisher,
	cfg research.Config,
) IChatService {
	logger := initResearchLogger()
	driver := research.NewDriver(
		NewSearchGateway(searchClient, registry, logger),
		NewCompletionGateway(llmProvider, logger),
		cfg,
		logger,
	)
	return &chatService{
		driver:         driver,
		searchClient:   searchClient,
		llmProvider:    llmProvider,
		sessionRepo:    sessionRepo,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		logger:         logger,
		cancels:        newCancelRegistry(),
	}
}

func initResearchLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "research.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RESEARCH] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (cs *chatService) DeepResearch(ctx context.Context, req *dto.ChatRequest) (string, <-chan research.ProgressEvent, error) {
	question := req.Question()
	if question == "" {
		return "", nil, research.ErrNoContent
	}

	sessionID := uuid.New().String()
	session := &model.ResearchSession{
		ID:           sessionID,
		Query:        question,
		Repositories: req.Repositories,
		Status:       model.SessionRunning,
		StartedAt:    time.Now(),
	}
	cs.sessionRepo.Save(session)

	// The session must survive the HTTP handler returning (fasthttp
	// stream writers run after it does), so only explicit Cancel or the
	// session timeout may stop it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cs.cancels.add(sessionID, cancel)

	cs.publishEvent(runCtx, events.NewSessionStarted(sessionID, question, req.Repositories))

	em := research.NewEmitter(research.DefaultEventBuffer)
	out := make(chan research.ProgressEvent, research.DefaultEventBuffer)

	// The runner hands its result to the relay through runDone; after
	// Save in this function the relay goroutine is the only writer of
	// the session struct.
	var runAnswer *research.Answer
	var runErr error
	runDone := make(chan struct{})

	go func() {
		runAnswer, runErr = cs.driver.Run(runCtx, cs.buildRequest(question, req), em)
		close(runDone)
		cancel()
		cs.cancels.remove(sessionID)
	}()

	// Relay events so round completions are observed here without
	// stealing them from the SSE consumer. The terminal status is
	// recorded after the drain, before the output channel closes, so
	// consumers that drain it fully always observe the final state.
	go func() {
		defer close(out)
		for ev := range em.Events() {
			if ev.Kind == research.EventProcessing && ev.Data.Round != nil && ev.Data.Round.NewHits+ev.Data.Round.NewKeywords > 0 {
				meta := ev.Data.Round
				session.Rounds = meta.Index + 1
				cs.sessionRepo.Save(session)
				cs.publishEvent(context.Background(), events.NewRoundCompleted(sessionID, meta.Index, meta.NewHits, meta.NewKeywords))
			}
			out <- ev
		}
		<-runDone
		cs.finishSession(session, runAnswer, runErr)
	}()

	return sessionID, out, nil
}

func (cs *chatService) DeepResearchSync(ctx context.Context, req *dto.ChatRequest) (*dto.ChatSyncResponse, error) {
	sessionID, eventsCh, err := cs.DeepResearch(ctx, req)
	if err != nil {
		return nil, err
	}

	var answer strings.Builder
	var failure string
	for ev := range eventsCh {
		switch {
		case ev.Kind == research.EventMessage:
			answer.WriteString(ev.Data.Content)
		case ev.Data.Done && ev.Data.Error != "":
			failure = ev.Data.Error
		}
	}

	if failure != "" {
		return nil, fmt.Errorf("research session %s failed: %s", sessionID, failure)
	}

	session, ok := cs.sessionRepo.Get(sessionID)
	if !ok || session.Status != model.SessionDone {
		return nil, context.Canceled
	}
	return &dto.ChatSyncResponse{
		Answer: answer.String(),
		Rounds: session.Rounds,
		Hits:   session.Hits,
	}, nil
}

func (cs *chatService) Chat(ctx context.Context, req *dto.ChatRequest) (<-chan llm.StreamChunk, error) {
	question := req.Question()
	if question == "" {
		return nil, research.ErrNoContent
	}

	contextBlock := cs.retrieveContext(ctx, question, req.Repositories)

	history := make([]llm.Message, 0, len(req.Messages)+1)
	if contextBlock != "" {
		history = append(history, llm.Message{
			Role: "system",
			Content: "You are a senior engineer answering questions about internal code repositories. " +
				"Use the following code context when relevant:\n\n" + contextBlock,
		})
	}
	for _, m := range req.Messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	opts := []llm.Option{}
	if req.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(req.Temperature))
	}
	return cs.llmProvider.ChatStream(ctx, history, opts...)
}

func (cs *chatService) Cancel(sessionID string) bool {
	return cs.cancels.cancel(sessionID)
}

// retrieveContext does the plain-chat single retrieval pass. Retrieval
// failures degrade to an uncontextualized answer rather than an error.
func (cs *chatService) retrieveContext(ctx context.Context, question string, repositories []string) string {
	if len(repositories) == 0 {
		return ""
	}

	filters := pkgSearch.ParseQuery(question)
	searchText := question
	if filters.SearchQuery != "" {
		searchText = filters.SearchQuery
	}

	var hits []research.SearchHit
	for _, repo := range repositories {
		if filters.Repository != "" && !strings.EqualFold(filters.Repository, repo) {
			continue
		}
		results, err := cs.searchClient.SearchCode(ctx, searchText, repo, pkgSearch.SearchParams{
			Branch: filters.Branch,
		})
		if err != nil {
			cs.logger.Printf("[CHAT] Retrieval failed for %s: %v", repo, err)
			continue
		}
		for i, r := range results {
			if i >= maxContentFetches {
				break
			}
			content, err := cs.searchClient.FetchContent(ctx, r.Repository, r.Path, r.Branch)
			if err != nil {
				cs.logger.Printf("[CHAT] Content fetch failed for %s/%s: %v", r.Repository, r.Path, err)
				continue
			}
			hits = append(hits, research.SearchHit{
				Repository: r.Repository,
				Path:       r.Path,
				Content:    content,
			})
		}
	}
	return research.FormatContext(hits)
}

func (cs *chatService) buildRequest(question string, req *dto.ChatRequest) research.Request {
	return research.Request{
		Query:        question,
		Repositories: req.Repositories,
		MaxRounds:    req.MaxRounds,
		CustomPrompt: req.CustomPrompt,
		Temperature:  req.Temperature,
	}
}

func (cs *chatService) finishSession(session *model.ResearchSession, answer *research.Answer, err error) {
	switch {
	case err == nil:
		session.Status = model.SessionDone
		if answer != nil {
			session.Rounds = answer.Rounds
			session.Hits = answer.Hits
		}
		cs.publishEvent(context.Background(), events.NewSessionFinished(session.ID, session.Rounds, session.Hits))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		session.Status = model.SessionCancelled
		cs.publishEvent(context.Background(), events.NewSessionCancelled(session.ID))
	default:
		session.Status = model.SessionFailed
		cs.publishEvent(context.Background(), events.NewSessionFailed(session.ID, err.Error()))
	}
	cs.sessionRepo.Save(session)
}

func (cs *chatService) publishEvent(ctx context.Context, evt events.Event) {
	if cs.eventPublisher == nil {
		return
	}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		cs.logger.Printf("[WARN] Failed to publish %s event: %v", evt.EventType(), err)
	}
}

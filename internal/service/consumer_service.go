package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"code-research-be/internal/dto"
	"code-research-be/internal/repository/specification"
	"code-research-be/internal/repository/unitofwork"
	"code-research-be/pkg/llm"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// maxTitleChars bounds generated titles; anything longer is truncated.
const maxTitleChars = 120

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService is the titler worker: it names untitled notes by
// summarizing their content with the LLM.
type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.GenerateTitleMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Generating title for NoteId: %s", payload.NoteId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: payload.NoteId})
	if err != nil {
		log.Printf("[ERROR] Failed to get note %s: %v", payload.NoteId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if note == nil {
		log.Printf("[ERROR] Note not found: %s", payload.NoteId)
		msg.Ack() // Note deleted? Ack.
		return
	}
	if note.Title != "" {
		// Titled since the message was queued, nothing to do.
		msg.Ack()
		return
	}

	prompt := fmt.Sprintf(`Generate a short descriptive title (max 8 words) for this research note.
Reply with the title only, no quotes, no punctuation at the end.

%s`, note.Content)

	title, err := cs.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		log.Printf("[ERROR] Failed to generate title for note %s: %v", payload.NoteId, err)
		msg.Nack()
		return
	}

	title = sanitizeTitle(title)
	if title == "" {
		log.Printf("[WARN] Empty title generated for note %s, leaving untitled", payload.NoteId)
		msg.Ack()
		return
	}

	now := time.Now()
	note.Title = title
	note.UpdatedAt = &now

	if err := uow.NoteRepository().Update(ctx, note); err != nil {
		log.Printf("[ERROR] Failed to save title for note %s: %v", payload.NoteId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Note %s titled: %q", payload.NoteId, title)
	msg.Ack()
}

// sanitizeTitle cleans LLM output into a usable single-line title.
func sanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	// Models sometimes wrap the title in quotes despite instructions.
	title = strings.Trim(title, `"'`)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)
	if len(title) > maxTitleChars {
		title = strings.TrimSpace(title[:maxTitleChars])
	}
	return title
}

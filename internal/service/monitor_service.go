package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"code-research-be/internal/model"
	"code-research-be/internal/pkg/logger"
	"code-research-be/pkg/events"
	pktNats "code-research-be/pkg/nats"
)

// ActivityDelivery defines how to push real-time research activity.
// Typically implemented by the WebSocket Hub.
type ActivityDelivery interface {
	Broadcast(activity model.ResearchActivity)
}

// MonitorService turns research lifecycle events from the bus into
// human-readable activity pushed to connected monitor clients.
type MonitorService struct {
	subscriber *pktNats.Subscriber
	delivery   ActivityDelivery
	logger     logger.ILogger
}

func NewMonitorService(sub *pktNats.Subscriber, delivery ActivityDelivery, log logger.ILogger) *MonitorService {
	return &MonitorService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *MonitorService) Start() {
	// Subscribe to all research events with a durable consumer
	err := s.subscriber.Subscribe("research.>", "research-monitor-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("MonitorService", "Failed to start monitor subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("MonitorService", "Monitor service started, listening to research.>", nil)
}

func (s *MonitorService) handleEvent(ctx context.Context, event events.Event) error {
	// Strip "research." prefix from type (NATS subject includes the stream prefix)
	typeCode := strings.TrimPrefix(event.EventType(), "research.")
	payload := event.Payload()

	sessionID, _ := payload["session_id"].(string)

	activity := model.ResearchActivity{
		SessionID: sessionID,
		Kind:      typeCode,
		Message:   s.describe(typeCode, payload),
		Details:   payload,
		At:        time.Now(),
	}

	s.logger.Info("MonitorService", "Broadcasting activity", map[string]interface{}{"kind": typeCode, "session_id": sessionID})

	if s.delivery != nil {
		s.delivery.Broadcast(activity)
	}
	return nil
}

func (s *MonitorService) describe(typeCode string, payload map[string]interface{}) string {
	switch typeCode {
	case events.TypeSessionStarted:
		return fmt.Sprintf("Research started: %v", payload["query"])
	case events.TypeRoundCompleted:
		return fmt.Sprintf("Round %v completed: %v new results, %v follow-up keywords",
			payload["round"], payload["new_hits"], payload["new_keywords"])
	case events.TypeSessionFinished:
		return fmt.Sprintf("Research finished after %v rounds with %v results",
			payload["rounds"], payload["hits"])
	case events.TypeSessionFailed:
		return fmt.Sprintf("Research failed: %v", payload["reason"])
	case events.TypeSessionCancelled:
		return "Research cancelled"
	case events.TypeNoteCreated:
		return fmt.Sprintf("Note created: %v", payload["title"])
	default:
		return typeCode
	}
}

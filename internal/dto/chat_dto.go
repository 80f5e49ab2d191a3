package dto

// ChatMessageDTO mirrors a single turn of conversation from the client.
type ChatMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Messages     []ChatMessageDTO `json:"messages" validate:"required,min=1,dive"`
	Repositories []string         `json:"repositories" validate:"omitempty,max=10"`
	DeepResearch bool             `json:"is_deep_research"`
	MaxRounds    int              `json:"max_rounds" validate:"omitempty,min=1,max=10"`
	CustomPrompt string           `json:"custom_prompt"`
	Temperature  float64          `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	// StreamResponse defaults to true; explicit false selects the
	// synchronous JSON response.
	StreamResponse *bool `json:"stream_response"`
}

func (r *ChatRequest) Streaming() bool {
	return r.StreamResponse == nil || *r.StreamResponse
}

// Question returns the newest user message, which seeds the research.
func (r *ChatRequest) Question() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// ChatSyncResponse is the non-streaming deep research result.
type ChatSyncResponse struct {
	Answer string `json:"answer"`
	Rounds int    `json:"rounds"`
	Hits   int    `json:"hits"`
}

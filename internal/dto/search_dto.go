package dto

// SearchSource is one query of a document search. An empty repository
// list means every configured repository.
type SearchSource struct {
	Query        string   `json:"query" validate:"required"`
	Repositories []string `json:"repositories" validate:"omitempty,max=10"`
}

type DocumentSearchRequest struct {
	Sources        []SearchSource `json:"sources" validate:"required,min=1,dive"`
	StreamResponse *bool          `json:"stream_response"`
	CustomPrompt   string         `json:"custom_prompt"`
	MaxLength      int            `json:"max_length" validate:"omitempty,min=0"`
	Temperature    float64        `json:"temperature" validate:"omitempty,min=0,max=2"`
}

// Streaming defaults to true when the client does not say otherwise.
func (r *DocumentSearchRequest) Streaming() bool {
	return r.StreamResponse == nil || *r.StreamResponse
}

type FileContentDTO struct {
	Repository string `json:"repository"`
	Path       string `json:"file_path"`
	Branch     string `json:"branch,omitempty"`
	Content    string `json:"content"`
}

type DocumentSearchResponse struct {
	Status  string           `json:"status"`
	Codes   []FileContentDTO `json:"codes"`
	Content string           `json:"content"`
	Error   string           `json:"error,omitempty"`
}

type ScopeSearchRequest struct {
	Repository     string `json:"repository" validate:"required"`
	Query          string `json:"query" validate:"required"`
	Branch         string `json:"branch"`
	MaxResults     int    `json:"max_results" validate:"omitempty,min=1,max=1000"`
	StreamResponse *bool  `json:"stream_response"`
	CustomPrompt   string `json:"custom_prompt"`
}

func (r *ScopeSearchRequest) Streaming() bool {
	return r.StreamResponse == nil || *r.StreamResponse
}

type ScopeSearchResponse struct {
	Status         string `json:"status"`
	ScopeKnowledge string `json:"scope_knowledge"`
	Content        string `json:"content"`
	Error          string `json:"error,omitempty"`
}

package factory

import (
	"code-research-be/pkg/llm"
	"code-research-be/pkg/llm/azure"
	"code-research-be/pkg/llm/huggingface"
	"code-research-be/pkg/llm/ollama"
	"fmt"
)

type ProviderConfig struct {
	Type            string // "ollama", "azure", "huggingface"
	Model           string
	BaseURL         string
	APIKey          string
	AzureDeployment string
	AzureAPIVersion string
}

func NewLLMProvider(cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Type {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "azure":
		if cfg.BaseURL == "" || cfg.AzureDeployment == "" {
			return nil, fmt.Errorf("azure provider requires endpoint and deployment")
		}
		return azure.NewAzureProvider(cfg.BaseURL, cfg.AzureDeployment, cfg.APIKey, cfg.AzureAPIVersion), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Type)
	}
}

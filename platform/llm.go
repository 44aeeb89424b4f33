package platform

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewLLMClient builds a client for any OpenAI-compatible completion endpoint.
func NewLLMClient(baseURL, apiKey string) *openai.Client {
	return openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
}

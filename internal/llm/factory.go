package llm

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	OpenRouterReferrer string
	OpenRouterTitle    string
	YandexOAuthToken   string
	YandexFolderID     string
}

func (f *Factory) CreateClient(provider, model string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return NewOpenAI(f.OpenAIAPIKey, f.OpenAIBaseURL, model, f.headers()), nil
	case ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// headers are the optional OpenRouter attribution headers.
func (f *Factory) headers() http.Header {
	h := http.Header{}
	if f.OpenRouterReferrer != "" {
		h.Set("HTTP-Referer", f.OpenRouterReferrer)
	}
	if f.OpenRouterTitle != "" {
		h.Set("X-Title", f.OpenRouterTitle)
	}
	return h
}

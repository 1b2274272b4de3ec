package llm

import "fmt"

// #region provider-ids

// Provider identifies a backend implementation.
type Provider string

const (
	ProviderClaude  Provider = "claude"
	ProviderChatGPT Provider = "chatgpt"
	ProviderGemini  Provider = "gemini"
)

// #endregion provider-ids

// #region factory

// NewClient selects a provider implementation by identifier. An unsupported
// identifier is a configuration error, raised synchronously so construction
// of the owning bot fails fast.
func NewClient(provider Provider, cfg Config) (Client, error) {
	switch provider {
	case ProviderClaude, "anthropic":
		return NewAnthropicClient(cfg), nil
	case ProviderChatGPT, "openai":
		return NewOpenAIClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

// #endregion factory

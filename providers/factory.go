package providers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/meysamhadeli/guidescan/providers/anthropic"
	"github.com/meysamhadeli/guidescan/providers/contracts"
	"github.com/meysamhadeli/guidescan/providers/gemini"
	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/meysamhadeli/guidescan/providers/none"
	"github.com/meysamhadeli/guidescan/providers/ollama"
	"github.com/pterm/pterm"
)

// Provider names accepted by ProviderFactory.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"
)

// AIProviderConfig selects and configures the chat backend.
type AIProviderConfig struct {
	Provider          string   `mapstructure:"provider"`
	BaseURL           string   `mapstructure:"base_url"`
	Model             string   `mapstructure:"model"`
	APIKey            string   `mapstructure:"api_key"`
	Temperature       *float32 `mapstructure:"temperature"`
	MaxTokens         int      `mapstructure:"max_tokens"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second"`
	// MaxRounds is taken from the top-level max_rounds setting.
	MaxRounds int `mapstructure:"-"`
}

// ProviderFactory creates a fresh conversation for every file. All
// conversations share one backend.
type ProviderFactory struct {
	backend   contracts.IChatBackend
	maxRounds int
	onUsage   func(models.Usage)
	logger    *pterm.Logger
}

// NewProviderFactory builds the backend named by config.Provider.
func NewProviderFactory(ctx context.Context, config *AIProviderConfig, onUsage func(models.Usage), logger *pterm.Logger) (*ProviderFactory, error) {
	backend, err := newBackend(ctx, config)
	if err != nil {
		return nil, err
	}
	return NewProviderFactoryWithBackend(WithRateLimit(backend, config.RequestsPerSecond), config.MaxRounds, onUsage, logger), nil
}

// NewProviderFactoryWithBackend creates a factory on an existing backend.
func NewProviderFactoryWithBackend(backend contracts.IChatBackend, maxRounds int, onUsage func(models.Usage), logger *pterm.Logger) *ProviderFactory {
	if logger == nil {
		logger = &pterm.DefaultLogger
	}
	return &ProviderFactory{backend: backend, maxRounds: maxRounds, onUsage: onUsage, logger: logger}
}

func newBackend(ctx context.Context, config *AIProviderConfig) (contracts.IChatBackend, error) {
	switch strings.ToLower(config.Provider) {
	case ProviderAnthropic:
		return anthropic.NewAnthropicChatBackend(&anthropic.AnthropicConfig{
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			APIKey:      config.APIKey,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		})
	case ProviderGemini:
		return gemini.NewGeminiChatBackend(ctx, &gemini.GeminiConfig{
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			APIKey:      config.APIKey,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		})
	case ProviderOllama:
		return ollama.NewOllamaChatBackend(&ollama.OllamaConfig{
			BaseURL:     config.BaseURL,
			Model:       config.Model,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		}), nil
	case ProviderNone, "":
		return none.NewNoneChatBackend(os.Stdout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q (supported: %s, %s, %s, %s)",
			config.Provider, ProviderAnthropic, ProviderGemini, ProviderOllama, ProviderNone)
	}
}

// New returns an empty conversation.
func (f *ProviderFactory) New() contracts.IAIProvider {
	return NewConversation(ConversationConfig{
		Backend:   f.backend,
		MaxRounds: f.maxRounds,
		OnUsage:   f.onUsage,
		Logger:    f.logger,
	})
}

// Backend returns the shared backend.
func (f *ProviderFactory) Backend() contracts.IChatBackend { return f.backend }

// IsThreadSafe reports whether conversations may run concurrently.
func (f *ProviderFactory) IsThreadSafe() bool { return f.backend.IsThreadSafe() }

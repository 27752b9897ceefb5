package token_management

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/meysamhadeli/guidescan/constants/lipgloss"
	"github.com/meysamhadeli/guidescan/embed_data"
	"github.com/meysamhadeli/guidescan/token_management/contracts"
)

// tokenManager is the process-wide usage accumulator.
type tokenManager struct {
	mu                   sync.Mutex
	out                  io.Writer
	usedToken            int
	usedInputToken       int
	usedCachedInputToken int
	usedOutputToken      int
}

type details struct {
	MaxTokens                      int     `json:"max_tokens"`
	MaxInputTokens                 int     `json:"max_input_tokens"`
	MaxOutputTokens                int     `json:"max_output_tokens"`
	InputCostPerMillionTokens      float64 `json:"input_cost_per_million_tokens,omitempty"`
	OutputCostPerMillionTokens     float64 `json:"output_cost_per_million_tokens,omitempty"`
	CacheReadInputMillionTokenCost float64 `json:"cache_read_input_million_token_cost,omitempty"`
	Mode                           string  `json:"mode"`
	SupportsFunctionCalling        bool    `json:"supports_function_calling,omitempty"`
}

type Models struct {
	ModelDetails map[string]details `json:"models"`
}

var (
	modelsOnce   sync.Once
	parsedModels Models
	parseErr     error
)

// NewTokenManager creates a token manager printing to stdout.
func NewTokenManager() contracts.ITokenManagement {
	return NewTokenManagerWithWriter(os.Stdout)
}

// NewTokenManagerWithWriter creates a token manager printing to out.
func NewTokenManagerWithWriter(out io.Writer) contracts.ITokenManagement {
	return &tokenManager{out: out}
}

// UsedTokens accumulates the token count for the session. Cached input
// tokens are part of inputToken.
func (tm *tokenManager) UsedTokens(inputToken int, cachedInputToken int, outputToken int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedInputToken += inputToken
	tm.usedCachedInputToken += cachedInputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenManager) DisplayTokens(chatProviderName string, chatModel string) {
	total, input, cached, output := tm.GetCurrentTokenUsage()
	cost := tm.CalculateCost(chatProviderName, chatModel, input, cached, output)

	tokenInfo := fmt.Sprintf("Token Used: %d (input %d, cached %d, output %d) - Cost: %.6f $ - Chat Model: %s",
		total, input, cached, output, cost, chatModel)

	fmt.Fprintln(tm.out, lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenManager) GetCurrentTokenUsage() (total int, input int, cached int, output int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.usedToken, tm.usedInputToken, tm.usedCachedInputToken, tm.usedOutputToken
}

func (tm *tokenManager) ClearToken() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedCachedInputToken = 0
	tm.usedOutputToken = 0
}

// CalculateCost prices the usage with the embedded model table. Unknown
// models cost nothing.
func (tm *tokenManager) CalculateCost(providerName string, modelName string, inputToken int, cachedInputToken int, outputToken int) float64 {
	modelDetails, err := getModelDetails(providerName, modelName)
	if err != nil {
		return 0
	}

	cachedInputToken = min(cachedInputToken, inputToken)
	cacheReadCost := modelDetails.CacheReadInputMillionTokenCost
	if cacheReadCost == 0 {
		cacheReadCost = modelDetails.InputCostPerMillionTokens
	}

	inputCost := float64(inputToken-cachedInputToken) * modelDetails.InputCostPerMillionTokens / 1000000.0
	cachedCost := float64(cachedInputToken) * cacheReadCost / 1000000.0
	outputCost := float64(outputToken) * modelDetails.OutputCostPerMillionTokens / 1000000.0

	return inputCost + cachedCost + outputCost
}

func getModelDetails(providerName string, modelName string) (details, error) {
	modelsOnce.Do(func() {
		parsedModels = Models{ModelDetails: make(map[string]details)}
		parseErr = json.Unmarshal(embed_data.ModelDetails, &parsedModels)
	})
	if parseErr != nil {
		return details{}, fmt.Errorf("failed to parse model details: %w", parseErr)
	}

	modelName = strings.ToLower(modelName)
	model, exists := parsedModels.ModelDetails[modelName]
	if !exists {
		return details{}, fmt.Errorf("model details price with name '%s' not found for provider '%s'", modelName, strings.ToLower(providerName))
	}
	return model, nil
}

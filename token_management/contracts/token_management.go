package contracts

// ITokenManagement accumulates the usage of every conversation of a run.
// Implementations must be safe for concurrent use.
type ITokenManagement interface {
	UsedTokens(inputToken int, cachedInputToken int, outputToken int)
	CalculateCost(providerName string, modelName string, inputToken int, cachedInputToken int, outputToken int) float64
	DisplayTokens(chatProviderName string, chatModel string)
	GetCurrentTokenUsage() (total int, input int, cached int, output int)
	ClearToken()
}

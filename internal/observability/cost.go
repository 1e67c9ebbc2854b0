package observability

import "strconv"

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	// Gemini 2.5 pricing
	gemini25FlashInputPrice  = 0.0003
	gemini25FlashOutputPrice = 0.0025
	gemini25ProInputPrice    = 0.00125
	gemini25ProOutputPrice   = 0.01

	// GPT-5 pricing
	gpt5MiniInputPrice  = 0.00025
	gpt5MiniOutputPrice = 0.002
	gpt5NanoInputPrice  = 0.00005
	gpt5NanoOutputPrice = 0.0004
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64 // Price per 1K input tokens in USD
	OutputPricePer1K float64 // Price per 1K output tokens in USD
}

// PricingTable contains pricing for all supported models
var PricingTable = map[string]ModelPricing{
	"gemini-2.5-flash": {
		InputPricePer1K:  gemini25FlashInputPrice,
		OutputPricePer1K: gemini25FlashOutputPrice,
	},
	"gemini-2.5-pro": {
		InputPricePer1K:  gemini25ProInputPrice,
		OutputPricePer1K: gemini25ProOutputPrice,
	},
	"gpt-5-mini": {
		InputPricePer1K:  gpt5MiniInputPrice,
		OutputPricePer1K: gpt5MiniOutputPrice,
	},
	"gpt-5-nano": {
		InputPricePer1K:  gpt5NanoInputPrice,
		OutputPricePer1K: gpt5NanoOutputPrice,
	},
}

// CalculateCost calculates the cost in USD for a model call
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, exists := PricingTable[model]
	if !exists {
		// Default to flash pricing if model not found
		pricing = PricingTable["gemini-2.5-flash"]
	}

	inputCost := (float64(inputTokens) / tokensPerKilo) * pricing.InputPricePer1K
	outputCost := (float64(outputTokens) / tokensPerKilo) * pricing.OutputPricePer1K

	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}

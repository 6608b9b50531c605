package model

// AIProvider names a supported claim-detection backend
type AIProvider string

const (
	ProviderOpenAI     AIProvider = "openai"
	ProviderGemini     AIProvider = "gemini"
	ProviderOpenRouter AIProvider = "openrouter"
)

// Settings are the user-facing analysis settings. The core only reads them.
type Settings struct {
	AIProvider              AIProvider `json:"aiProvider" validate:"required,oneof=openai gemini openrouter"`
	AIModel                 string     `json:"aiModel" validate:"required"`
	APIKey                  string     `json:"-"`
	AnalysisDurationMinutes int        `json:"analysisDuration" validate:"min=1,max=600"`
	MinConfidenceThreshold  int        `json:"minConfidenceThreshold" validate:"min=0,max=100"`
	SkipLiesEnabled         bool       `json:"skipLiesEnabled"`
}

// Setting defaults applied when a store has no value
const (
	DefaultAnalysisDurationMinutes = 20
	DefaultMinConfidenceThreshold  = 85
	DefaultOpenAIModel             = "gpt-4o-mini"
	DefaultGeminiModel             = "gemini-2.0-flash-exp"
	DefaultOpenRouterModel         = "meta-llama/llama-4-maverick-17b-128e-instruct:free"
)

// ThresholdFraction converts the 0-100 threshold into a 0-1 confidence
func (s Settings) ThresholdFraction() float64 {
	return float64(s.MinConfidenceThreshold) / 100
}

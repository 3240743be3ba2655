package llm

// LLMRequest leaves generation limits to the model when MaxTokens is 0 and
// Temperature is nil.
type LLMRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

type LLMResponse struct {
	Content    string
	StopReason string
}

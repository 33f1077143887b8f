package apimodels

type AskRequest struct {
	// Question is the natural language question about the dataset
	Question string `json:"question"`

	// Optional parameters to control generation
	Options AskOptions `json:"options,omitempty"`
}

type AskOptions struct {
	// Model overrides the configured model id
	Model string `json:"model,omitempty"`

	// MaxTokens limits the LLM response length; nil keeps the configured value
	MaxTokens *int64 `json:"maxTokens,omitempty"`

	// Temperature controls randomness (0.0-1.0); nil keeps the configured value
	Temperature *float64 `json:"temperature,omitempty"`
}

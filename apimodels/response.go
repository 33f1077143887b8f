package apimodels

// Chart outcomes of a single request.
const (
	ChartRendered = "rendered"
	ChartNone     = "none"
	ChartFailed   = "failed"
)

type AnswerResponse struct {
	// The question as submitted
	Question string `json:"question"`

	// Raw text generated by the model; may be empty
	Answer string `json:"answer"`

	// One of ChartRendered, ChartNone, ChartFailed
	ChartStatus string `json:"chartStatus"`

	// Present when ChartStatus is ChartRendered
	Chart *ChartConfig `json:"chart,omitempty"`

	// Human readable explanation of a degraded chart
	Warning string `json:"warning,omitempty"`

	// Metadata about the request
	Metadata AnswerMetadata `json:"metadata"`
}

type AnswerMetadata struct {
	// Unique id of this question/answer cycle
	InteractionID string `json:"interactionId"`

	// Time taken for the whole request
	Duration string `json:"duration"`

	// Provider variant and model used
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Tokens used, when the provider reports them
	TokensUsed int64 `json:"tokensUsed"`

	// Dataset rows embedded in the prompt
	RowsSampled int `json:"rowsSampled"`
}

// ChartConfig is a render-ready bar chart description.
type ChartConfig struct {
	ChartType string        `json:"chartType"`
	Title     string        `json:"title"`
	XAxis     string        `json:"xAxis,omitempty"`
	YAxis     string        `json:"yAxis,omitempty"`
	Series    []ChartSeries `json:"series"`
}

type ChartSeries struct {
	Name string       `json:"name"`
	Data []ChartPoint `json:"data"`
}

type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type DatasetPreview struct {
	Source    string     `json:"source"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

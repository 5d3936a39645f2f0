package zhipu

type Request struct {
	Model string `json:"model"`
	File  string `json:"file"`
}

type Response struct {
	ID    string `json:"id,omitempty"`
	Model string `json:"model,omitempty"`

	Markdown string `json:"md_results"`

	Usage *Usage `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

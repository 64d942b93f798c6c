package transfer

type GenerationRequest struct {
	Prompt      string `json:"prompt"`
	Platform    string `json:"platform"`
	ContentType string `json:"content_type"`
	Model       string `json:"model"`
	Provider    string `json:"provider"`
}

type GenerationResult struct {
	Success         bool    `json:"success"`
	ImageURL        string  `json:"image_url"`
	Provider        string  `json:"provider"`
	Model           string  `json:"model"`
	GenerationTime  float64 `json:"generation_time"`
	Prompt          string  `json:"prompt"`
	OriginalPrompt  string  `json:"original_prompt,omitempty"`
	OptimizedPrompt string  `json:"optimized_prompt,omitempty"`
	Platform        string  `json:"platform,omitempty"`
	ContentType     string  `json:"content_type,omitempty"`
	Error           string  `json:"error,omitempty"`
}
